package testutils

import (
	"sync"

	"github.com/evdnx/gosig/types"
)

// MockSink records every signal a strategy emits.
type MockSink struct {
	mu      sync.RWMutex
	signals []types.Signal
}

func NewMockSink() *MockSink { return &MockSink{} }

func (s *MockSink) Put(sig types.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
}

// Signals returns a copy of everything received so far.
func (s *MockSink) Signals() []types.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// Actions returns the action of each received signal in order.
func (s *MockSink) Actions() []types.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Action, len(s.signals))
	for i, sig := range s.signals {
		out[i] = sig.Action
	}
	return out
}

// Reset drops recorded signals.
func (s *MockSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = nil
}
