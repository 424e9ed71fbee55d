package session

import "github.com/evdnx/gosig/types"

// Queue is the FIFO event queue strategies put signals on.
type Queue struct {
	items []types.Signal
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Put(sig types.Signal) { q.items = append(q.items, sig) }

// Get pops the oldest signal.
func (q *Queue) Get() (types.Signal, bool) {
	if len(q.items) == 0 {
		return types.Signal{}, false
	}
	sig := q.items[0]
	q.items[0] = types.Signal{}
	q.items = q.items[1:]
	return sig, true
}

func (q *Queue) Len() int { return len(q.items) }
