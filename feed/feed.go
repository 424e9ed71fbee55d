// Package feed delivers historical bars to a session in time order.
package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/evdnx/gosig/types"
)

// ErrNoData is returned when a requested ticker has no bars at all.
var ErrNoData = errors.New("no bars for ticker")

// Feed yields bars ordered by time, ties broken by ticker. ok is false once
// the feed is exhausted.
type Feed interface {
	Next(ctx context.Context) (bar types.Bar, ok bool, err error)
	Close() error
}

// Window restricts a feed to [Start, End]. Zero bounds are open.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// SliceFeed replays bars held in memory.
type SliceFeed struct {
	bars []types.Bar
	pos  int
}

// NewSliceFeed copies the bars inside w and sorts them deterministically.
func NewSliceFeed(bars []types.Bar, w Window) *SliceFeed {
	out := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		if w.contains(b.Time) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Ticker < out[j].Ticker
	})
	return &SliceFeed{bars: out}
}

func (f *SliceFeed) Next(ctx context.Context) (types.Bar, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Bar{}, false, err
	}
	if f.pos >= len(f.bars) {
		return types.Bar{}, false, nil
	}
	b := f.bars[f.pos]
	f.pos++
	return b, true, nil
}

// Len returns the number of bars left to deliver.
func (f *SliceFeed) Len() int { return len(f.bars) - f.pos }

func (f *SliceFeed) Close() error { return nil }
