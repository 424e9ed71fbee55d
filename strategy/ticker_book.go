package strategy

// tickerBook keeps one plain state record per ticker in a slice addressed
// through a stable index, so no record is ever shared between tickers.
type tickerBook[T any] struct {
	index  map[string]int
	order  []string
	states []T
}

func newTickerBook[T any](tickers []string, init func(ticker string) T) (*tickerBook[T], error) {
	b := &tickerBook[T]{index: make(map[string]int, len(tickers))}
	for _, t := range tickers {
		if t == "" {
			continue
		}
		if _, dup := b.index[t]; dup {
			continue
		}
		b.index[t] = len(b.states)
		b.order = append(b.order, t)
		b.states = append(b.states, init(t))
	}
	if len(b.states) == 0 {
		return nil, ErrNoTickers
	}
	return b, nil
}

// get returns the record for ticker; ok is false for unknown tickers.
func (b *tickerBook[T]) get(ticker string) (*T, bool) {
	i, ok := b.index[ticker]
	if !ok {
		return nil, false
	}
	return &b.states[i], true
}

func (b *tickerBook[T]) tickers() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}
