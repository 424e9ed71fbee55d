package strategy

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
)

type holdState struct {
	invested bool
}

// BuyAndHold goes long on the first bar seen for each ticker and then holds
// until the run ends. There is no exit rule.
type BuyAndHold struct {
	*BaseStrategy
	book *tickerBook[holdState]
}

func NewBuyAndHold(tickers []string, sz sizer.Sizer, sink Sink, log logger.Logger) (*BuyAndHold, error) {
	base, err := NewBaseStrategy(NameBuyAndHold, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) holdState { return holdState{} })
	if err != nil {
		return nil, err
	}
	return &BuyAndHold{BaseStrategy: base, book: book}, nil
}

func (s *BuyAndHold) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok || st.invested {
		return nil
	}
	st.invested = true
	return s.emit(p, types.NewSignal(bar.Ticker, types.EnterLong), bar)
}
