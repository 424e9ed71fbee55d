package strategy

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

type trailingState struct {
	runningHigh decimal.Decimal
	invested    bool
}

// TrailingStop enters when a bar sets a new running high and stops out once
// a low falls riskPct below that high.
type TrailingStop struct {
	*BaseStrategy
	book      *tickerBook[trailingState]
	riskPct   decimal.Decimal
	keepRatio decimal.Decimal // 1 - riskPct
}

func NewTrailingStop(tickers []string, riskPct decimal.Decimal, sz sizer.Sizer, sink Sink, log logger.Logger) (*TrailingStop, error) {
	if err := validateRisk(riskPct); err != nil {
		return nil, err
	}
	base, err := NewBaseStrategy(NameTrailingStop, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) trailingState { return trailingState{} })
	if err != nil {
		return nil, err
	}
	return &TrailingStop{
		BaseStrategy: base,
		book:         book,
		riskPct:      riskPct,
		keepRatio:    decimal.NewFromInt(1).Sub(riskPct),
	}, nil
}

func (s *TrailingStop) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok {
		return nil
	}
	if bar.High.GreaterThan(st.runningHigh) {
		st.runningHigh = bar.High
	}

	// Entry needs flat, the stop needs invested: at most one fires per bar.
	switch {
	case !st.invested && bar.High.Equal(st.runningHigh):
		st.invested = true
		return s.emit(p, types.NewSignal(bar.Ticker, types.EnterLong), bar)
	case st.invested && bar.Low.LessThanOrEqual(st.runningHigh.Mul(s.keepRatio)):
		st.invested = false
		return s.emit(p, types.NewSignal(bar.Ticker, types.StopLoss), bar)
	}
	return nil
}

// StopLevel returns the price at which ticker would currently stop out.
func (s *TrailingStop) StopLevel(ticker string) (decimal.Decimal, bool) {
	st, ok := s.book.get(ticker)
	if !ok {
		return decimal.Decimal{}, false
	}
	return st.runningHigh.Mul(s.keepRatio), true
}
