package strategy

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

type stopRebalanceState struct {
	maxPrice decimal.Decimal
}

// StopLossRebalance combines a trailing stop with month-end rebalancing.
// Whether a ticker is held is read from the portfolio rather than tracked,
// so fills that the risk filter dropped do not desynchronise it.
type StopLossRebalance struct {
	*BaseStrategy
	book      *tickerBook[stopRebalanceState]
	keepRatio decimal.Decimal
}

func NewStopLossRebalance(tickers []string, riskPct decimal.Decimal, sz sizer.Sizer, sink Sink, log logger.Logger) (*StopLossRebalance, error) {
	if err := validateRisk(riskPct); err != nil {
		return nil, err
	}
	if sz == nil {
		return nil, ErrNilSizer
	}
	base, err := NewBaseStrategy(NameStopLossRebalance, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) stopRebalanceState { return stopRebalanceState{} })
	if err != nil {
		return nil, err
	}
	return &StopLossRebalance{
		BaseStrategy: base,
		book:         book,
		keepRatio:    decimal.NewFromInt(1).Sub(riskPct),
	}, nil
}

func (s *StopLossRebalance) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok {
		return nil
	}
	if bar.High.GreaterThan(st.maxPrice) {
		st.maxPrice = bar.High
	}
	threshold := st.maxPrice.Mul(s.keepRatio)
	held, invested := p.Position(bar.Ticker)

	if invested && bar.Low.LessThanOrEqual(threshold) {
		exit := types.NewSignal(bar.Ticker, types.Exit)
		exit.SuggestedQuantity = types.Abs(held)
		s.put(exit, bar)
		return nil
	}
	if !endOfMonth(bar.Time) || !bar.Low.GreaterThan(threshold) {
		return nil
	}

	action := types.EnterLong
	if invested {
		action = types.Rebalance
	}
	sized, err := s.size(p, types.NewSignal(bar.Ticker, action))
	if err != nil {
		return err
	}
	if sized.SuggestedQuantity > 0 {
		s.put(sized, bar)
	}
	return nil
}
