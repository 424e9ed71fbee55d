package strategy

import (
	"time"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
)

// endOfMonth reports whether t falls on the last calendar day of its month.
func endOfMonth(t time.Time) bool {
	return t.Day() == daysInMonth(t.Year(), t.Month())
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month normalises to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

type calendarState struct {
	invested bool
}

// MonthlyLiquidateRebalance closes every position on the last day of the
// month and immediately re-enters at the configured weights.
type MonthlyLiquidateRebalance struct {
	*BaseStrategy
	book *tickerBook[calendarState]
}

func NewMonthlyLiquidateRebalance(tickers []string, sz sizer.Sizer, sink Sink, log logger.Logger) (*MonthlyLiquidateRebalance, error) {
	base, err := NewBaseStrategy(NameMonthlyLiquidateRebalance, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) calendarState { return calendarState{} })
	if err != nil {
		return nil, err
	}
	return &MonthlyLiquidateRebalance{BaseStrategy: base, book: book}, nil
}

func (s *MonthlyLiquidateRebalance) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok || !endOfMonth(bar.Time) {
		return nil
	}
	if st.invested {
		// liquidation size comes straight from the snapshot
		qty, _ := p.Position(bar.Ticker)
		exit := types.NewSignal(bar.Ticker, types.Exit)
		exit.SuggestedQuantity = types.Abs(qty)
		s.put(exit, bar)
	}
	st.invested = true
	return s.emit(p, types.NewSignal(bar.Ticker, types.EnterLong), bar)
}

// MonthlyRebalance enters on the first month end and afterwards sends a
// REBALANCE every month end so the sizer can trade back to target.
type MonthlyRebalance struct {
	*BaseStrategy
	book *tickerBook[calendarState]
}

func NewMonthlyRebalance(tickers []string, sz sizer.Sizer, sink Sink, log logger.Logger) (*MonthlyRebalance, error) {
	if sz == nil {
		return nil, ErrNilSizer
	}
	base, err := NewBaseStrategy(NameMonthlyRebalance, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) calendarState { return calendarState{} })
	if err != nil {
		return nil, err
	}
	return &MonthlyRebalance{BaseStrategy: base, book: book}, nil
}

func (s *MonthlyRebalance) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok || !endOfMonth(bar.Time) {
		return nil
	}
	if st.invested {
		return s.emit(p, types.NewSignal(bar.Ticker, types.Rebalance), bar)
	}
	st.invested = true
	return s.emit(p, types.NewSignal(bar.Ticker, types.EnterLong), bar)
}
