package strategy

import (
	"errors"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

// DefaultSupportBuffer places the stop 3 % under the tracked support.
var DefaultSupportBuffer = decimal.RequireFromString("0.03")

// breakoutState uses has* flags where the classic formulation starts from
// -inf (max price) and +inf (support).
type breakoutState struct {
	maxPrice   decimal.Decimal
	hasMax     bool
	support    decimal.Decimal
	hasSupport bool
	stopLoss   decimal.Decimal
	invested   bool
	bars       int
}

// Breakout (turtle-style) buys when price clears the previous maximum after a
// pullback has established a support level, and exits when support breaks
// below the stop kept a fixed buffer under it.
type Breakout struct {
	*BaseStrategy
	book         *tickerBook[breakoutState]
	baseQuantity int64
	stopRatio    decimal.Decimal // 1 - buffer
}

func NewBreakout(tickers []string, baseQuantity int64, buffer decimal.Decimal, sz sizer.Sizer, sink Sink, log logger.Logger) (*Breakout, error) {
	if buffer.Sign() <= 0 {
		buffer = DefaultSupportBuffer
	}
	if buffer.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, ErrInvalidRisk
	}
	if baseQuantity <= 0 {
		baseQuantity = sizer.DefaultQuantity
	}
	base, err := NewBaseStrategy(NameBreakout, sink, sz, log)
	if err != nil {
		return nil, err
	}
	book, err := newTickerBook(tickers, func(string) breakoutState { return breakoutState{} })
	if err != nil {
		return nil, err
	}
	return &Breakout{
		BaseStrategy: base,
		book:         book,
		baseQuantity: baseQuantity,
		stopRatio:    decimal.NewFromInt(1).Sub(buffer),
	}, nil
}

// CalculateSignals runs the five steps in a fixed order. The max-price update
// comes last so the bar's high is compared against the previous maximum.
func (s *Breakout) CalculateSignals(bar types.Bar, p executor.Portfolio) error {
	st, ok := s.book.get(bar.Ticker)
	if !ok {
		return nil
	}
	defer func() { st.bars++ }()

	newHigh := !st.hasMax || bar.High.GreaterThan(st.maxPrice)
	var err error

	// 1. entry on a breakout above the previous maximum
	if !st.invested && st.hasMax && st.hasSupport && newHigh {
		st.stopLoss = st.support.Mul(s.stopRatio)
		st.invested = true
		s.Log.Info("breakout_entry",
			logger.String("ticker", bar.Ticker),
			logger.Decimal("high", bar.High),
			logger.Decimal("stop", st.stopLoss),
		)
		err = s.emit(p, s.signal(bar.Ticker, types.EnterLong), bar)
	}

	// 2. support only moves down inside a cycle
	if !st.hasSupport || bar.Low.LessThan(st.support) {
		st.support = bar.Low
		st.hasSupport = true
	}

	if st.invested {
		// 3. re-anchor the stop on a new high
		if newHigh && st.support.GreaterThan(st.stopLoss) {
			st.stopLoss = st.support.Mul(s.stopRatio)
		}
		// 4. exit once support has fallen through the stop
		if st.support.LessThan(st.stopLoss) {
			st.invested = false
			s.Log.Info("breakout_exit",
				logger.String("ticker", bar.Ticker),
				logger.Decimal("support", st.support),
				logger.Decimal("stop", st.stopLoss),
			)
			err = errors.Join(err, s.emit(p, s.signal(bar.Ticker, types.Exit), bar))
		}
	}

	// 5. new maximum starts a fresh support cycle
	if newHigh {
		st.maxPrice = bar.High
		st.hasMax = true
		st.hasSupport = false
	}
	return err
}

func (s *Breakout) signal(ticker string, action types.Action) types.Signal {
	sig := types.NewSignal(ticker, action)
	sig.SuggestedQuantity = s.baseQuantity
	return sig
}

// Bars returns how many bars ticker has seen.
func (s *Breakout) Bars(ticker string) int {
	if st, ok := s.book.get(ticker); ok {
		return st.bars
	}
	return 0
}
