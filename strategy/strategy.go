package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrNoTickers       = errors.New("strategy needs at least one ticker")
	ErrNilSink         = errors.New("strategy needs a signal sink")
	ErrNilSizer        = errors.New("strategy needs a sizer")
	ErrInvalidRisk     = errors.New("risk percentage must be > 0 and < 1")
)

// Strategy turns one bar at a time into zero or more signals, which it puts
// on its sink. A returned error never means the strategy is unusable: the
// caller logs it and moves on to the next bar.
type Strategy interface {
	Name() string
	CalculateSignals(bar types.Bar, p executor.Portfolio) error
}

// Sink receives emitted signals, normally the session's event queue.
type Sink interface {
	Put(sig types.Signal)
}

const (
	NameBuyAndHold                = "buy_and_hold"
	NameTrailingStop              = "trailing_stop"
	NameBreakout                  = "breakout"
	NameMonthlyLiquidateRebalance = "monthly_liquidate_rebalance"
	NameMonthlyRebalance          = "monthly_rebalance"
	NameStopLossRebalance         = "stop_loss_rebalance"
)

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	Tickers       []string
	RiskPct       decimal.Decimal // trailing-stop drawdown, e.g. 0.1
	BaseQuantity  int64           // breakout order size when no sizer is set
	SupportBuffer decimal.Decimal // breakout stop distance below support, e.g. 0.03
}

// Build returns the strategy matching name.
func Build(name string, params Params, sz sizer.Sizer, sink Sink, log logger.Logger) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameBuyAndHold:
		return NewBuyAndHold(params.Tickers, sz, sink, log)
	case NameTrailingStop, "buy_and_hold_stop_loss":
		return NewTrailingStop(params.Tickers, params.RiskPct, sz, sink, log)
	case NameBreakout, "tortuga":
		return NewBreakout(params.Tickers, params.BaseQuantity, params.SupportBuffer, sz, sink, log)
	case NameMonthlyLiquidateRebalance:
		return NewMonthlyLiquidateRebalance(params.Tickers, sz, sink, log)
	case NameMonthlyRebalance:
		return NewMonthlyRebalance(params.Tickers, sz, sink, log)
	case NameStopLossRebalance:
		return NewStopLossRebalance(params.Tickers, params.RiskPct, sz, sink, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func validateRisk(riskPct decimal.Decimal) error {
	if riskPct.Sign() <= 0 || riskPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s", ErrInvalidRisk, riskPct)
	}
	return nil
}
