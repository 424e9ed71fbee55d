package risk

import (
	"errors"
	"fmt"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/metrics"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

var (
	ErrUnresolvedAction = errors.New("signal action has no order side")
	ErrNoPrice          = errors.New("no close price to refine against")
)

// Limits bounds the size of orders that open or add to exposure.
// Zero values disable the corresponding cap.
type Limits struct {
	MaxQuantity     int64
	MaxRiskPerTrade decimal.Decimal // share of equity at risk, e.g. 0.01
	StopLossPct     decimal.Decimal // assumed stop distance, e.g. 0.015
}

// Filter turns sized signals into executable orders.
type Filter struct {
	limits Limits
	log    logger.Logger
}

func NewFilter(limits Limits, log logger.Logger) *Filter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Filter{limits: limits, log: log}
}

// CalcQty returns the whole number of shares whose loss at the stop distance
// equals equity*maxRisk.
func CalcQty(equity, maxRisk, stopLossPct, price decimal.Decimal) int64 {
	// dollar risk per trade over stop-loss distance in dollars
	slDist := price.Mul(stopLossPct)
	if slDist.Sign() <= 0 {
		return 0
	}
	return types.NonNegative(types.FloorDiv(equity.Mul(maxRisk), slDist))
}

// Refine resolves the order side, prices the order at the last close and
// applies the configured caps. ok is false when the signal should simply be
// dropped; err is set when it could not be interpreted.
func (f *Filter) Refine(p executor.Portfolio, s types.Signal) (order types.Order, ok bool, err error) {
	if s.SuggestedQuantity <= 0 {
		f.reject(s, "non_positive_quantity")
		return types.Order{}, false, nil
	}
	held, _ := p.Position(s.Ticker)
	qty := s.SuggestedQuantity

	var side types.Side
	switch s.Action {
	case types.EnterLong, types.Bot:
		side = types.Buy
	case types.Sld:
		side = types.Sell
	case types.Exit, types.StopLoss:
		// liquidations follow the holding and never reverse it
		switch {
		case held > 0:
			side = types.Sell
		case held < 0:
			side = types.Buy
		default:
			f.reject(s, "flat_liquidation")
			return types.Order{}, false, nil
		}
		if q := types.Abs(held); qty > q {
			qty = q
		}
	default:
		f.reject(s, "unresolved_action")
		return types.Order{}, false, fmt.Errorf("%w: %s %s", ErrUnresolvedAction, s.Action, s.Ticker)
	}

	price, found := p.LastPrice(s.Ticker, types.Close)
	if !found || price.Sign() <= 0 {
		f.reject(s, "no_price")
		return types.Order{}, false, fmt.Errorf("%w: %s", ErrNoPrice, s.Ticker)
	}

	if opensExposure(side, held) {
		qty = f.cap(p, qty, price)
		if qty <= 0 {
			f.reject(s, "risk_cap")
			return types.Order{}, false, nil
		}
	}

	return types.Order{
		Ticker:   s.Ticker,
		Side:     side,
		Quantity: qty,
		Price:    price,
		Comment:  fmt.Sprintf("%s %s", s.Strategy, s.Action),
	}, true, nil
}

func (f *Filter) cap(p executor.Portfolio, qty int64, price decimal.Decimal) int64 {
	if f.limits.MaxQuantity > 0 && qty > f.limits.MaxQuantity {
		qty = f.limits.MaxQuantity
	}
	if f.limits.MaxRiskPerTrade.Sign() > 0 && f.limits.StopLossPct.Sign() > 0 {
		if limit := CalcQty(p.Equity(), f.limits.MaxRiskPerTrade, f.limits.StopLossPct, price); qty > limit {
			qty = limit
		}
	}
	return qty
}

// opensExposure is false for orders that only reduce an existing position.
func opensExposure(side types.Side, held int64) bool {
	if side == types.Buy {
		return held >= 0
	}
	return held <= 0
}

func (f *Filter) reject(s types.Signal, reason string) {
	f.log.Warn("signal_rejected",
		logger.String("ticker", s.Ticker),
		logger.String("action", string(s.Action)),
		logger.Int64("qty", s.SuggestedQuantity),
		logger.String("reason", reason),
	)
	metrics.OrdersRejected.WithLabelValues(reason).Inc()
}
