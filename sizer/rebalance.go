package sizer

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

// LiquidateRebalance supports a periodic full liquidation followed by a
// fresh equity-weighted allocation. EXIT signals net the holding to zero;
// anything else is sized to weight * equity.
type LiquidateRebalance struct {
	weights types.WeightTable
	opts    options
}

func NewLiquidateRebalance(weights types.WeightTable, opts ...Option) *LiquidateRebalance {
	return &LiquidateRebalance{weights: weights.Clone(), opts: buildOptions(opts)}
}

func (l *LiquidateRebalance) Name() string { return NameLiquidateRebalance }

func (l *LiquidateRebalance) Size(p executor.Portfolio, s types.Signal) (types.Signal, error) {
	if s.Action.IsLiquidation() {
		return liquidate(p, s), nil
	}
	price, err := priceOf(p, s.Ticker, l.opts.field)
	if err != nil {
		return s, err
	}
	target := types.NonNegative(types.FloorDiv(l.weights.Weight(s.Ticker).Mul(p.Equity()), price))

	// The buy lands after this ticker's own liquidation, so its proceeds
	// count towards what can be afforded.
	budget := p.Cash()
	if held, ok := p.Position(s.Ticker); ok && held > 0 {
		budget = budget.Add(price.Mul(decimal.NewFromInt(held)))
	}
	affordable := types.NonNegative(types.FloorDiv(budget, price))
	s.SuggestedQuantity = min64(target, affordable)
	return s, nil
}
