package sizer

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

// Weight splits the cash still available across the tickers that are not
// held yet, in proportion to their configured weights.
type Weight struct {
	weights types.WeightTable
	opts    options
}

func NewWeight(weights types.WeightTable, opts ...Option) *Weight {
	return &Weight{weights: weights.Clone(), opts: buildOptions(opts)}
}

func (w *Weight) Name() string { return NameWeight }

func (w *Weight) Size(p executor.Portfolio, s types.Signal) (types.Signal, error) {
	switch {
	case s.Action.IsLiquidation():
		return liquidate(p, s), nil
	case !s.Action.IsEntry():
		s.SuggestedQuantity = 0
		return s, nil
	}

	price, err := priceOf(p, s.Ticker, w.opts.field)
	if err != nil {
		return s, err
	}
	weight, remaining := w.renormalised(p, s.Ticker)
	if weight.Sign() <= 0 || remaining.Sign() <= 0 {
		s.SuggestedQuantity = 0
		return s, nil
	}
	cash := p.Cash()
	// floor(cash * weight/remaining / price) without an intermediate rounding step
	qty := types.FloorDiv(cash.Mul(weight), remaining.Mul(price))
	affordable := types.FloorDiv(cash, price)
	s.SuggestedQuantity = types.NonNegative(min64(qty, affordable))
	return s, nil
}

// renormalised works on a local copy of the table: held tickers drop to zero
// and the ticker's share is taken against what is left.
func (w *Weight) renormalised(p executor.Portfolio, ticker string) (weight, remaining decimal.Decimal) {
	local := w.weights.Clone()
	for t := range local {
		if _, held := p.Position(t); held {
			local[t] = decimal.Zero
		}
	}
	return local.Weight(ticker), local.Sum()
}

// WeightComplex sizes towards an equity target per ticker and, on REBALANCE,
// trades only the difference between target and current holding.
type WeightComplex struct {
	weights types.WeightTable
	opts    options
}

func NewWeightComplex(weights types.WeightTable, opts ...Option) *WeightComplex {
	return &WeightComplex{weights: weights.Clone(), opts: buildOptions(opts)}
}

func (w *WeightComplex) Name() string { return NameWeightComplex }

func (w *WeightComplex) Size(p executor.Portfolio, s types.Signal) (types.Signal, error) {
	if s.Action.IsLiquidation() {
		return liquidate(p, s), nil
	}
	price, err := priceOf(p, s.Ticker, w.opts.field)
	if err != nil {
		return s, err
	}
	target := types.NonNegative(types.FloorDiv(w.weights.Weight(s.Ticker).Mul(p.Equity()), price))
	affordable := types.NonNegative(types.FloorDiv(p.Cash(), price))

	if s.Action != types.Rebalance {
		s.SuggestedQuantity = min64(target, affordable)
		return s, nil
	}
	current, _ := p.Position(s.Ticker)
	delta := target - current
	if delta < 0 {
		s.Action = types.Sld
		s.SuggestedQuantity = -delta
		return s, nil
	}
	s.Action = types.Bot
	s.SuggestedQuantity = min64(delta, affordable)
	return s, nil
}
