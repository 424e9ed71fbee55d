package sizer

import (
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/types"
)

// Fixed buys as many whole units as the initial cash would pay for.
type Fixed struct {
	opts options
}

func NewFixed(opts ...Option) *Fixed {
	return &Fixed{opts: buildOptions(opts)}
}

func (f *Fixed) Name() string { return NameFixed }

func (f *Fixed) Size(p executor.Portfolio, s types.Signal) (types.Signal, error) {
	if s.Action.IsLiquidation() {
		return liquidate(p, s), nil
	}
	price, err := priceOf(p, s.Ticker, f.opts.field)
	if err != nil {
		return s, err
	}
	s.SuggestedQuantity = types.NonNegative(types.FloorDiv(p.InitCash(), price))
	return s, nil
}

// Naive suggests the same configured quantity for every non-liquidating signal.
type Naive struct {
	quantity int64
}

func NewNaive(quantity int64) *Naive {
	if quantity <= 0 {
		quantity = DefaultQuantity
	}
	return &Naive{quantity: quantity}
}

func (n *Naive) Name() string { return NameNaive }

func (n *Naive) Size(p executor.Portfolio, s types.Signal) (types.Signal, error) {
	if s.Action.IsLiquidation() {
		return liquidate(p, s), nil
	}
	s.SuggestedQuantity = n.quantity
	return s, nil
}
