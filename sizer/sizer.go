// Package sizer turns an unsized signal plus a portfolio snapshot into a
// concrete integer quantity. Every sizer is a pure function of the snapshot,
// the signal and its own construction-time configuration.
package sizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoPrice is returned when the ticker has no usable last price.
	ErrNoPrice = errors.New("ticker is not quotable")
	// ErrUnknownSizer is returned by Build for an unrecognised policy name.
	ErrUnknownSizer = errors.New("unknown sizer")
)

// Sizer computes SuggestedQuantity and may rewrite the action. The input
// signal is never modified; a sized copy is returned.
type Sizer interface {
	Name() string
	Size(p executor.Portfolio, s types.Signal) (types.Signal, error)
}

const (
	NameFixed              = "fixed"
	NameNaive              = "naive"
	NameWeight             = "weight"
	NameWeightComplex      = "weight_complex"
	NameLiquidateRebalance = "liquidate_rebalance"
)

const DefaultQuantity = 100

type options struct {
	field types.PriceField
}

type Option func(*options)

// WithPriceField selects which last price quantities are divided by.
func WithPriceField(f types.PriceField) Option {
	return func(o *options) {
		if f != "" {
			o.field = f
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{field: types.Close}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Config selects and parameterises a sizer.
type Config struct {
	Name            string
	Weights         types.WeightTable
	DefaultQuantity int64
	PriceField      types.PriceField
}

// Build returns the sizer matching cfg.Name.
func Build(cfg Config) (Sizer, error) {
	opt := WithPriceField(cfg.PriceField)
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case NameFixed:
		return NewFixed(opt), nil
	case NameNaive, "":
		return NewNaive(cfg.DefaultQuantity), nil
	case NameWeight:
		return NewWeight(cfg.Weights, opt), nil
	case NameWeightComplex:
		return NewWeightComplex(cfg.Weights, opt), nil
	case NameLiquidateRebalance:
		return NewLiquidateRebalance(cfg.Weights, opt), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSizer, cfg.Name)
	}
}

// priceOf returns the divisor for a sizing call. A missing or non-positive
// price makes the call fail.
func priceOf(p executor.Portfolio, ticker string, field types.PriceField) (decimal.Decimal, error) {
	price, ok := p.LastPrice(ticker, field)
	if !ok || price.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s (%s)", ErrNoPrice, ticker, field)
	}
	return price, nil
}

// liquidate sizes the signal to the full current holding, in the direction
// that nets it to zero. A flat ticker yields a zero quantity.
func liquidate(p executor.Portfolio, s types.Signal) types.Signal {
	qty, ok := p.Position(s.Ticker)
	switch {
	case !ok || qty == 0:
		s.Action = types.Sld
		s.SuggestedQuantity = 0
	case qty > 0:
		s.Action = types.Sld
		s.SuggestedQuantity = qty
	default:
		s.Action = types.Bot
		s.SuggestedQuantity = -qty
	}
	return s
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
