package executor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/metrics"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoPrice          = errors.New("no price for ticker")
	ErrInvalidOrder     = errors.New("invalid order")
)

// Portfolio is the read-only snapshot strategies and sizers consult.
type Portfolio interface {
	Cash() decimal.Decimal
	InitCash() decimal.Decimal
	Equity() decimal.Decimal
	// Position returns the signed open quantity; ok is false when flat.
	Position(ticker string) (qty int64, ok bool)
	LastPrice(ticker string, field types.PriceField) (decimal.Decimal, bool)
}

type Executor interface {
	Portfolio
	// Update marks the latest prices for bar.Ticker.
	Update(bar types.Bar)
	Submit(o types.Order) error
}

type position struct {
	qty      int64
	avgPrice decimal.Decimal
}

// Fill records one executed order.
type Fill struct {
	Order types.Order
	Price decimal.Decimal
	Cash  decimal.Decimal
}

// PaperExecutor is a simple paper-trader: perfect fills, no slippage, no fees.
type PaperExecutor struct {
	cash      decimal.Decimal
	initCash  decimal.Decimal
	positions map[string]*position
	prices    map[string]types.Bar
	fills     []Fill
	log       logger.Logger
}

func NewPaperExecutor(startCash decimal.Decimal, log logger.Logger) *PaperExecutor {
	if log == nil {
		log = logger.NewNop()
	}
	return &PaperExecutor{
		cash:      startCash,
		initCash:  startCash,
		positions: make(map[string]*position),
		prices:    make(map[string]types.Bar),
		log:       log,
	}
}

func (p *PaperExecutor) Update(bar types.Bar) {
	p.prices[bar.Ticker] = bar
	metrics.EquityGauge.Set(p.Equity().InexactFloat64())
}

func (p *PaperExecutor) Submit(o types.Order) error {
	if o.Quantity == 0 {
		return nil
	}
	if o.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %d for %s", ErrInvalidOrder, o.Quantity, o.Ticker)
	}
	// market fill – price = last close unless the order carries one
	price := o.Price
	if price.IsZero() {
		last, ok := p.LastPrice(o.Ticker, types.Close)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoPrice, o.Ticker)
		}
		price = last
	}
	qty := decimal.NewFromInt(o.Quantity)
	cost := price.Mul(qty)

	pos := p.positions[o.Ticker]
	if pos == nil {
		pos = &position{}
	}
	prevQty := pos.qty
	switch o.Side {
	case types.Buy:
		if cost.GreaterThan(p.cash) {
			return fmt.Errorf("%w: need %s have %s", ErrInsufficientCash, cost, p.cash)
		}
		p.cash = p.cash.Sub(cost)
		pos.qty += o.Quantity
	case types.Sell:
		p.cash = p.cash.Add(cost)
		pos.qty -= o.Quantity
	default:
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}
	pos.avgPrice = nextAvgPrice(prevQty, pos.qty, pos.avgPrice, price)

	if pos.qty == 0 {
		delete(p.positions, o.Ticker)
	} else {
		p.positions[o.Ticker] = pos
	}
	p.fills = append(p.fills, Fill{Order: o, Price: price, Cash: p.cash})

	p.log.Info("order_filled",
		logger.String("ticker", o.Ticker),
		logger.String("side", string(o.Side)),
		logger.Int64("qty", o.Quantity),
		logger.Decimal("price", price),
		logger.Decimal("cash", p.cash),
	)
	metrics.OrdersSubmitted.WithLabelValues(string(o.Side)).Inc()
	metrics.PositionsOpen.Set(float64(len(p.positions)))
	metrics.EquityGauge.Set(p.Equity().InexactFloat64())
	return nil
}

// nextAvgPrice keeps a VWAP while a position grows in the same direction,
// keeps the old average when it shrinks and restarts at price when it flips.
func nextAvgPrice(prevQty, newQty int64, prevAvg, price decimal.Decimal) decimal.Decimal {
	switch {
	case newQty == 0:
		return decimal.Zero
	case prevQty == 0 || (prevQty > 0) != (newQty > 0):
		return price
	case types.Abs(newQty) < types.Abs(prevQty):
		return prevAvg
	}
	prev := decimal.NewFromInt(types.Abs(prevQty))
	added := decimal.NewFromInt(types.Abs(newQty - prevQty))
	total := decimal.NewFromInt(types.Abs(newQty))
	return prevAvg.Mul(prev).Add(price.Mul(added)).Div(total)
}

func (p *PaperExecutor) Cash() decimal.Decimal     { return p.cash }
func (p *PaperExecutor) InitCash() decimal.Decimal { return p.initCash }

// Equity is cash plus every open position marked at its last close.
func (p *PaperExecutor) Equity() decimal.Decimal {
	total := p.cash
	for t, pos := range p.positions {
		if bar, ok := p.prices[t]; ok {
			total = total.Add(bar.Close.Mul(decimal.NewFromInt(pos.qty)))
		}
	}
	return total
}

func (p *PaperExecutor) Position(ticker string) (int64, bool) {
	pos, ok := p.positions[ticker]
	if !ok || pos.qty == 0 {
		return 0, false
	}
	return pos.qty, true
}

// AvgPrice returns the average entry price of the open position.
func (p *PaperExecutor) AvgPrice(ticker string) decimal.Decimal {
	if pos, ok := p.positions[ticker]; ok {
		return pos.avgPrice
	}
	return decimal.Zero
}

func (p *PaperExecutor) LastPrice(ticker string, field types.PriceField) (decimal.Decimal, bool) {
	bar, ok := p.prices[ticker]
	if !ok {
		return decimal.Decimal{}, false
	}
	return bar.Price(field), true
}

// Tickers lists tickers with an open position, sorted.
func (p *PaperExecutor) Tickers() []string {
	out := make([]string, 0, len(p.positions))
	for t := range p.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Fills returns a copy of every executed order.
func (p *PaperExecutor) Fills() []Fill {
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
