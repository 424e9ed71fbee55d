package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the intent carried by a Signal. The first four values are what
// strategies emit; BOT and SLD are the resolved directions a sizer may write
// back once it knows which way the position has to move.
type Action string

const (
	EnterLong Action = "ENTER_LONG"
	Exit      Action = "EXIT"
	StopLoss  Action = "STOP_LOSS"
	Rebalance Action = "REBALANCE"

	Bot Action = "BOT"
	Sld Action = "SLD"
)

// IsEntry reports whether the action asks for a position to be opened or grown.
func (a Action) IsEntry() bool {
	return a == EnterLong || a == Bot
}

// IsLiquidation reports whether the action asks for the whole position to go.
func (a Action) IsLiquidation() bool {
	return a == Exit || a == StopLoss
}

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// PriceField selects which last-known price a sizer divides by.
type PriceField string

const (
	Close    PriceField = "close"
	AdjClose PriceField = "adj_close"
)

// Bar is one OHLCV observation for a ticker.
type Bar struct {
	Ticker   string
	Time     time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	AdjClose decimal.Decimal
	Volume   int64
}

// Price returns the bar price for the requested field. AdjClose falls back
// to Close when the feed did not supply one.
func (b Bar) Price(field PriceField) decimal.Decimal {
	if field == AdjClose && !b.AdjClose.IsZero() {
		return b.AdjClose
	}
	return b.Close
}

// Signal is an unsized or sized trade intent.
type Signal struct {
	Ticker            string
	Action            Action
	SuggestedQuantity int64
	Time              time.Time
	Strategy          string
}

// NewSignal returns an unsized signal.
func NewSignal(ticker string, action Action) Signal {
	return Signal{Ticker: ticker, Action: action}
}

type Order struct {
	Ticker   string
	Side     Side
	Quantity int64
	Price    decimal.Decimal // 0 = fill at the last close
	// meta
	Comment string
}
