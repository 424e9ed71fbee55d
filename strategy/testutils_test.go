package strategy

import (
	"testing"
	"time"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

// candle represents a single bar that the tests feed to a strategy.
type candle struct {
	high, low, close float64
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mkBar(ticker string, at time.Time, c candle) types.Bar {
	closePx := c.close
	if closePx == 0 {
		closePx = c.low
	}
	return types.Bar{
		Ticker:   ticker,
		Time:     at,
		Open:     decimal.NewFromFloat(closePx),
		High:     decimal.NewFromFloat(c.high),
		Low:      decimal.NewFromFloat(c.low),
		Close:    decimal.NewFromFloat(closePx),
		AdjClose: decimal.NewFromFloat(closePx),
		Volume:   1000,
	}
}

// feedBars sends one candle per consecutive day starting at start and
// fails the test on any strategy error.
func feedBars(t *testing.T, s Strategy, p executor.Portfolio, ticker string, start time.Time, bars []candle) {
	t.Helper()
	for i, c := range bars {
		if err := s.CalculateSignals(mkBar(ticker, start.AddDate(0, 0, i), c), p); err != nil {
			t.Fatalf("bar %d: %v", i, err)
		}
	}
}

// barIndex converts a signal timestamp back into the offset from start.
func barIndex(start time.Time, sig types.Signal) int {
	return int(sig.Time.Sub(start).Hours() / 24)
}
