package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2020, time.January, d, 0, 0, 0, 0, time.UTC) }

func bar(ticker string, d int, px float64) types.Bar {
	p := decimal.NewFromFloat(px)
	return types.Bar{Ticker: ticker, Time: day(d), Open: p, High: p, Low: p, Close: p, Volume: 100}
}

func drain(t *testing.T, f Feed) []types.Bar {
	t.Helper()
	var out []types.Bar
	for {
		b, ok, err := f.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func keys(bars []types.Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Time.Format("01-02") + " " + b.Ticker
	}
	return out
}

func TestSliceFeedOrdersByTimeThenTicker(t *testing.T) {
	f := NewSliceFeed([]types.Bar{
		bar("SPY", 3, 1), bar("AAPL", 2, 1), bar("SPY", 2, 1), bar("MA", 3, 1), bar("AAPL", 3, 1),
	}, Window{})
	assert.Equal(t, 5, f.Len())

	assert.Equal(t, []string{"01-02 AAPL", "01-02 SPY", "01-03 AAPL", "01-03 MA", "01-03 SPY"}, keys(drain(t, f)))
	assert.Zero(t, f.Len())
}

func TestSliceFeedWindowIsInclusive(t *testing.T) {
	bars := []types.Bar{bar("SPY", 1, 1), bar("SPY", 2, 1), bar("SPY", 3, 1), bar("SPY", 4, 1)}
	f := NewSliceFeed(bars, Window{Start: day(2), End: day(3)})
	assert.Equal(t, []string{"01-02 SPY", "01-03 SPY"}, keys(drain(t, f)))
}

func TestSliceFeedHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewSliceFeed([]types.Bar{bar("SPY", 1, 1)}, Window{}).Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

const spyCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2020-01-02,323.54,324.89,322.53,324.87,316.10,59151200
2020-01-03,321.16,323.64,321.10,322.41,313.70,77709700
2020-01-06,320.49,323.73,320.36,323.64,314.90,55653900
`

const aaplCSV = `Date,Open,High,Low,Close,Volume
2020-01-03,74.29,75.14,74.12,74.36,146322800.0
2020-01-02,74.06,75.15,73.80,75.09,135480400
`

func writeCSV(t *testing.T, dir, ticker, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ticker+".csv"), []byte(body), 0o644))
}

func TestCSVFeed(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SPY", spyCSV)
	writeCSV(t, dir, "AAPL", aaplCSV)

	f, err := NewCSVFeed(dir, []string{"SPY", "AAPL"}, Window{End: day(5)})
	require.NoError(t, err)
	bars := drain(t, f)
	require.NoError(t, f.Close())

	assert.Equal(t, []string{"01-02 AAPL", "01-02 SPY", "01-03 AAPL", "01-03 SPY"}, keys(bars))

	spy := bars[1]
	assert.True(t, spy.Close.Equal(decimal.RequireFromString("324.87")))
	assert.True(t, spy.AdjClose.Equal(decimal.RequireFromString("316.10")))
	assert.Equal(t, int64(59151200), spy.Volume)

	aapl := bars[2]
	assert.True(t, aapl.AdjClose.IsZero())
	assert.True(t, aapl.Price(types.AdjClose).Equal(decimal.RequireFromString("74.36")))
	assert.Equal(t, int64(146322800), aapl.Volume)
}

func TestCSVErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCSVFeed(dir, []string{"MISSING"}, Window{})
	assert.ErrorContains(t, err, "MISSING")

	_, err = ReadCSV(strings.NewReader("Date,Open,High,Low,Close\n"), "X")
	assert.ErrorContains(t, err, "volume")

	_, err = ReadCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\n"), "X")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ReadCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\n2020/01/02,1,1,1,1,1\n"), "X")
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\n2020-01-02,1,abc,1,1,1\n"), "X")
	assert.ErrorContains(t, err, "high")
}

func TestParseTimeLayouts(t *testing.T) {
	for _, s := range []string{"2014-01-02", "2014-01-02T00:00:00.000000-05:00", "2014-01-02 00:00:00"} {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2, got.Day(), s)
	}
}
