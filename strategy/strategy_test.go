package strategy

import (
	"testing"

	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	params := Params{
		Tickers:      []string{"SPY", "AAPL"},
		RiskPct:      decimal.RequireFromString("0.1"),
		BaseQuantity: 10,
	}
	sz := sizer.NewNaive(5)
	sink := testutils.NewMockSink()

	cases := map[string]string{
		"buy_and_hold":                NameBuyAndHold,
		"trailing_stop":               NameTrailingStop,
		"buy_and_hold_stop_loss":      NameTrailingStop,
		"Breakout":                    NameBreakout,
		"tortuga":                     NameBreakout,
		"monthly_liquidate_rebalance": NameMonthlyLiquidateRebalance,
		"monthly_rebalance":           NameMonthlyRebalance,
		" stop_loss_rebalance ":       NameStopLossRebalance,
	}
	for in, want := range cases {
		s, err := Build(in, params, sz, sink, nil)
		require.NoError(t, err, in)
		assert.Equal(t, want, s.Name(), in)
	}

	_, err := Build("martingale", params, sz, sink, nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestBuild_Validation(t *testing.T) {
	sz := sizer.NewNaive(5)
	_, err := Build(NameBuyAndHold, Params{}, sz, testutils.NewMockSink(), nil)
	assert.ErrorIs(t, err, ErrNoTickers)

	_, err = Build(NameBuyAndHold, Params{Tickers: []string{"SPY"}}, sz, nil, nil)
	assert.ErrorIs(t, err, ErrNilSink)

	_, err = Build(NameTrailingStop, Params{Tickers: []string{"SPY"}}, sz, testutils.NewMockSink(), nil)
	assert.ErrorIs(t, err, ErrInvalidRisk)
}

func TestTickerBook(t *testing.T) {
	b, err := newTickerBook([]string{"SPY", "", "AAPL", "SPY"}, func(t string) int { return len(t) })
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "AAPL"}, b.tickers())

	spy, ok := b.get("SPY")
	require.True(t, ok)
	*spy = 42
	again, _ := b.get("SPY")
	assert.Equal(t, 42, *again)

	aapl, _ := b.get("AAPL")
	assert.Equal(t, 4, *aapl, "records are independent")

	_, ok = b.get("MSFT")
	assert.False(t, ok)

	_, err = newTickerBook(nil, func(string) int { return 0 })
	assert.ErrorIs(t, err, ErrNoTickers)
}
