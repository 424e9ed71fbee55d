package strategy

import (
	"testing"
	"time"

	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/testutils"
	"github.com/evdnx/gosig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
First bar per ticker enters long, every later bar is a no-op, and each
ticker is tracked on its own.
*/
func TestBuyAndHold_EntersOncePerTicker(t *testing.T) {
	sink := testutils.NewMockSink()
	s, err := NewBuyAndHold([]string{"SPY", "MA"}, nil, sink, testutils.NewMockLogger())
	require.NoError(t, err)
	p := testutils.NewMockPortfolio(10_000)

	start := day(2020, time.January, 2)
	feedBars(t, s, p, "SPY", start, []candle{{10, 9, 9.5}, {11, 10, 10.5}, {12, 11, 11.5}})
	feedBars(t, s, p, "MA", start, []candle{{20, 19, 19.5}, {21, 20, 20.5}})
	feedBars(t, s, p, "UNKNOWN", start, []candle{{1, 1, 1}})

	sigs := sink.Signals()
	require.Len(t, sigs, 2)
	assert.Equal(t, "SPY", sigs[0].Ticker)
	assert.Equal(t, "MA", sigs[1].Ticker)
	for _, sig := range sigs {
		assert.Equal(t, types.EnterLong, sig.Action)
		assert.Equal(t, NameBuyAndHold, sig.Strategy)
		assert.Equal(t, start, sig.Time)
		assert.Zero(t, sig.SuggestedQuantity, "no sizer leaves the signal unsized")
	}
}

func TestBuyAndHold_SizesWithFixedSizer(t *testing.T) {
	sink := testutils.NewMockSink()
	s, err := NewBuyAndHold([]string{"KEYS"}, sizer.NewFixed(), sink, nil)
	require.NoError(t, err)
	p := testutils.NewMockPortfolio(10_000).SetPrice("KEYS", 80)

	feedBars(t, s, p, "KEYS", day(2019, time.January, 2), []candle{{81, 79, 80}})

	sigs := sink.Signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, int64(125), sigs[0].SuggestedQuantity)
}

/*
A failed sizing call is reported and the signal dropped, but the ticker
still counts as handled so the run can carry on.
*/
func TestBuyAndHold_SizingFailureIsReturned(t *testing.T) {
	sink := testutils.NewMockSink()
	log := testutils.NewMockLogger()
	s, err := NewBuyAndHold([]string{"KEYS"}, sizer.NewFixed(), sink, log)
	require.NoError(t, err)
	p := testutils.NewMockPortfolio(10_000) // no price recorded

	err = s.CalculateSignals(mkBar("KEYS", day(2019, time.January, 2), candle{81, 79, 80}), p)
	require.ErrorIs(t, err, sizer.ErrNoPrice)
	assert.Empty(t, sink.Signals())
	assert.Equal(t, 1, log.Count("warn"))

	require.NoError(t, s.CalculateSignals(mkBar("KEYS", day(2019, time.January, 3), candle{81, 79, 80}), p))
	assert.Empty(t, sink.Signals())
}
