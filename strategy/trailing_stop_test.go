package strategy

import (
	"testing"
	"time"

	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/testutils"
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTrailing(t *testing.T, risk string, sz sizer.Sizer) (*TrailingStop, *testutils.MockSink) {
	t.Helper()
	sink := testutils.NewMockSink()
	s, err := NewTrailingStop([]string{"SPY", "AAPL"}, decimal.RequireFromString(risk), sz, sink, testutils.NewMockLogger())
	require.NoError(t, err)
	return s, sink
}

/*
Highs 10, 12, 15, 11 with lows 9, 10, 11, 9 and a 10 % stop.

	bar 0: new high 10 -> enter (the 9 <= 9 stop test is not evaluated on the entry bar)
	bar 1: high 12, stop 10.8, low 10 -> STOP_LOSS
	bar 2: new high 15 while flat -> enter
	bar 3: stop 13.5, low 9 -> STOP_LOSS
*/
func TestTrailingStop_FiresOnFirstBreach(t *testing.T) {
	s, sink := buildTrailing(t, "0.1", nil)
	p := testutils.NewMockPortfolio(10_000)
	start := day(2017, time.January, 2)

	feedBars(t, s, p, "SPY", start, []candle{{10, 9, 0}, {12, 10, 0}, {15, 11, 0}, {11, 9, 0}})

	sigs := sink.Signals()
	require.Len(t, sigs, 4)
	want := []struct {
		action types.Action
		bar    int
	}{
		{types.EnterLong, 0},
		{types.StopLoss, 1},
		{types.EnterLong, 2},
		{types.StopLoss, 3},
	}
	for i, w := range want {
		assert.Equal(t, w.action, sigs[i].Action, "signal %d", i)
		assert.Equal(t, w.bar, barIndex(start, sigs[i]), "signal %d", i)
	}
}

func TestTrailingStop_DoesNotFireBeforeThreshold(t *testing.T) {
	s, sink := buildTrailing(t, "0.1", nil)
	p := testutils.NewMockPortfolio(10_000)
	start := day(2017, time.January, 2)

	// running high 20 -> stop at 18; lows stay above until the last bar
	feedBars(t, s, p, "AAPL", start, []candle{{20, 19, 0}, {19.5, 18.5, 0}, {19, 18.01, 0}, {18.5, 18, 0}})

	assert.Equal(t, []types.Action{types.EnterLong, types.StopLoss}, sink.Actions())
	assert.Equal(t, 3, barIndex(start, sink.Signals()[1]))

	level, ok := s.StopLevel("AAPL")
	require.True(t, ok)
	assert.True(t, level.Equal(decimal.NewFromInt(18)), "stop level %s", level)
}

/*
Re-entry needs a bar whose high equals the running high, so a recovery
that does not reach the old peak stays flat.
*/
func TestTrailingStop_ReentryRequiresNewHigh(t *testing.T) {
	s, sink := buildTrailing(t, "0.2", nil)
	p := testutils.NewMockPortfolio(10_000)

	feedBars(t, s, p, "SPY", day(2018, time.March, 1), []candle{{100, 95, 0}, {90, 70, 0}, {99, 90, 0}, {100, 98, 0}})

	assert.Equal(t, []types.Action{types.EnterLong, types.StopLoss, types.EnterLong}, sink.Actions())
}

func TestTrailingStop_SizedThroughWeightSizer(t *testing.T) {
	table := types.NewWeightTable(map[string]float64{"SPY": 0.5, "AAPL": 0.5})
	s, sink := buildTrailing(t, "0.1", sizer.NewWeight(table))
	p := testutils.NewMockPortfolio(10_000).SetPrice("SPY", 100).SetPrice("AAPL", 50)

	feedBars(t, s, p, "SPY", day(2017, time.January, 2), []candle{{100, 99, 100}})
	p.SetPosition("SPY", 50)
	feedBars(t, s, p, "SPY", day(2017, time.January, 3), []candle{{95, 89, 90}})

	sigs := sink.Signals()
	require.Len(t, sigs, 2)
	assert.Equal(t, int64(50), sigs[0].SuggestedQuantity) // 10000 * 0.5 / 100
	assert.Equal(t, types.Sld, sigs[1].Action)
	assert.Equal(t, int64(50), sigs[1].SuggestedQuantity)
}

func TestTrailingStop_RejectsBadRisk(t *testing.T) {
	for _, r := range []string{"0", "-0.1", "1", "1.5"} {
		_, err := NewTrailingStop([]string{"SPY"}, decimal.RequireFromString(r), nil, testutils.NewMockSink(), nil)
		assert.ErrorIs(t, err, ErrInvalidRisk, r)
	}
}
