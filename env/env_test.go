package env

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/alphapulse/market"
)

// barsFromCloses builds a bar series with the given closing prices. The
// indicator columns default to a neutral RSI and a zero SMA so a long
// position always counts as trend-aligned unless a test overrides them.
func barsFromCloses(closes ...float64) []market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{
			Time:   base.Add(time.Duration(i) * 15 * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
			SMA:    0,
			RSI:    50,
		}
	}
	return out
}

func flatBars(n int, price float64) []market.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return barsFromCloses(closes...)
}

func testConfig() Config {
	return DefaultConfig()
}

func newTestEnv(t *testing.T, bars []market.Bar, cfg Config, seed int64) *Env {
	t.Helper()
	e, err := New(bars, cfg, rand.New(rand.NewSource(seed)), nil)
	require.NoError(t, err)
	return e
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	t.Run("empty series", func(t *testing.T) {
		_, err := New(nil, testConfig(), nil, nil)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("non-positive initial balance", func(t *testing.T) {
		cfg := testConfig()
		cfg.InitialBalance = 0
		_, err := New(flatBars(10, 1.0), cfg, nil, nil)
		assert.Error(t, err)
	})

	t.Run("episode length clamped to series", func(t *testing.T) {
		cfg := testConfig()
		cfg.EpisodeLength = 500
		e := newTestEnv(t, flatBars(10, 1.0), cfg, 1)
		assert.Equal(t, 10, e.EpisodeLength())
	})
}

func TestResetRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EpisodeLength = 10
	e := newTestEnv(t, flatBars(100, 1.0), cfg, 7)

	// Drive the first episode into a dirty state.
	e.Reset()
	_, _, _, _, err := e.Step(Buy)
	require.NoError(t, err)
	_, _, _, _, err = e.Step(Hold)
	require.NoError(t, err)
	require.Equal(t, Long, e.Position())

	for i := 0; i < 20; i++ {
		e.Reset()
		assert.Equal(t, cfg.InitialBalance, e.Balance())
		assert.Equal(t, cfg.InitialBalance, e.Equity())
		assert.Equal(t, cfg.InitialBalance, e.MaxEquity())
		assert.Equal(t, Flat, e.Position())
		assert.False(t, e.Done())
		assert.Empty(t, e.Reason())
	}
}

func TestHoldOnFlatSeries(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EpisodeLength = 10
	e := newTestEnv(t, flatBars(100, 1.0), cfg, 42)
	e.Reset()

	for step := 1; step <= 10; step++ {
		_, reward, terminated, truncated, err := e.Step(Hold)
		require.NoError(t, err)
		assert.Zero(t, reward, "step %d", step)
		assert.Equal(t, e.Balance(), e.Equity(), "flat equity equals balance")

		if step < 10 {
			assert.False(t, terminated, "step %d", step)
			assert.False(t, truncated, "step %d", step)
		} else {
			assert.True(t, truncated, "episode truncates exactly at step 10")
			assert.Equal(t, ReasonHorizon, e.Reason())
		}
	}
}

func TestBuyOnRisingSeries(t *testing.T) {
	t.Parallel()

	// Price rises 1 unit per bar starting at 1.0. Disable the terminal
	// conditions so the position can ride for the full window.
	closes := make([]float64, 8)
	for i := range closes {
		closes[i] = 1.0 + float64(i)
	}
	cfg := testConfig()
	cfg.EpisodeLength = 8 // equals series length, so the start index is 0
	cfg.ProfitTarget = 1e9
	cfg.DailyDrawdownLimit = 0.99
	cfg.OverallDrawdownLimit = 0.99
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, reward, _, _, err := e.Step(Buy)
	require.NoError(t, err)
	assert.Positive(t, reward) // spread cost is outweighed by the trend bonus
	assert.Equal(t, Long, e.Position())

	prevEquity := e.Equity()
	for i := 0; i < 5; i++ {
		_, reward, terminated, truncated, err := e.Step(Hold)
		require.NoError(t, err)
		assert.Positive(t, reward)
		assert.Greater(t, e.Equity(), prevEquity, "equity strictly increasing")
		prevEquity = e.Equity()
		if terminated || truncated {
			break
		}
	}
}

func TestRedundantEntryKeepsEntryPrice(t *testing.T) {
	t.Parallel()

	closes := []float64{1.0, 1.1, 1.2, 1.3, 1.4, 1.5}
	cfg := testConfig()
	cfg.EpisodeLength = len(closes)
	cfg.ProfitTarget = 1e9
	cfg.DailyDrawdownLimit = 0.99
	cfg.OverallDrawdownLimit = 0.99
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, _, _, _, err := e.Step(Buy)
	require.NoError(t, err)
	entry := e.EntryPrice()

	_, _, _, _, err = e.Step(Buy) // already long: must not re-enter
	require.NoError(t, err)
	assert.Equal(t, entry, e.EntryPrice())
	assert.Equal(t, Long, e.Position())
}

func TestFlipRealizesPosition(t *testing.T) {
	t.Parallel()

	closes := []float64{1.0, 1.0, 1.1, 1.1, 1.1, 1.1}
	cfg := testConfig()
	cfg.EpisodeLength = len(closes)
	cfg.ProfitTarget = 1e9
	cfg.DailyDrawdownLimit = 0.99
	cfg.OverallDrawdownLimit = 0.99
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, _, _, _, err := e.Step(Buy) // long at 1.0 + spread
	require.NoError(t, err)

	// Price moved to 1.1; selling must realize the long's profit into
	// balance before flipping short.
	_, _, _, _, err = e.Step(Sell)
	require.NoError(t, err)
	assert.Equal(t, Short, e.Position())
	assert.Greater(t, e.Balance(), cfg.InitialBalance)
	assert.Equal(t, e.Balance(), e.Equity(), "realized balance equals the marked equity on the flip step")
}

func TestDailyDrawdownTerminates(t *testing.T) {
	t.Parallel()

	// Long at ~1.0, then a 6% equity drop in one bar with a 5% daily limit.
	closes := []float64{1.0, 1.0, 0.94, 0.94, 0.94}
	cfg := testConfig() // daily 5%, overall 10%
	cfg.EpisodeLength = len(closes)
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, _, _, _, err := e.Step(Buy)
	require.NoError(t, err)

	_, reward, terminated, _, err := e.Step(Hold)
	require.NoError(t, err)
	assert.True(t, terminated)
	assert.Equal(t, ReasonDailyDrawdown, e.Reason())
	assert.Less(t, reward, -cfg.TerminalReward/2, "terminal penalty dominates the step reward")
}

func TestOverallDrawdownTerminates(t *testing.T) {
	t.Parallel()

	// An 11% loss breaches the overall limit. It also breaches the daily
	// limit; the fixed evaluation order reports the daily reason first and
	// both penalties apply cumulatively.
	closes := []float64{1.0, 1.0, 0.89, 0.89}
	cfg := testConfig()
	cfg.EpisodeLength = len(closes)
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, _, _, _, err := e.Step(Buy)
	require.NoError(t, err)

	_, reward, terminated, _, err := e.Step(Hold)
	require.NoError(t, err)
	assert.True(t, terminated)
	assert.Equal(t, ReasonDailyDrawdown, e.Reason())
	assert.Less(t, reward, -2*cfg.TerminalReward+100, "both drawdown penalties fire")
}

func TestProfitTargetTerminates(t *testing.T) {
	t.Parallel()

	// +9% unrealized profit against the default 8% target.
	closes := []float64{1.0, 1.0, 1.09, 1.09}
	cfg := testConfig()
	cfg.EpisodeLength = len(closes)
	e := newTestEnv(t, barsFromCloses(closes...), cfg, 1)
	e.Reset()

	_, _, _, _, err := e.Step(Buy)
	require.NoError(t, err)

	_, reward, terminated, _, err := e.Step(Hold)
	require.NoError(t, err)
	assert.True(t, terminated)
	assert.Equal(t, ReasonProfitTarget, e.Reason())
	assert.Greater(t, reward, cfg.TerminalReward/2, "terminal bonus dominates the step reward")
}

func TestSingleBarSeries(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, flatBars(1, 1.0), testConfig(), 1)
	e.Reset()

	// The lone bar leaves no room to advance: the first step truncates
	// without moving the cursor.
	obs, reward, terminated, truncated, err := e.Step(Hold)
	require.NoError(t, err)
	assert.True(t, terminated)
	assert.True(t, truncated)
	assert.Zero(t, reward)
	assert.Equal(t, 0, e.Cursor())
	assert.Equal(t, ReasonHorizon, e.Reason())
	assert.Equal(t, 1.0, obs[3])

	// And it stays a no-op afterwards.
	_, reward, terminated, _, err = e.Step(Buy)
	require.NoError(t, err)
	assert.Zero(t, reward)
	assert.True(t, terminated)
	assert.Equal(t, Flat, e.Position())
}

func TestStepAfterDoneIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EpisodeLength = 3
	e := newTestEnv(t, flatBars(3, 1.0), cfg, 1)
	e.Reset()

	var lastObs Observation
	for {
		obs, _, terminated, truncated, err := e.Step(Hold)
		require.NoError(t, err)
		lastObs = obs
		if terminated || truncated {
			break
		}
	}

	balance, equity, cursor := e.Balance(), e.Equity(), e.Cursor()
	for i := 0; i < 5; i++ {
		obs, reward, terminated, truncated, err := e.Step(Buy)
		require.NoError(t, err)
		assert.Equal(t, lastObs, obs)
		assert.Zero(t, reward)
		assert.True(t, terminated)
		assert.False(t, truncated)
		assert.Equal(t, balance, e.Balance())
		assert.Equal(t, equity, e.Equity())
		assert.Equal(t, cursor, e.Cursor())
		assert.Equal(t, Flat, e.Position(), "post-terminal buy must not open a position")
	}
}

func TestInvalidActionFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EpisodeLength = 10
	e := newTestEnv(t, flatBars(100, 1.0), cfg, 1)
	e.Reset()

	cursor := e.Cursor()
	_, _, _, _, err := e.Step(Action(7))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, cursor, e.Cursor(), "invalid action must not advance the cursor")

	_, _, _, _, err = e.Step(Action(-1))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestResetStartIndexDistribution(t *testing.T) {
	t.Parallel()

	const (
		numBars = 100
		epLen   = 10
		resets  = 9000
	)
	cfg := testConfig()
	cfg.EpisodeLength = epLen
	e := newTestEnv(t, flatBars(numBars, 1.0), cfg, 12345)

	span := numBars - epLen // 90
	counts := make([]int, span)
	for i := 0; i < resets; i++ {
		e.Reset()
		start := e.StartIndex()
		require.GreaterOrEqual(t, start, 0)
		require.Less(t, start, span)
		counts[start]++
	}

	// Uniform expectation is resets/span = 100 per index; allow a generous
	// band for sampling noise with the fixed seed.
	expected := float64(resets) / float64(span)
	for i, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.6, "start index %d", i)
	}
}

func TestInvariantsUnderRandomActions(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EpisodeLength = 50
	e := newTestEnv(t, flatBars(500, 1.0), cfg, 99)
	rng := rand.New(rand.NewSource(4))

	for episode := 0; episode < 10; episode++ {
		e.Reset()
		maxEquity := e.MaxEquity()
		for {
			_, _, terminated, truncated, err := e.Step(Action(rng.Intn(NumActions)))
			require.NoError(t, err)

			pos := e.Position()
			assert.Contains(t, []Position{Flat, Long, Short}, pos)
			if pos == Flat {
				assert.Equal(t, e.Balance(), e.Equity())
			}

			assert.GreaterOrEqual(t, e.MaxEquity(), maxEquity, "max equity is non-decreasing")
			assert.GreaterOrEqual(t, e.MaxEquity(), cfg.InitialBalance)
			maxEquity = e.MaxEquity()

			assert.GreaterOrEqual(t, e.Cursor(), 0)
			assert.Less(t, e.Cursor(), e.Len())

			if terminated || truncated {
				break
			}
		}
	}
}

func TestObservationContract(t *testing.T) {
	t.Parallel()

	bars := flatBars(20, 1.2345)
	bars[0].SMA = 1.11
	bars[0].RSI = 61.5
	bars[0].Volume = 777

	cfg := testConfig()
	cfg.EpisodeLength = 20 // pins the start index to 0
	e := newTestEnv(t, bars, cfg, 1)

	obs := e.Reset()
	assert.Equal(t, Observation{1.2345, 1.2345, 1.2345, 1.2345, 777, 1.11, 61.5}, obs)
}
