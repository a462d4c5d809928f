package policy

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/alphapulse/env"
)

func testObs() env.Observation {
	return env.Observation{1.085, 1.086, 1.084, 1.0855, 120, 1.0851, 55.2}
}

func TestRandomPolicyBounds(t *testing.T) {
	t.Parallel()

	p := NewRandom(rand.New(rand.NewSource(1)))
	seen := map[env.Action]bool{}
	for i := 0; i < 1000; i++ {
		a, err := p.SelectAction(testObs())
		require.NoError(t, err)
		require.GreaterOrEqual(t, int(a), 0)
		require.Less(t, int(a), env.NumActions)
		seen[a] = true
	}
	assert.Len(t, seen, env.NumActions, "all actions reachable")
}

func TestSoftmaxDistribution(t *testing.T) {
	t.Parallel()

	p := NewSoftmax(0.001, rand.New(rand.NewSource(7)))
	pr := p.probs(features(testObs()))

	sum := 0.0
	for _, v := range pr {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestSoftmaxSelectActionInRange(t *testing.T) {
	t.Parallel()

	p := NewSoftmax(0.001, rand.New(rand.NewSource(7)))
	for i := 0; i < 100; i++ {
		a, err := p.SelectAction(testObs())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(a), 0)
		assert.Less(t, int(a), env.NumActions)
	}
}

func TestSoftmaxGreedyMatchesProbs(t *testing.T) {
	t.Parallel()

	p := NewSoftmax(0.001, rand.New(rand.NewSource(7)))
	pr := p.probs(features(testObs()))
	best := p.Greedy(testObs())
	for a := 0; a < env.NumActions; a++ {
		assert.GreaterOrEqual(t, pr[best], pr[a])
	}
}

func TestSoftmaxUpdateShiftsProbability(t *testing.T) {
	t.Parallel()

	p := NewSoftmax(0.05, rand.New(rand.NewSource(3)))
	obs := testObs()
	before := p.probs(features(obs))[env.Buy]

	// Reinforce Buy with a high return against Sell with a low one; the Buy
	// probability must rise.
	steps := []Step{
		{Obs: obs, Action: env.Buy, Return: 100},
		{Obs: obs, Action: env.Sell, Return: -100},
	}
	for i := 0; i < 50; i++ {
		p.Update(steps)
	}

	after := p.probs(features(obs))[env.Buy]
	assert.Greater(t, after, before)
	assert.Equal(t, env.Buy, p.Greedy(obs))
}

func TestSoftmaxUpdateHandlesDegenerateReturns(t *testing.T) {
	t.Parallel()

	p := NewSoftmax(0.05, rand.New(rand.NewSource(3)))
	obs := testObs()

	// Constant returns: the normalized advantage is zero everywhere, the
	// update must not produce NaN weights.
	p.Update([]Step{
		{Obs: obs, Action: env.Hold, Return: 5},
		{Obs: obs, Action: env.Hold, Return: 5},
	})
	p.Update(nil)

	for a := range p.W {
		for j := range p.W[a] {
			assert.False(t, math.IsNaN(p.W[a][j]))
		}
	}
}

func TestSoftmaxSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.json")

	p := NewSoftmax(0.0003, rand.New(rand.NewSource(11)))
	require.NoError(t, p.SaveFile(path))

	loaded, err := LoadSoftmax(path, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	assert.Equal(t, p.W, loaded.W)
	assert.Equal(t, p.LR, loaded.LR)

	obs := testObs()
	assert.Equal(t, p.Greedy(obs), loaded.Greedy(obs))
}

func TestLoadSoftmaxMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSoftmax(filepath.Join(t.TempDir(), "nope.json"), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
