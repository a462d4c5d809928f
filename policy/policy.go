// Package policy contains the decision-makers that drive the environment:
// a uniform-random baseline, a trainable linear softmax policy, and an
// inference-only wrapper for networks exported to ONNX.
package policy

import (
	"math/rand"

	"github.com/rustyeddy/alphapulse/env"
)

// Policy selects an action for an observation. Implementations must be
// deterministic given their internal RNG state so seeded runs reproduce.
type Policy interface {
	SelectAction(obs env.Observation) (env.Action, error)
}

// Random samples actions uniformly. It is the baseline the original
// environment self-test used and a sanity floor for evaluation.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random policy over the injected source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (p *Random) SelectAction(env.Observation) (env.Action, error) {
	return env.Action(p.rng.Intn(env.NumActions)), nil
}
