package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/rustyeddy/alphapulse/env"
)

// featureDim is the observation size plus a bias term.
const featureDim = env.ObservationSize + 1

// Step is one (observation, action, return) triple from a finished episode,
// used by Update.
type Step struct {
	Obs    env.Observation
	Action env.Action
	Return float64 // discounted return from this step onward
}

// Softmax is a linear softmax policy over normalized observation features,
// trained with a REINFORCE-style gradient on episode returns. It is the
// commodity optimizer of the pipeline, small enough to train in-process.
type Softmax struct {
	W  [env.NumActions][featureDim]float64 `json:"w"`
	LR float64                             `json:"lr"`

	rng *rand.Rand
}

// NewSoftmax creates a softmax policy with small random initial weights.
func NewSoftmax(lr float64, rng *rand.Rand) *Softmax {
	p := &Softmax{LR: lr, rng: rng}
	for a := range p.W {
		for j := range p.W[a] {
			p.W[a][j] = rng.NormFloat64() * 0.01
		}
	}
	return p
}

// features normalizes an observation into the policy's input space. Prices
// are near 1.0 already for EURUSD; volume and RSI are rescaled to the same
// order of magnitude, and a constant bias is appended.
func features(obs env.Observation) [featureDim]float64 {
	return [featureDim]float64{
		obs[0],          // open
		obs[1],          // high
		obs[2],          // low
		obs[3],          // close
		obs[4] * 1e-4,   // volume
		obs[5],          // sma
		obs[6] * 1e-2,   // rsi in [0,1]
		1,               // bias
	}
}

// probs returns the softmax action distribution for features x.
func (p *Softmax) probs(x [featureDim]float64) [env.NumActions]float64 {
	var z [env.NumActions]float64
	maxZ := math.Inf(-1)
	for a := 0; a < env.NumActions; a++ {
		for j := 0; j < featureDim; j++ {
			z[a] += p.W[a][j] * x[j]
		}
		if z[a] > maxZ {
			maxZ = z[a]
		}
	}

	var sum float64
	var out [env.NumActions]float64
	for a := range z {
		out[a] = math.Exp(z[a] - maxZ)
		sum += out[a]
	}
	for a := range out {
		out[a] /= sum
	}
	return out
}

// SelectAction samples an action from the policy distribution.
func (p *Softmax) SelectAction(obs env.Observation) (env.Action, error) {
	pr := p.probs(features(obs))
	u := p.rng.Float64()
	acc := 0.0
	for a := 0; a < env.NumActions; a++ {
		acc += pr[a]
		if u < acc {
			return env.Action(a), nil
		}
	}
	return env.Action(env.NumActions - 1), nil
}

// Greedy returns the highest-probability action, for deterministic
// evaluation of a trained policy.
func (p *Softmax) Greedy(obs env.Observation) env.Action {
	pr := p.probs(features(obs))
	best := 0
	for a := 1; a < env.NumActions; a++ {
		if pr[a] > pr[best] {
			best = a
		}
	}
	return env.Action(best)
}

// Update applies one REINFORCE gradient step over a finished episode's
// steps. Returns are normalized (mean 0, unit variance) as a variance
// baseline before the gradient is taken.
func (p *Softmax) Update(steps []Step) {
	if len(steps) == 0 {
		return
	}

	mean := 0.0
	for _, s := range steps {
		mean += s.Return
	}
	mean /= float64(len(steps))

	variance := 0.0
	for _, s := range steps {
		d := s.Return - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(steps)))
	if std < 1e-8 {
		std = 1
	}

	for _, s := range steps {
		g := (s.Return - mean) / std
		x := features(s.Obs)
		pr := p.probs(x)

		// grad log pi(a|x) = (1{a} - pi) * x
		for a := 0; a < env.NumActions; a++ {
			ind := 0.0
			if env.Action(a) == s.Action {
				ind = 1.0
			}
			coeff := p.LR * g * (ind - pr[a])
			for j := 0; j < featureDim; j++ {
				p.W[a][j] += coeff * x[j]
			}
		}
	}
}

// SaveFile writes the policy weights as JSON.
func (p *Softmax) SaveFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("policy: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("policy: write %s: %w", path, err)
	}
	return nil
}

// LoadSoftmax reads policy weights saved by SaveFile. The returned policy
// samples with the provided rng.
func LoadSoftmax(path string, rng *rand.Rand) (*Softmax, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	p := &Softmax{rng: rng}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	if p.LR <= 0 {
		p.LR = 1e-3
	}
	return p, nil
}
