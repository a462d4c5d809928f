// Package train drives the environment through the standard episodic loop,
// for training the in-process softmax policy and for evaluating any policy.
package train

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/rustyeddy/alphapulse/env"
	"github.com/rustyeddy/alphapulse/internal/id"
	"github.com/rustyeddy/alphapulse/journal"
	"github.com/rustyeddy/alphapulse/metrics"
	"github.com/rustyeddy/alphapulse/policy"
)

// Trainer runs episodes against one environment and updates a trainable
// softmax policy after each. Journal and Log may be nil-equivalent
// (journal.Nop, discard logger); Env and Policy are required.
type Trainer struct {
	Env     *env.Env
	Policy  *policy.Softmax
	Journal journal.Journal
	Log     *slog.Logger

	// Gamma is the discount factor for episode returns.
	Gamma float64

	// SnapshotEvery controls how often equity snapshots are journaled, in
	// steps. Zero disables snapshots.
	SnapshotEvery int
}

// Run trains for the given number of episodes. Context cancellation stops
// between steps; the partial episode is discarded, finished episodes are
// already journaled.
func (t *Trainer) Run(ctx context.Context, episodes int) error {
	if t.Env == nil || t.Policy == nil {
		return fmt.Errorf("train: trainer requires an environment and a policy")
	}
	jnl := t.Journal
	if jnl == nil {
		jnl = journal.Nop{}
	}
	log := t.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	gamma := t.Gamma
	if gamma <= 0 || gamma > 1 {
		gamma = 0.99
	}

	for ep := 0; ep < episodes; ep++ {
		result, steps, err := t.runEpisode(ctx, jnl)
		if err != nil {
			return fmt.Errorf("train: episode %d: %w", ep, err)
		}

		t.Policy.Update(discountedReturns(steps, gamma))

		log.Info("episode finished",
			"episode", ep,
			"steps", result.Steps,
			"reward", result.Reward,
			"final_equity", result.FinalEquity,
			"reason", result.Reason,
		)
	}
	return nil
}

// runEpisode plays one full episode, journaling as it goes, and returns the
// record plus the raw step rewards for the policy update.
func (t *Trainer) runEpisode(ctx context.Context, jnl journal.Journal) (journal.EpisodeRecord, []stepSample, error) {
	episodeID := id.New()
	obs := t.Env.Reset()

	var (
		samples     []stepSample
		totalReward float64
		stepN       int
		maxDrawdown float64
	)

	for {
		if err := ctx.Err(); err != nil {
			return journal.EpisodeRecord{}, nil, err
		}

		action, err := t.Policy.SelectAction(obs)
		if err != nil {
			return journal.EpisodeRecord{}, nil, err
		}

		next, reward, terminated, truncated, err := t.Env.Step(action)
		if err != nil {
			return journal.EpisodeRecord{}, nil, err
		}
		stepN++
		totalReward += reward

		metrics.StepsTotal.Inc()
		metrics.ActionsTotal.WithLabelValues(action.String()).Inc()

		samples = append(samples, stepSample{obs: obs, action: action, reward: reward})

		if dd := drawdown(t.Env); dd > maxDrawdown {
			maxDrawdown = dd
		}

		if t.SnapshotEvery > 0 && stepN%t.SnapshotEvery == 0 {
			if err := jnl.RecordEquity(journal.EquitySnapshot{
				EpisodeID: episodeID,
				Step:      stepN,
				Balance:   t.Env.Balance(),
				Equity:    t.Env.Equity(),
				MaxEquity: t.Env.MaxEquity(),
			}); err != nil {
				return journal.EpisodeRecord{}, nil, err
			}
		}

		obs = next
		if terminated || truncated {
			break
		}
	}

	record := journal.EpisodeRecord{
		EpisodeID:    episodeID,
		StartIndex:   t.Env.StartIndex(),
		Steps:        stepN,
		Reward:       totalReward,
		FinalBalance: t.Env.Balance(),
		FinalEquity:  t.Env.Equity(),
		MaxDrawdown:  maxDrawdown,
		Reason:       t.Env.Reason(),
	}
	if err := jnl.RecordEpisode(record); err != nil {
		return journal.EpisodeRecord{}, nil, err
	}

	metrics.EpisodesTotal.WithLabelValues(record.Reason).Inc()
	metrics.EpisodeReward.Observe(record.Reward)
	metrics.FinalEquity.Set(record.FinalEquity)

	return record, samples, nil
}

type stepSample struct {
	obs    env.Observation
	action env.Action
	reward float64
}

// discountedReturns converts per-step rewards into reward-to-go returns.
func discountedReturns(samples []stepSample, gamma float64) []policy.Step {
	steps := make([]policy.Step, len(samples))
	g := 0.0
	for i := len(samples) - 1; i >= 0; i-- {
		g = samples[i].reward + gamma*g
		steps[i] = policy.Step{
			Obs:    samples[i].obs,
			Action: samples[i].action,
			Return: g,
		}
	}
	return steps
}

// drawdown is the worse of the daily and overall drawdown at the env's
// current state, mirroring the evaluation script's tracking.
func drawdown(e *env.Env) float64 {
	daily := (e.MaxEquity() - e.Equity()) / e.MaxEquity()
	overall := (e.InitialBalance() - e.Equity()) / e.InitialBalance()
	return math.Max(daily, overall)
}
