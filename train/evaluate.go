package train

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/rustyeddy/alphapulse/env"
	"github.com/rustyeddy/alphapulse/policy"
)

// EpisodeStats summarizes one evaluation episode.
type EpisodeStats struct {
	Episode     int
	Reward      float64
	Steps       int
	PeakProfit  float64 // best (equity-initial)/initial seen during the episode
	MaxDrawdown float64 // worst of daily/overall drawdown seen
	Reason      string
}

// Summary aggregates evaluation episodes.
type Summary struct {
	Episodes []EpisodeStats

	AvgReward      float64
	AvgSteps       float64
	AvgPeakProfit  float64
	AvgMaxDrawdown float64
}

// Evaluate runs the policy for the given number of episodes without any
// learning and returns per-episode and aggregate statistics.
func Evaluate(ctx context.Context, e *env.Env, p policy.Policy, episodes int, log *slog.Logger) (Summary, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var sum Summary
	for ep := 0; ep < episodes; ep++ {
		stats, err := evaluateEpisode(ctx, e, p)
		if err != nil {
			return Summary{}, fmt.Errorf("train: evaluate episode %d: %w", ep, err)
		}
		stats.Episode = ep + 1
		sum.Episodes = append(sum.Episodes, stats)

		log.Info("evaluation episode",
			"episode", stats.Episode,
			"reward", stats.Reward,
			"steps", stats.Steps,
			"peak_profit", stats.PeakProfit,
			"max_drawdown", stats.MaxDrawdown,
			"reason", stats.Reason,
		)
	}

	n := float64(len(sum.Episodes))
	if n > 0 {
		for _, s := range sum.Episodes {
			sum.AvgReward += s.Reward
			sum.AvgSteps += float64(s.Steps)
			sum.AvgPeakProfit += s.PeakProfit
			sum.AvgMaxDrawdown += s.MaxDrawdown
		}
		sum.AvgReward /= n
		sum.AvgSteps /= n
		sum.AvgPeakProfit /= n
		sum.AvgMaxDrawdown /= n
	}
	return sum, nil
}

func evaluateEpisode(ctx context.Context, e *env.Env, p policy.Policy) (EpisodeStats, error) {
	obs := e.Reset()

	// Peak profit is the max over observed steps, not floored at zero: an
	// episode that never recovers its spread reports its true best.
	var stats EpisodeStats
	stats.PeakProfit = math.Inf(-1)
	for {
		if err := ctx.Err(); err != nil {
			return EpisodeStats{}, err
		}

		action, err := p.SelectAction(obs)
		if err != nil {
			return EpisodeStats{}, err
		}

		next, reward, terminated, truncated, err := e.Step(action)
		if err != nil {
			return EpisodeStats{}, err
		}

		stats.Reward += reward
		stats.Steps++

		if profit := (e.Equity() - e.InitialBalance()) / e.InitialBalance(); profit > stats.PeakProfit {
			stats.PeakProfit = profit
		}
		if dd := drawdown(e); dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
		}

		obs = next
		if terminated || truncated {
			stats.Reason = e.Reason()
			return stats, nil
		}
	}
}
