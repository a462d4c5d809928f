// Package metrics exposes Prometheus metrics for the training loop. They are
// registered in init() and served by the HTTP handler the train command
// starts at /metrics when a listen address is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EpisodesTotal counts finished episodes by end reason
	// (daily_drawdown, overall_drawdown, profit_target, horizon).
	EpisodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphapulse_episodes_total",
			Help: "Episodes finished, by end reason",
		},
		[]string{"reason"},
	)

	// StepsTotal counts environment steps taken.
	StepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphapulse_steps_total",
			Help: "Environment steps taken",
		},
	)

	// EpisodeReward observes cumulative reward per episode.
	EpisodeReward = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alphapulse_episode_reward",
			Help:    "Cumulative shaped reward per episode",
			Buckets: prometheus.LinearBuckets(-2000, 500, 10),
		},
	)

	// FinalEquity is the equity at the end of the last finished episode.
	FinalEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alphapulse_final_equity",
			Help: "Equity at the end of the last episode",
		},
	)

	// ActionsTotal counts actions chosen by the policy.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphapulse_actions_total",
			Help: "Actions chosen by the policy",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		EpisodesTotal,
		StepsTotal,
		EpisodeReward,
		FinalEquity,
		ActionsTotal,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
