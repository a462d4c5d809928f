// Package journal records training episodes and their equity curves so runs
// can be inspected after the fact.
package journal

import "time"

// EpisodeRecord summarizes one finished episode.
type EpisodeRecord struct {
	EpisodeID    string // ULID, time-sortable
	StartIndex   int    // window start into the bar series
	Steps        int
	Reward       float64 // cumulative shaped reward
	FinalBalance float64
	FinalEquity  float64
	MaxDrawdown  float64 // worst of daily/overall drawdown seen in the episode
	Reason       string  // env end reason
	RecordedAt   time.Time
}

// EquitySnapshot is one point of an episode's equity curve.
type EquitySnapshot struct {
	EpisodeID string
	Step      int
	Balance   float64
	Equity    float64
	MaxEquity float64
}

// Journal persists episode records and equity snapshots.
type Journal interface {
	RecordEpisode(EpisodeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop is a Journal that discards everything.
type Nop struct{}

func (Nop) RecordEpisode(EpisodeRecord) error { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
