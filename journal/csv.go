package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSV is a Journal that appends to two CSV files: one for episode summaries,
// one for equity snapshots. Handy for quick plotting without SQL.
type CSV struct {
	episodesFile *os.File
	equityFile   *os.File
	episodes     *csv.Writer
	equity       *csv.Writer
}

// NewCSV creates (truncating) the two output files and writes headers.
func NewCSV(episodesPath, equityPath string) (*CSV, error) {
	ef, err := os.Create(episodesPath)
	if err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", episodesPath, err)
	}
	qf, err := os.Create(equityPath)
	if err != nil {
		ef.Close()
		return nil, fmt.Errorf("journal: create %s: %w", equityPath, err)
	}

	j := &CSV{
		episodesFile: ef,
		equityFile:   qf,
		episodes:     csv.NewWriter(ef),
		equity:       csv.NewWriter(qf),
	}

	if err := j.episodes.Write([]string{
		"episode_id", "start_index", "steps", "reward",
		"final_balance", "final_equity", "max_drawdown", "reason", "recorded_at",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.equity.Write([]string{
		"episode_id", "step", "balance", "equity", "max_equity",
	}); err != nil {
		j.Close()
		return nil, err
	}
	j.episodes.Flush()
	j.equity.Flush()
	return j, nil
}

func (j *CSV) RecordEpisode(r EpisodeRecord) error {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	err := j.episodes.Write([]string{
		r.EpisodeID,
		strconv.Itoa(r.StartIndex),
		strconv.Itoa(r.Steps),
		formatFloat(r.Reward),
		formatFloat(r.FinalBalance),
		formatFloat(r.FinalEquity),
		formatFloat(r.MaxDrawdown),
		r.Reason,
		r.RecordedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.episodes.Flush()
	return j.episodes.Error()
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.EpisodeID,
		strconv.Itoa(e.Step),
		formatFloat(e.Balance),
		formatFloat(e.Equity),
		formatFloat(e.MaxEquity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.episodes.Flush()
	j.equity.Flush()
	err1 := j.episodesFile.Close()
	err2 := j.equityFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
