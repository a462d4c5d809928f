package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/alphapulse/internal/id"
)

func sampleEpisode(episodeID string) EpisodeRecord {
	return EpisodeRecord{
		EpisodeID:    episodeID,
		StartIndex:   42,
		Steps:        2880,
		Reward:       -153.5,
		FinalBalance: 9846.5,
		FinalEquity:  9846.5,
		MaxDrawdown:  0.0154,
		Reason:       "horizon",
		RecordedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteJournal(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	first, second := id.New(), id.New()
	require.NoError(t, j.RecordEpisode(sampleEpisode(first)))
	require.NoError(t, j.RecordEpisode(sampleEpisode(second)))

	require.NoError(t, j.RecordEquity(EquitySnapshot{
		EpisodeID: first, Step: 10, Balance: 10000, Equity: 10012.5, MaxEquity: 10012.5,
	}))

	episodes, err := j.ListEpisodes()
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	// ULIDs sort by creation time.
	assert.Equal(t, first, episodes[0].EpisodeID)
	assert.Equal(t, second, episodes[1].EpisodeID)

	got := episodes[0]
	want := sampleEpisode(first)
	assert.Equal(t, want.StartIndex, got.StartIndex)
	assert.Equal(t, want.Steps, got.Steps)
	assert.Equal(t, want.Reward, got.Reward)
	assert.Equal(t, want.FinalBalance, got.FinalBalance)
	assert.Equal(t, want.MaxDrawdown, got.MaxDrawdown)
	assert.Equal(t, want.Reason, got.Reason)
	assert.True(t, want.RecordedAt.Equal(got.RecordedAt))
}

func TestSQLiteJournalFillsRecordedAt(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	r := sampleEpisode(id.New())
	r.RecordedAt = time.Time{}
	require.NoError(t, j.RecordEpisode(r))

	episodes, err := j.ListEpisodes()
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.False(t, episodes[0].RecordedAt.IsZero())
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	episodesPath := filepath.Join(dir, "episodes.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(episodesPath, equityPath)
	require.NoError(t, err)

	episodeID := id.New()
	require.NoError(t, j.RecordEpisode(sampleEpisode(episodeID)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		EpisodeID: episodeID, Step: 1, Balance: 10000, Equity: 10000, MaxEquity: 10000,
	}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		EpisodeID: episodeID, Step: 2, Balance: 10000, Equity: 10015, MaxEquity: 10015,
	}))
	require.NoError(t, j.Close())

	episodes, err := os.ReadFile(episodesPath)
	require.NoError(t, err)
	epLines := strings.Split(strings.TrimSpace(string(episodes)), "\n")
	require.Len(t, epLines, 2)
	assert.Equal(t, "episode_id,start_index,steps,reward,final_balance,final_equity,max_drawdown,reason,recorded_at", epLines[0])
	assert.Contains(t, epLines[1], episodeID)
	assert.Contains(t, epLines[1], "horizon")

	equity, err := os.ReadFile(equityPath)
	require.NoError(t, err)
	eqLines := strings.Split(strings.TrimSpace(string(equity)), "\n")
	require.Len(t, eqLines, 3)
	assert.Equal(t, "episode_id,step,balance,equity,max_equity", eqLines[0])
	assert.Contains(t, eqLines[2], "10015")
}

func TestNopJournal(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.RecordEpisode(EpisodeRecord{}))
	assert.NoError(t, j.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, j.Close())
}
