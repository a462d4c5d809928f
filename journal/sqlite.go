package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Journal backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the journal database at path and applies the
// schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordEpisode(r EpisodeRecord) error {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT INTO episodes
		(episode_id, start_index, steps, reward, final_balance, final_equity, max_drawdown, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.EpisodeID, r.StartIndex, r.Steps, r.Reward,
		r.FinalBalance, r.FinalEquity, r.MaxDrawdown, r.Reason, r.RecordedAt,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(episode_id, step, balance, equity, max_equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.EpisodeID, e.Step, e.Balance, e.Equity, e.MaxEquity,
	)
	return err
}

// ListEpisodes returns episode records ordered by ID (ULIDs sort by time).
func (j *SQLite) ListEpisodes() ([]EpisodeRecord, error) {
	rows, err := j.db.Query(`
		SELECT episode_id, start_index, steps, reward, final_balance, final_equity, max_drawdown, reason, recorded_at
		FROM episodes ORDER BY episode_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeRecord
	for rows.Next() {
		var r EpisodeRecord
		if err := rows.Scan(&r.EpisodeID, &r.StartIndex, &r.Steps, &r.Reward,
			&r.FinalBalance, &r.FinalEquity, &r.MaxDrawdown, &r.Reason, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
