package journal

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id TEXT PRIMARY KEY,
	start_index INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	reward REAL NOT NULL,
	final_balance REAL NOT NULL,
	final_equity REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	reason TEXT NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	episode_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	max_equity REAL NOT NULL,
	PRIMARY KEY (episode_id, step)
);

CREATE INDEX IF NOT EXISTS idx_episodes_recorded_at ON episodes(recorded_at);
`
