package store

const schema = `
CREATE TABLE IF NOT EXISTS candles_m15 (
	instrument TEXT NOT NULL,
	ts DATETIME NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (instrument, ts)
);

CREATE INDEX IF NOT EXISTS idx_candles_m15_ts ON candles_m15(ts);
`
