package store

// Schema versions. The version table lets future builds migrate old run
// databases in place instead of discarding history.
const (
	schemaVersionV1 = 1
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id       TEXT NOT NULL,
	fixture_path  TEXT NOT NULL,
	mode          TEXT NOT NULL,
	result        TEXT NOT NULL,
	mismatches    INTEGER NOT NULL DEFAULT 0,
	recorded_date TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_test_id ON runs(test_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
