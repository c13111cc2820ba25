package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .snapcheck) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create v1 schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run row and returns its id.
func (s *SqlStore) SaveRun(run *Run) (int64, error) {
	if run == nil {
		return 0, errors.New("run is nil")
	}
	createdAt := run.CreatedAt
	if createdAt == "" {
		createdAt = nowUTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs(test_id, fixture_path, mode, result, mismatches, recorded_date, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		run.TestID, run.FixturePath, run.Mode, run.Result, run.Mismatches, run.RecordedDate, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetRun returns the run by id, or nil if not found.
func (s *SqlStore) GetRun(id int64) (*Run, error) {
	var r Run
	var recDate sql.NullString
	err := s.db.QueryRow(
		`SELECT id, test_id, fixture_path, mode, result, mismatches, recorded_date, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.TestID, &r.FixturePath, &r.Mode, &r.Result, &r.Mismatches, &recDate, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.RecordedDate = nullStr(recDate)
	return &r, nil
}

// ListRunsByTest returns runs for one test identifier, newest first.
// limit <= 0 means no limit.
func (s *SqlStore) ListRunsByTest(testID string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, test_id, fixture_path, mode, result, mismatches, recorded_date, created_at
		 FROM runs WHERE test_id = ? ORDER BY id DESC LIMIT ?`, testID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ListRecentRuns returns the newest runs across all tests.
func (s *SqlStore) ListRecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, test_id, fixture_path, mode, result, mismatches, recorded_date, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var list []*Run
	for rows.Next() {
		var r Run
		var recDate sql.NullString
		if err := rows.Scan(&r.ID, &r.TestID, &r.FixturePath, &r.Mode, &r.Result,
			&r.Mismatches, &recDate, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.RecordedDate = nullStr(recDate)
		list = append(list, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return list, nil
}
