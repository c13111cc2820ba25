// Package store persists verification run history, so regressions can be
// traced back to the run where a snapshot first drifted.
package store

// DefaultDBPath is the default relative path for the SQLite DB
// (per-project; Open creates the .snapcheck dir).
const DefaultDBPath = ".snapcheck/snapcheck.db"

// Run results.
const (
	ResultPass     = "pass"
	ResultFail     = "fail"
	ResultRecorded = "recorded"
	ResultSkipped  = "skipped"
)

// Run is one verification run of one test identifier against a fixture.
type Run struct {
	ID           int64
	TestID       string
	FixturePath  string
	Mode         string // verify | record | skip
	Result       string // pass | fail | recorded | skipped
	Mismatches   int
	RecordedDate string // recorded-date of the fixture at run time
	CreatedAt    string
}

// Store is the persistence facade. CLI and MCP layers use only this
// interface; the implementation is SQLite or in-memory.
type Store interface {
	SaveRun(run *Run) (int64, error)
	GetRun(id int64) (*Run, error)
	ListRunsByTest(testID string, limit int) ([]*Run, error)
	ListRecentRuns(limit int) ([]*Run, error)
	Close() error
}
