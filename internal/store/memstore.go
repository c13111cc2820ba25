package store

import (
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	runs   []*Run
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (m *MemStore) SaveRun(run *Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	cp.ID = m.nextID
	if cp.CreatedAt == "" {
		cp.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.nextID++
	m.runs = append(m.runs, &cp)
	return cp.ID, nil
}

func (m *MemStore) GetRun(id int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ListRunsByTest(testID string, limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].TestID != testID {
			continue
		}
		cp := *m.runs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) ListRecentRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		cp := *m.runs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) Close() error { return nil }
