package store

import (
	"sync"

	"x2ansible/internal/checklist"
)

// MemStore is an in-memory Store for tests and the MCP session, which
// keeps its run history for the lifetime of the process only.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	runs   map[int64]*Run
	items  map[int64][]checklist.Item
	order  []int64
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		runs:   make(map[int64]*Run),
		items:  make(map[int64][]checklist.Item),
	}
}

func (s *MemStore) SaveRun(run *Run, items []checklist.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.StartedAt == "" {
		run.StartedAt = nowUTC()
	}
	if run.FinishedAt == "" {
		run.FinishedAt = nowUTC()
	}

	id := s.nextID
	s.nextID++

	stored := *run
	stored.ID = id
	s.runs[id] = &stored
	s.items[id] = append([]checklist.Item(nil), items...)
	s.order = append(s.order, id)

	run.ID = id
	return id, nil
}

func (s *MemStore) GetRun(id int64) (*Run, []checklist.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	cp := *run
	return &cp, append([]checklist.Item(nil), s.items[id]...), nil
}

func (s *MemStore) LastRun(moduleName string) (*Run, []checklist.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if run.ModuleName == moduleName {
			cp := *run
			return &cp, append([]checklist.Item(nil), s.items[run.ID]...), nil
		}
	}
	return nil, nil, ErrNotFound
}

func (s *MemStore) ListRuns() ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.runs[s.order[i]]
		runs = append(runs, &cp)
	}
	return runs, nil
}

func (s *MemStore) Close() error { return nil }
