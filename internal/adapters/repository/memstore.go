package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	model "github.com/okian/ahcview/internal/domain/model"
)

// MemoryStore keeps datasets in memory. It backs tests and offline fixtures.
type MemoryStore struct {
	mu        sync.RWMutex
	catalog   *model.ContestLists
	standings map[model.ContestID][]model.StandingsRow
	extended  map[model.ContestID][]model.ExtendedRow
	failures  map[string]error
	calls     atomic.Int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		standings: make(map[model.ContestID][]model.StandingsRow),
		extended:  make(map[model.ContestID][]model.ExtendedRow),
		failures:  make(map[string]error),
	}
}

// SetCatalog installs the catalog.
func (m *MemoryStore) SetCatalog(lists model.ContestLists) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = &lists
}

// PutStandings installs a contest's standings.
func (m *MemoryStore) PutStandings(id model.ContestID, rows []model.StandingsRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standings[id] = rows
}

// PutExtended installs a contest's extended rows.
func (m *MemoryStore) PutExtended(id model.ContestID, rows []model.ExtendedRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extended[id] = rows
}

// Fail makes loads of key return err. Keys follow the on-disk layout, e.g.
// "contest_lists.json" or "results/ahc001.json".
func (m *MemoryStore) Fail(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key] = err
}

// Calls returns how many loads were served.
func (m *MemoryStore) Calls() int64 { return m.calls.Load() }

func (m *MemoryStore) Catalog(ctx context.Context) (model.ContestLists, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return model.ContestLists{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures[CatalogKey]; err != nil {
		return model.ContestLists{}, err
	}
	if m.catalog == nil {
		return model.ContestLists{}, fmt.Errorf("%w: %s", ErrNotFound, CatalogKey)
	}
	return *m.catalog, nil
}

func (m *MemoryStore) Standings(ctx context.Context, id model.ContestID) ([]model.StandingsRow, error) {
	m.calls.Add(1)
	key, err := StandingsKey(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures[key]; err != nil {
		return nil, err
	}
	rows, ok := m.standings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rows, nil
}

func (m *MemoryStore) Extended(ctx context.Context, id model.ContestID) ([]model.ExtendedRow, error) {
	m.calls.Add(1)
	key, err := ExtendedKey(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures[key]; err != nil {
		return nil, err
	}
	rows, ok := m.extended[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rows, nil
}
