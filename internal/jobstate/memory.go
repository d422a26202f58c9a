package jobstate

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in process memory. The default when no Redis
// endpoint is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Snapshot
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := snap
	copied.Sources = append([]string(nil), snap.Sources...)
	m.jobs[snap.JobID] = copied
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, jobID string) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.jobs[jobID]
	return snap, ok, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.jobs))
	for _, snap := range m.jobs {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
