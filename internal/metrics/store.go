package metrics

import (
	"sync"

	"healthd/internal/domain"
)

// SnapshotStore holds the one current snapshot. Set replaces it whole, so
// readers always see a complete value.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Set(m domain.Snapshot) {
	s.mu.Lock()
	s.snapshot = m
	s.mu.Unlock()
}

func (s *SnapshotStore) Get() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
