package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/mystock/warehouse/internal/application/inventory"
)

// MemoryStore keeps the last saved snapshot in process. State is lost on exit.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *inventory.Snapshot
	saves    int
}

var _ inventory.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the last saved snapshot
func (s *MemoryStore) Load(ctx context.Context) (inventory.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return inventory.Snapshot{}, inventory.ErrSnapshotNotFound
	}
	return cloneSnapshot(*s.snapshot), nil
}

// Save stores a copy of the snapshot
func (s *MemoryStore) Save(ctx context.Context, snapshot inventory.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := cloneSnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &c
	s.saves++
	return nil
}

// Saves returns how many snapshots have been saved
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneSnapshot(s inventory.Snapshot) inventory.Snapshot {
	s.Products = slices.Clone(s.Products)
	s.Transactions = slices.Clone(s.Transactions)
	return s
}
