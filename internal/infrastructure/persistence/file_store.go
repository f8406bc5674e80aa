package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mystock/warehouse/internal/application/inventory"
)

// FileStore keeps the snapshot as one JSON document. Save writes a temporary
// file next to the target and renames it, so readers never see a partial write.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ inventory.SnapshotStore = (*FileStore)(nil)

// NewFileStore creates a store writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot document location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the snapshot document
func (s *FileStore) Load(ctx context.Context) (inventory.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return inventory.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return inventory.Snapshot{}, inventory.ErrSnapshotNotFound
		}
		return inventory.Snapshot{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snapshot inventory.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return inventory.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return snapshot, nil
}

// Save encodes the snapshot and atomically replaces the document
func (s *FileStore) Save(ctx context.Context, snapshot inventory.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}
