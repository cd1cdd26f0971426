package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotStore persists a store's full record set. Load and Save always
// operate on the entire snapshot; there is no incremental append.
type SnapshotStore interface {
	// Load reads the snapshot. A missing or unparsable snapshot yields an
	// empty record set, not an error: the store starts fresh rather than
	// failing on corrupt state.
	Load(ctx context.Context) ([]Record, error)

	// Save rewrites the snapshot with the given records.
	Save(ctx context.Context, records []Record) error
}

// FileStore persists the snapshot as one JSON array on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store at the given path.
// Parent directories are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the JSON snapshot. Missing or corrupt files yield an empty set.
func (f *FileStore) Load(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		// Corrupt snapshot: start empty rather than fail.
		return nil, nil
	}
	return records, nil
}

// Save rewrites the JSON snapshot atomically via a temp file rename.
func (f *FileStore) Save(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// MemStore keeps the snapshot in memory only. Useful for tests and for
// callers that handle persistence themselves.
type MemStore struct {
	records []Record
}

// NewMemStore creates an empty in-memory snapshot store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the held snapshot.
func (m *MemStore) Load(ctx context.Context) ([]Record, error) {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Save replaces the held snapshot.
func (m *MemStore) Save(ctx context.Context, records []Record) error {
	m.records = make([]Record, len(records))
	copy(m.records, records)
	return nil
}
