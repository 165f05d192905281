// internal/storage/memory/memory.go
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Backend keeps records in memory. When a path is configured the full record
// set is written to it as a JSON array after every mutation.
type Backend struct {
	path string

	records map[uuid.UUID]core.LightControlRecord
	order   []uuid.UUID
	mu      sync.RWMutex
}

// New creates a memory backend. An empty path disables the file.
func New(path string) *Backend {
	return &Backend{
		path:    path,
		records: make(map[uuid.UUID]core.LightControlRecord),
	}
}

// Init loads the JSON file if it exists.
func (b *Backend) Init() error {
	if b.path == "" {
		return nil
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	var records []core.LightControlRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to decode records from %s: %w", b.path, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = make(map[uuid.UUID]core.LightControlRecord, len(records))
	b.order = b.order[:0]
	for _, r := range records {
		if _, dup := b.records[r.AnchorID]; !dup {
			b.order = append(b.order, r.AnchorID)
		}
		b.records[r.AnchorID] = r
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// LoadAll returns a copy of every record in insertion order.
func (b *Backend) LoadAll() ([]core.LightControlRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot(), nil
}

func (b *Backend) Add(r core.LightControlRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[r.AnchorID]; !ok {
		b.order = append(b.order, r.AnchorID)
	}
	b.records[r.AnchorID] = r
	return b.flush()
}

func (b *Backend) Update(r core.LightControlRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[r.AnchorID]; !ok {
		return fmt.Errorf("update %s: %w", r.AnchorID, core.ErrRecordNotFound)
	}
	b.records[r.AnchorID] = r
	return b.flush()
}

func (b *Backend) Remove(anchorID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[anchorID]; !ok {
		return fmt.Errorf("remove %s: %w", anchorID, core.ErrRecordNotFound)
	}
	delete(b.records, anchorID)
	for i, id := range b.order {
		if id == anchorID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return b.flush()
}

// Path returns the JSON file path, empty for a pure in-memory backend.
func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) snapshot() []core.LightControlRecord {
	out := make([]core.LightControlRecord, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.records[id])
	}
	return out
}

// flush writes the record set to a temp file and renames it over the target.
// Caller must hold the write lock.
func (b *Backend) flush() error {
	if b.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(b.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create records dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace records file: %w", err)
	}
	return nil
}
