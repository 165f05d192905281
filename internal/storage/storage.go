// internal/storage/storage.go
package storage

import (
	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// ErrNotFound is returned by Update and Remove for an anchor id with no record.
var ErrNotFound = core.ErrRecordNotFound

// Backend is the interface all storage implementations must satisfy.
// Records are keyed by AnchorID; at most one record exists per id.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// LoadAll returns every record in insertion order.
	LoadAll() ([]core.LightControlRecord, error)

	// Add inserts a record, replacing any existing record with the same AnchorID.
	Add(r core.LightControlRecord) error
	Update(r core.LightControlRecord) error
	Remove(anchorID uuid.UUID) error
}
