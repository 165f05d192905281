// Package sqlitestorage implements the storage.Backend interface on a SQLite file
// through the pure-Go glebarez driver. An empty path keeps the database in memory.
package sqlitestorage

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/internal/database"
	gormstorage "github.com/spatialhue/lightcontrol/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg Config
}

// New opens the SQLite database. Schema migration happens in Init.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.NewManager(log).GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log}),
		cfg:     cfg,
	}, nil
}

// Path returns the database file, empty when in memory.
func (b *Backend) Path() string {
	return b.cfg.Path
}
