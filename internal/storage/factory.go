// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/internal/config"
	badgerstorage "github.com/spatialhue/lightcontrol/internal/storage/badger"
	"github.com/spatialhue/lightcontrol/internal/storage/memory"
	"github.com/spatialhue/lightcontrol/internal/storage/postgres"
	sqlitestorage "github.com/spatialhue/lightcontrol/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. Init is left to the caller.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "json", "":
		return memory.New(cfg.JSON.Path), nil
	case "memory":
		return memory.New(""), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{Path: cfg.SQLite.Path}, log)
	case "badger":
		return badgerstorage.New(badgerstorage.Config{Dir: cfg.Badger.Dir}, log), nil
	case "postgres":
		return postgres.New(cfg.Postgres, log)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
