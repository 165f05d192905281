// Package postgres implements the storage.Backend interface on PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/internal/database"
	gormstorage "github.com/spatialhue/lightcontrol/internal/storage/gorm"
)

// Backend wraps the GORM backend with a postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New connects and validates the postgres connection. Schema migration happens in Init.
func New(cfg config.PostgresConfig, log zerolog.Logger) (*Backend, error) {
	db, err := database.NewManager(log).GetPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Backend{Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log})}, nil
}
