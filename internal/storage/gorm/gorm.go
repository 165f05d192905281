// Package gormstorage implements the storage.Backend interface on any gorm dialect.
// The sqlite and postgres backends embed it and only differ in how they open the DB.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/internal/database"
	"github.com/spatialhue/lightcontrol/internal/model"
	"github.com/spatialhue/lightcontrol/internal/model/convert"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend persists records in the light_controls table.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.NewManager(b.deps.Logger).Setup(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true
	return nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the connection for callers that need raw access.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

func (b *Backend) LoadAll() ([]core.LightControlRecord, error) {
	if !b.dbReady {
		return nil, errors.New("database not initialized")
	}

	var rows []model.LightControl
	if err := b.deps.DB.Order("created_at asc, anchor_id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]core.LightControlRecord, 0, len(rows))
	for _, row := range rows {
		r, err := convert.LightControlToRecord(row)
		if err != nil {
			b.deps.Logger.Warn().Err(err).Str("anchorId", row.AnchorID).Msg("Skipping invalid record")
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Add upserts the record by anchor id.
func (b *Backend) Add(r core.LightControlRecord) error {
	row := convert.RecordToLightControl(r)
	err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "anchor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "target_name", "is_on", "last_color", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to add record %s: %w", r.AnchorID, err)
	}
	return nil
}

func (b *Backend) Update(r core.LightControlRecord) error {
	row := convert.RecordToLightControl(r)
	res := b.deps.DB.Model(&model.LightControl{}).
		Where("anchor_id = ?", row.AnchorID).
		Updates(map[string]interface{}{
			"kind":        row.Kind,
			"target_name": row.TargetName,
			"is_on":       row.IsOn,
			"last_color":  row.LastColor,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update record %s: %w", r.AnchorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", r.AnchorID, core.ErrRecordNotFound)
	}
	return nil
}

func (b *Backend) Remove(anchorID uuid.UUID) error {
	res := b.deps.DB.Where("anchor_id = ?", anchorID.String()).Delete(&model.LightControl{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove record %s: %w", anchorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove %s: %w", anchorID, core.ErrRecordNotFound)
	}
	return nil
}
