package gormstorage_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/internal/database"
	"github.com/spatialhue/lightcontrol/internal/model"
	"github.com/spatialhue/lightcontrol/internal/storage"
	gormstorage "github.com/spatialhue/lightcontrol/internal/storage/gorm"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Backend = (*gormstorage.Backend)(nil)

func newBackend(t *testing.T) *gormstorage.Backend {
	t.Helper()
	db, err := database.NewManager(zerolog.Nop()).GetSqliteDB("")
	require.NoError(t, err)

	b := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInitMigrates(t *testing.T) {
	b := newBackend(t)
	assert.True(t, b.DB().Migrator().HasTable(&model.LightControl{}))
}

func TestLoadAllBeforeInit(t *testing.T) {
	b := gormstorage.New(gormstorage.Dependencies{Logger: zerolog.Nop()})
	_, err := b.LoadAll()
	assert.Error(t, err)
	assert.Error(t, b.Init())
}

func TestRoundTrip(t *testing.T) {
	b := newBackend(t)

	lamp := core.LightControlRecord{
		Kind:       core.KindLight,
		TargetName: "Lamp",
		AnchorID:   uuid.New(),
		LastColor:  &core.Color{Hue: 21845, Saturation: 254, Brightness: 254},
	}
	kitchen := core.LightControlRecord{Kind: core.KindGroup, TargetName: "Kitchen", IsOn: true, AnchorID: uuid.New()}
	require.NoError(t, b.Add(lamp))
	require.NoError(t, b.Add(kitchen))

	all, err := b.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	byID := map[uuid.UUID]core.LightControlRecord{}
	for _, r := range all {
		byID[r.AnchorID] = r
	}
	assert.Equal(t, lamp, byID[lamp.AnchorID])
	assert.Equal(t, kitchen, byID[kitchen.AnchorID])
}

func TestAddUpserts(t *testing.T) {
	b := newBackend(t)
	r := core.LightControlRecord{Kind: core.KindLight, TargetName: "Lamp", AnchorID: uuid.New()}
	require.NoError(t, b.Add(r))

	r.TargetName = "Hall"
	r.IsOn = true
	require.NoError(t, b.Add(r))

	all, err := b.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Hall", all[0].TargetName)
	assert.True(t, all[0].IsOn)
}

func TestUpdate(t *testing.T) {
	b := newBackend(t)
	r := core.LightControlRecord{Kind: core.KindLight, TargetName: "Lamp", IsOn: true, AnchorID: uuid.New()}
	require.NoError(t, b.Add(r))

	r.IsOn = false
	require.NoError(t, b.Update(r))

	all, err := b.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsOn)

	assert.ErrorIs(t, b.Update(core.LightControlRecord{AnchorID: uuid.New()}), storage.ErrNotFound)
}

func TestRemove(t *testing.T) {
	b := newBackend(t)
	r := core.LightControlRecord{Kind: core.KindLight, AnchorID: uuid.New()}
	require.NoError(t, b.Add(r))

	require.NoError(t, b.Remove(r.AnchorID))
	assert.ErrorIs(t, b.Remove(r.AnchorID), storage.ErrNotFound)

	all, err := b.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
