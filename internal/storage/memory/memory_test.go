// internal/storage/memory/memory_test.go
package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/storage"
	"github.com/spatialhue/lightcontrol/internal/storage/memory"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*memory.Backend)(nil)

func record(name string) core.LightControlRecord {
	return core.LightControlRecord{Kind: core.KindLight, TargetName: name, AnchorID: uuid.New()}
}

func TestInMemory(t *testing.T) {
	b := memory.New("")
	require.NoError(t, b.Init())
	defer b.Close()

	a, c := record("Lamp"), record("Desk")
	require.NoError(t, b.Add(a))
	require.NoError(t, b.Add(c))

	all, err := b.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []core.LightControlRecord{a, c}, all)

	a.IsOn = true
	require.NoError(t, b.Update(a))
	all, _ = b.LoadAll()
	assert.True(t, all[0].IsOn)

	require.NoError(t, b.Remove(a.AnchorID))
	all, _ = b.LoadAll()
	assert.Equal(t, []core.LightControlRecord{c}, all)
}

func TestAddReplacesSameAnchor(t *testing.T) {
	b := memory.New("")
	r := record("Lamp")
	require.NoError(t, b.Add(r))

	r.TargetName = "Hall"
	require.NoError(t, b.Add(r))

	all, _ := b.LoadAll()
	require.Len(t, all, 1)
	assert.Equal(t, "Hall", all[0].TargetName)
}

func TestUnknownAnchor(t *testing.T) {
	b := memory.New("")
	assert.ErrorIs(t, b.Update(record("x")), storage.ErrNotFound)
	assert.ErrorIs(t, b.Remove(uuid.New()), storage.ErrNotFound)
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightControls.json")

	b := memory.New(path)
	require.NoError(t, b.Init())

	r := record("Lamp")
	r.LastColor = &core.Color{Hue: 10, Saturation: 254, Brightness: 254}
	require.NoError(t, b.Add(r))
	require.NoError(t, b.Add(record("Desk")))

	reloaded := memory.New(path)
	require.NoError(t, reloaded.Init())
	all, err := reloaded.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r, all[0])

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInitMissingFile(t *testing.T) {
	b := memory.New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, b.Init())
	all, err := b.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInitCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	assert.Error(t, memory.New(path).Init())
}
