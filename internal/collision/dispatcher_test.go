package collision

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/logging"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]core.LightControlRecord
}

func (r *fakeRecords) Record(id uuid.UUID) (core.LightControlRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

func (r *fakeRecords) ApplyColor(id uuid.UUID, c core.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errors.New("unknown")
	}
	rec.IsOn = true
	rec.LastColor = &c
	r.records[id] = rec
	return nil
}

type command struct {
	kind   core.ControlKind
	target string
	state  core.LightState
}

type fakeCommander struct {
	commands []command
	err      error
}

func (c *fakeCommander) Send(kind core.ControlKind, target string, state core.LightState, done func(error)) error {
	if c.err != nil {
		return c.err
	}
	c.commands = append(c.commands, command{kind, target, state})
	return nil
}

type fixture struct {
	sc      *scene.Scene
	records *fakeRecords
	cmd     *fakeCommander
	d       *Dispatcher
	hits    []Hit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sc:      scene.New(),
		records: &fakeRecords{records: map[uuid.UUID]core.LightControlRecord{}},
		cmd:     &fakeCommander{},
	}
	d, err := New(f.sc, f.records, f.cmd, logging.Discard())
	require.NoError(t, err)
	d.OnDispatch(func(h Hit) { f.hits = append(f.hits, h) })
	f.d = d
	return f
}

func (f *fixture) marker(kind core.ControlKind, name string) *scene.Node {
	rec := core.LightControlRecord{Kind: kind, TargetName: name, AnchorID: uuid.New()}
	f.records.records[rec.AnchorID] = rec
	n := f.sc.NewNode("marker")
	n.UserData = core.MarkerRef{AnchorID: rec.AnchorID}
	f.sc.Root().AddChild(n)
	return n
}

func (f *fixture) token(c core.Color) *scene.Node {
	n := f.sc.NewNode("token")
	n.UserData = &core.Token{Color: c}
	f.sc.Root().AddChild(n)
	return n
}

func TestProcess_LightCommand(t *testing.T) {
	f := newFixture(t)
	m := f.marker(core.KindLight, "Lamp")
	color := core.Color{Hue: 21845, Saturation: 254, Brightness: 254}
	tok := f.token(color)

	f.sc.ReportCollision(tok.ID, m.ID)
	assert.Equal(t, 1, f.d.Process())

	require.Len(t, f.cmd.commands, 1)
	assert.Equal(t, core.KindLight, f.cmd.commands[0].kind)
	assert.Equal(t, "Lamp", f.cmd.commands[0].target)
	assert.Equal(t, core.ColorState(color), f.cmd.commands[0].state)

	assert.True(t, tok.IsDisposed())
	assert.False(t, m.IsDisposed())

	require.Len(t, f.hits, 1)
	assert.True(t, f.hits[0].Sent)
	assert.Equal(t, color, f.hits[0].Color)
	assert.True(t, f.hits[0].Record.IsOn)
	assert.Equal(t, &color, f.hits[0].Record.LastColor)
}

func TestProcess_GroupCommandEitherOrder(t *testing.T) {
	f := newFixture(t)
	m := f.marker(core.KindGroup, "Kitchen")
	tok := f.token(core.ColorFromDegrees(240))

	f.sc.ReportCollision(m.ID, tok.ID)
	assert.Equal(t, 1, f.d.Process())

	require.Len(t, f.cmd.commands, 1)
	assert.Equal(t, core.KindGroup, f.cmd.commands[0].kind)
	assert.True(t, tok.IsDisposed())
}

func TestProcess_UnboundMarkerConsumesToken(t *testing.T) {
	f := newFixture(t)
	m := f.marker(core.KindNone, "")
	tok := f.token(core.ColorFromDegrees(0))

	f.sc.ReportCollision(tok.ID, m.ID)
	assert.Equal(t, 1, f.d.Process())

	assert.Empty(t, f.cmd.commands)
	assert.True(t, tok.IsDisposed())
	require.Len(t, f.hits, 1)
	assert.False(t, f.hits[0].Sent)
}

func TestProcess_SendFailureStillConsumes(t *testing.T) {
	f := newFixture(t)
	f.cmd.err = errors.New("queue full")
	m := f.marker(core.KindLight, "Lamp")
	tok := f.token(core.ColorFromDegrees(60))

	f.sc.ReportCollision(tok.ID, m.ID)
	assert.Equal(t, 1, f.d.Process())
	assert.True(t, tok.IsDisposed())
	assert.False(t, f.hits[0].Sent)
}

func TestProcess_IgnoresOtherPairs(t *testing.T) {
	f := newFixture(t)
	a := f.token(core.ColorFromDegrees(0))
	b := f.token(core.ColorFromDegrees(30))
	m1 := f.marker(core.KindLight, "Lamp")
	m2 := f.marker(core.KindLight, "Desk")

	f.sc.ReportCollision(a.ID, b.ID)
	f.sc.ReportCollision(m1.ID, m2.ID)
	f.sc.ReportCollision(a.ID, 9999)
	assert.Equal(t, 0, f.d.Process())

	assert.False(t, a.IsDisposed())
	assert.False(t, b.IsDisposed())
	assert.Empty(t, f.hits)
}

func TestProcess_TokenConsumedOnce(t *testing.T) {
	f := newFixture(t)
	m1 := f.marker(core.KindLight, "Lamp")
	m2 := f.marker(core.KindLight, "Desk")
	tok := f.token(core.ColorFromDegrees(180))

	f.sc.ReportCollision(tok.ID, m1.ID)
	f.sc.ReportCollision(tok.ID, m2.ID)
	assert.Equal(t, 1, f.d.Process())
	require.Len(t, f.cmd.commands, 1)
	assert.Equal(t, "Lamp", f.cmd.commands[0].target)
}

func TestProcess_MarkerWithoutRecord(t *testing.T) {
	f := newFixture(t)
	m := f.sc.NewNode("marker")
	m.UserData = core.MarkerRef{AnchorID: uuid.New()}
	f.sc.Root().AddChild(m)
	tok := f.token(core.ColorFromDegrees(0))

	f.sc.ReportCollision(tok.ID, m.ID)
	assert.Equal(t, 0, f.d.Process())
	assert.False(t, tok.IsDisposed())
}

func TestProcess_Empty(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.d.Process())
}
