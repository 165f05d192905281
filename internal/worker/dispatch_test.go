package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spatialhue/lightcontrol/internal/dispatcher"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

type call struct {
	group          bool
	target         string
	state          core.LightState
	ctxHasDeadline bool
}

// mockLights implements LightController for testing
type mockLights struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (l *mockLights) ControlLight(ctx context.Context, name string, state core.LightState) error {
	return l.record(ctx, false, name, state)
}

func (l *mockLights) ControlGroup(ctx context.Context, name string, state core.LightState) error {
	return l.record(ctx, true, name, state)
}

func (l *mockLights) record(ctx context.Context, group bool, name string, state core.LightState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := ctx.Deadline()
	l.calls = append(l.calls, call{group: group, target: name, state: state, ctxHasDeadline: ok})
	return l.err
}

func newTestManager(t *testing.T, lights *mockLights) *Manager {
	t.Helper()
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	m := NewManager(Dependencies{Lights: lights, CommandTimeout: time.Second, BufferSize: 8})
	m.RegisterHandlers(d)
	return m
}

func waitDone(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("command did not complete")
		return nil
	}
}

func TestRegisterHandlers_RegistersAllCommands(t *testing.T) {
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)
	defer d.Close()

	NewManager(Dependencies{Lights: &mockLights{}}).RegisterHandlers(d)

	for _, cmd := range []string{CommandLightState, CommandGroupAction} {
		assert.True(t, d.HasHandler(cmd), "expected handler for %s", cmd)
	}
}

func TestSend_Light(t *testing.T) {
	lights := &mockLights{}
	m := newTestManager(t, lights)

	done := make(chan error, 1)
	state := core.ColorState(core.Color{Hue: 100, Saturation: 254, Brightness: 254})
	require.NoError(t, m.Send(core.KindLight, "Lamp", state, func(err error) { done <- err }))
	require.NoError(t, waitDone(t, done))

	lights.mu.Lock()
	defer lights.mu.Unlock()
	require.Len(t, lights.calls, 1)
	assert.False(t, lights.calls[0].group)
	assert.Equal(t, "Lamp", lights.calls[0].target)
	assert.Equal(t, state, lights.calls[0].state)
	assert.True(t, lights.calls[0].ctxHasDeadline)
}

func TestSend_Group(t *testing.T) {
	lights := &mockLights{}
	m := newTestManager(t, lights)

	done := make(chan error, 1)
	require.NoError(t, m.Send(core.KindGroup, "Kitchen", core.PowerState(false), func(err error) { done <- err }))
	require.NoError(t, waitDone(t, done))

	lights.mu.Lock()
	defer lights.mu.Unlock()
	require.Len(t, lights.calls, 1)
	assert.True(t, lights.calls[0].group)
}

func TestSend_ReportsFailure(t *testing.T) {
	lights := &mockLights{err: errors.New("bridge offline")}
	m := newTestManager(t, lights)

	done := make(chan error, 1)
	require.NoError(t, m.Send(core.KindLight, "Lamp", core.PowerState(true), func(err error) { done <- err }))
	err := waitDone(t, done)
	assert.ErrorContains(t, err, "bridge offline")
}

func TestSend_Unbound(t *testing.T) {
	m := newTestManager(t, &mockLights{})

	assert.ErrorIs(t, m.Send(core.KindNone, "Lamp", core.PowerState(true), nil), ErrUnboundTarget)
	assert.ErrorIs(t, m.Send(core.KindLight, "", core.PowerState(true), nil), ErrUnboundTarget)
}

func TestSend_NotRegistered(t *testing.T) {
	m := NewManager(Dependencies{Lights: &mockLights{}})
	assert.Error(t, m.Send(core.KindLight, "Lamp", core.PowerState(true), nil))
}
