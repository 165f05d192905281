package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/spatialhue/lightcontrol/internal/dispatcher"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

const (
	CommandLightState  = ":LIGHT:STATE:"
	CommandGroupAction = ":GROUP:ACTION:"
)

// RegisterHandlers registers the light and group handlers with the dispatcher.
// Both are buffered so senders never wait on the bridge.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CommandLightState, m.handleLightState, dispatcher.Buffered(m.deps.BufferSize), dispatcher.Logged())
	d.Register(CommandGroupAction, m.handleGroupAction, dispatcher.Buffered(m.deps.BufferSize), dispatcher.Logged())
	m.dispatcher = d
}

// Send queues a state change for the record's target and returns immediately.
// done, if set, is called from the worker goroutine with the bridge result.
func (m *Manager) Send(kind core.ControlKind, target string, state core.LightState, done func(error)) error {
	if m.dispatcher == nil {
		return fmt.Errorf("worker handlers not registered")
	}

	var command string
	switch kind {
	case core.KindLight:
		command = CommandLightState
	case core.KindGroup:
		command = CommandGroupAction
	default:
		return ErrUnboundTarget
	}
	if target == "" {
		return ErrUnboundTarget
	}

	return m.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Target:    target,
		State:     state,
		Done:      done,
		Timestamp: time.Now(),
	})
}

func (m *Manager) handleLightState(e dispatcher.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.deps.CommandTimeout)
	defer cancel()

	if err := m.deps.Lights.ControlLight(ctx, e.Target, e.State); err != nil {
		return fmt.Errorf("failed to control light: %w", err)
	}
	return nil
}

func (m *Manager) handleGroupAction(e dispatcher.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.deps.CommandTimeout)
	defer cancel()

	if err := m.deps.Lights.ControlGroup(ctx, e.Target, e.State); err != nil {
		return fmt.Errorf("failed to control group: %w", err)
	}
	return nil
}
