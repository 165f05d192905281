package worker

import (
	"context"
	"errors"
	"time"

	"github.com/spatialhue/lightcontrol/internal/dispatcher"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// ErrUnboundTarget is returned when a command is sent for a record with no light or group.
var ErrUnboundTarget = errors.New("record has no light or group bound")

// LightController is the remote light collaborator.
type LightController interface {
	ControlLight(ctx context.Context, name string, state core.LightState) error
	ControlGroup(ctx context.Context, name string, state core.LightState) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Lights         LightController
	CommandTimeout time.Duration
	BufferSize     int
}

// Manager runs light and group commands off the caller's goroutine.
type Manager struct {
	deps       Dependencies
	dispatcher *dispatcher.Dispatcher
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.BufferSize <= 0 {
		deps.BufferSize = 64
	}
	if deps.CommandTimeout <= 0 {
		deps.CommandTimeout = 5 * time.Second
	}
	return &Manager{deps: deps}
}
