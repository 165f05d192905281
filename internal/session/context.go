package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Context holds the interaction state shared by the CLI, logging and the scene managers.
type Context struct {
	mu       sync.RWMutex
	mode     core.InteractionMode
	editing  bool
	selected *uuid.UUID
}

// NewContext creates a new Context in look-and-pinch mode with editing off.
func NewContext() *Context {
	return &Context{mode: core.ModeLookAndPinch}
}

// Mode returns the active interaction mode
func (c *Context) Mode() core.InteractionMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SetMode records the active interaction mode
func (c *Context) SetMode(m core.InteractionMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// Editing reports whether marker edit mode is on
func (c *Context) Editing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editing
}

// SetEditing toggles marker edit mode
func (c *Context) SetEditing(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = on
}

// Selected returns the selected anchor id, if any
func (c *Context) Selected() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return uuid.Nil, false
	}
	return *c.selected, true
}

// Select marks an anchor as selected
func (c *Context) Select(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &id
}

// ClearSelection drops the selection. When id is non-nil the selection is only
// cleared if it matches; the return value tells whether anything was cleared.
func (c *Context) ClearSelection(id *uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return false
	}
	if id != nil && *c.selected != *id {
		return false
	}
	c.selected = nil
	return true
}

// Attrs returns the context as log attributes.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []slog.Attr{
		slog.String("mode", c.mode.String()),
		slog.Bool("editing", c.editing),
	}
}
