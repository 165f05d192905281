// Package anchors keeps persisted light control records and live marker nodes
// in step with the tracking provider's anchors.
package anchors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/session"
	"github.com/spatialhue/lightcontrol/internal/storage"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnknownAnchor is returned for an anchor id with no record.
var ErrUnknownAnchor = errors.New("no record for anchor")

// Tracker is the anchor side of the tracking provider.
type Tracker interface {
	AddAnchor(ctx context.Context, a core.Anchor) error
	RemoveAnchor(ctx context.Context, id uuid.UUID) error
}

// Device reports the viewer's pose.
type Device interface {
	DeviceTransform() mgl64.Mat4
}

// Commander sends fire-and-forget state changes to lights and groups.
type Commander interface {
	Send(kind core.ControlKind, target string, state core.LightState, done func(error)) error
}

// Config tunes placement and marker visuals.
type Config struct {
	MoveSettleDelay time.Duration
	PlaceDistance   float64
	MarkerRadius    float64
	EditOpacity     float64
	IdleOpacity     float64
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Dependencies holds all collaborators of the store.
type Dependencies struct {
	Scene     *scene.Scene
	Backend   storage.Backend
	Tracker   Tracker
	Device    Device
	Commander Commander
	Session   *session.Context
	Logger    *slog.Logger
	// Sleep waits out the move settle delay. Nil waits on the wall clock.
	Sleep SleepFunc
}

func wallSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Store owns the record arena and one marker node per live anchor.
// Lock order is scene first, then the store.
type Store struct {
	cfg  Config
	deps Dependencies
	log  *slog.Logger

	sleepMu sync.Mutex
	sleep   SleepFunc

	mu      sync.Mutex
	records map[uuid.UUID]*core.LightControlRecord
	markers map[uuid.UUID]*scene.Node

	markerGauge metric.Int64ObservableGauge
	orphans     metric.Int64Counter
}

// New creates a store. Call Load before handling events.
func New(cfg Config, deps Dependencies) (*Store, error) {
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Sleep == nil {
		deps.Sleep = wallSleep
	}
	s := &Store{
		cfg:     cfg,
		deps:    deps,
		log:     deps.Logger.With("component", "anchors"),
		sleep:   deps.Sleep,
		records: make(map[uuid.UUID]*core.LightControlRecord),
		markers: make(map[uuid.UUID]*scene.Node),
	}

	m := meter()
	var err error
	s.markerGauge, err = m.Int64ObservableGauge(
		"anchors.markers",
		metric.WithDescription("Live marker nodes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating marker gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		o.ObserveInt64(s.markerGauge, int64(s.MarkerCount()))
		return nil
	}, s.markerGauge)
	if err != nil {
		return nil, fmt.Errorf("registering marker callback: %w", err)
	}
	s.orphans, err = m.Int64Counter(
		"anchors.orphans",
		metric.WithDescription("Placements whose anchor registration failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating orphan counter: %w", err)
	}
	return s, nil
}

// Load fills the arena from the persistence backend. Records stay orphaned
// until their anchor is added.
func (s *Store) Load() error {
	records, err := s.deps.Backend.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		rec := r
		s.records[r.AnchorID] = &rec
	}
	s.log.Info("Loaded light control records", "count", len(records))
	return nil
}

// Run consumes anchor events until ctx is done or events is closed.
func (s *Store) Run(ctx context.Context, events <-chan core.AnchorEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one anchor lifecycle event.
func (s *Store) HandleEvent(ev core.AnchorEvent) {
	s.deps.Scene.Lock()
	defer s.deps.Scene.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ev.Anchor.ID
	switch ev.Kind {
	case core.AnchorAdded:
		rec, ok := s.records[id]
		if !ok {
			s.log.Warn("Anchor added without a record", "anchorId", id)
			return
		}
		if n, ok := s.markers[id]; ok {
			n.SetMatrix(ev.Anchor.Transform)
			return
		}
		s.markers[id] = s.newMarker(rec, ev.Anchor.Transform)
		s.log.Debug("Marker created", "anchorId", id, "kind", rec.Kind, "target", rec.TargetName)

	case core.AnchorUpdated:
		if n, ok := s.markers[id]; ok {
			n.SetMatrix(ev.Anchor.Transform)
		}

	case core.AnchorRemoved:
		if n, ok := s.markers[id]; ok {
			n.Dispose()
			delete(s.markers, id)
		}
		if _, ok := s.records[id]; ok {
			s.dropRecord(id)
		}
		s.log.Debug("Anchor removed", "anchorId", id)
	}
}

func (s *Store) newMarker(rec *core.LightControlRecord, pose mgl64.Mat4) *scene.Node {
	n := s.deps.Scene.NewNode("marker-" + rec.Kind.String())
	n.SetMatrix(pose)
	n.Radius = s.cfg.MarkerRadius
	n.Opacity = s.opacity(s.deps.Session.Editing())
	n.UserData = core.MarkerRef{AnchorID: rec.AnchorID}
	s.deps.Scene.Root().AddChild(n)
	return n
}

// dropRecord removes a record from the arena and the backend and clears a
// matching selection. Caller holds s.mu.
func (s *Store) dropRecord(id uuid.UUID) {
	delete(s.records, id)
	if err := s.deps.Backend.Remove(id); err != nil {
		s.log.Error("Failed to remove record", "anchorId", id, "error", err)
	}
	if s.deps.Session.ClearSelection(&id) {
		s.log.Debug("Selection cleared", "anchorId", id)
	}
}

// Place persists a record under a fresh anchor id and asks the tracker for a
// new anchor at pose. A previous record keeps its kind, target and state.
// If the tracker refuses, the persisted record is left orphaned and the error returned.
func (s *Store) Place(ctx context.Context, pose mgl64.Mat4, kind core.ControlKind, previous *core.LightControlRecord) (core.LightControlRecord, error) {
	rec := core.LightControlRecord{Kind: kind}
	if previous != nil {
		rec = *previous
		if previous.LastColor != nil {
			c := *previous.LastColor
			rec.LastColor = &c
		}
	}
	rec.AnchorID = uuid.New()

	if err := s.deps.Backend.Add(rec); err != nil {
		return core.LightControlRecord{}, fmt.Errorf("failed to persist record: %w", err)
	}
	s.mu.Lock()
	stored := rec
	s.records[rec.AnchorID] = &stored
	s.mu.Unlock()

	if err := s.deps.Tracker.AddAnchor(ctx, core.Anchor{ID: rec.AnchorID, Transform: pose}); err != nil {
		s.orphans.Add(ctx, 1)
		s.log.Warn("Anchor registration failed, record left orphaned", "anchorId", rec.AnchorID, "error", err)
		return rec, fmt.Errorf("failed to register anchor: %w", err)
	}
	return rec, nil
}

// PlaceInFront places a new marker PlaceDistance metres ahead of the viewer.
func (s *Store) PlaceInFront(ctx context.Context, kind core.ControlKind) (core.LightControlRecord, error) {
	device := s.deps.Device.DeviceTransform()
	pos := device.Mul4x1(mgl64.Vec4{0, 0, -s.cfg.PlaceDistance, 1}).Vec3()
	return s.Place(ctx, mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()), kind, nil)
}

// Move re-places a record at pose. The old anchor and record are removed
// first; after the settle delay a new anchor with a new id carries the same
// kind, target and state.
func (s *Store) Move(ctx context.Context, id uuid.UUID, pose mgl64.Mat4) (core.LightControlRecord, error) {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		s.log.Debug("Move ignored, no record", "anchorId", id)
		return core.LightControlRecord{}, ErrUnknownAnchor
	}
	previous := *rec
	s.dropRecord(id)
	s.mu.Unlock()

	if err := s.deps.Tracker.RemoveAnchor(ctx, id); err != nil {
		s.log.Warn("Anchor removal failed during move", "anchorId", id, "error", err)
	}

	if err := s.sleeper()(ctx, s.cfg.MoveSettleDelay); err != nil {
		return core.LightControlRecord{}, err
	}
	return s.Place(ctx, pose, previous.Kind, &previous)
}

// SetSleep replaces the settle delay wait, for callers that drive their own
// clock. Nil restores the wall clock.
func (s *Store) SetSleep(fn SleepFunc) {
	if fn == nil {
		fn = wallSleep
	}
	s.sleepMu.Lock()
	s.sleep = fn
	s.sleepMu.Unlock()
}

func (s *Store) sleeper() SleepFunc {
	s.sleepMu.Lock()
	defer s.sleepMu.Unlock()
	return s.sleep
}

// Remove deletes a record and asks the tracker to drop its anchor. The marker
// goes away when the removal event arrives.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return ErrUnknownAnchor
	}
	s.dropRecord(id)
	s.mu.Unlock()

	if err := s.deps.Tracker.RemoveAnchor(ctx, id); err != nil {
		s.log.Warn("Anchor removal failed", "anchorId", id, "error", err)
	}
	return nil
}

// RemoveSelected removes the selected record, if any.
func (s *Store) RemoveSelected(ctx context.Context) error {
	id, ok := s.deps.Session.Selected()
	if !ok {
		return nil
	}
	return s.Remove(ctx, id)
}

// Select marks a record as selected.
func (s *Store) Select(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrUnknownAnchor
	}
	s.deps.Session.Select(id)
	return nil
}

// SetTarget binds a record to a light or group.
func (s *Store) SetTarget(id uuid.UUID, kind core.ControlKind, name string) error {
	return s.mutate(id, func(r *core.LightControlRecord) {
		r.Kind = kind
		r.TargetName = name
	})
}

// Toggle flips the on state, persists it and sends the change without waiting.
func (s *Store) Toggle(id uuid.UUID) (bool, error) {
	var rec core.LightControlRecord
	err := s.mutate(id, func(r *core.LightControlRecord) {
		r.IsOn = !r.IsOn
		rec = *r
	})
	if err != nil {
		return false, err
	}
	s.send(rec, core.PowerState(rec.IsOn))
	return rec.IsOn, nil
}

// ToggleSelected toggles the selected record.
func (s *Store) ToggleSelected() (bool, error) {
	id, ok := s.deps.Session.Selected()
	if !ok {
		return false, ErrUnknownAnchor
	}
	return s.Toggle(id)
}

// ApplyColor records that a color was sent to a record's target.
func (s *Store) ApplyColor(id uuid.UUID, c core.Color) error {
	return s.mutate(id, func(r *core.LightControlRecord) {
		r.IsOn = true
		r.LastColor = &c
	})
}

// SetColor sends c to a record's target without waiting and mirrors it in
// LastColor. Channels outside the bridge's range are clamped.
func (s *Store) SetColor(id uuid.UUID, c core.Color) error {
	c = c.Clamped()
	var rec core.LightControlRecord
	err := s.mutate(id, func(r *core.LightControlRecord) {
		r.IsOn = true
		r.LastColor = &c
		rec = *r
	})
	if err != nil {
		return err
	}
	s.send(rec, core.ColorState(c))
	return nil
}

// SetColorSelected sets the color of the selected record.
func (s *Store) SetColorSelected(c core.Color) error {
	id, ok := s.deps.Session.Selected()
	if !ok {
		return ErrUnknownAnchor
	}
	return s.SetColor(id, c)
}

// SetBrightness sends a brightness change, clamped to 0..254, and keeps
// LastColor's brightness in step. A record without a color gets hue and
// saturation zero.
func (s *Store) SetBrightness(id uuid.UUID, bri int) error {
	bri = core.ClampBrightness(bri)
	var rec core.LightControlRecord
	err := s.mutate(id, func(r *core.LightControlRecord) {
		c := core.Color{}
		if r.LastColor != nil {
			c = *r.LastColor
		}
		c.Brightness = bri
		r.LastColor = &c
		rec = *r
	})
	if err != nil {
		return err
	}
	s.send(rec, core.BrightnessState(bri))
	return nil
}

// SetBrightnessSelected sets the brightness of the selected record.
func (s *Store) SetBrightnessSelected(bri int) error {
	id, ok := s.deps.Session.Selected()
	if !ok {
		return ErrUnknownAnchor
	}
	return s.SetBrightness(id, bri)
}

// SetEditing switches marker opacity between edit and idle.
func (s *Store) SetEditing(on bool) {
	s.deps.Session.SetEditing(on)

	s.deps.Scene.Lock()
	defer s.deps.Scene.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.markers {
		n.Opacity = s.opacity(on)
	}
}

func (s *Store) opacity(editing bool) float64 {
	if editing {
		return s.cfg.EditOpacity
	}
	return s.cfg.IdleOpacity
}

// Record returns a copy of a record.
func (s *Store) Record(id uuid.UUID) (core.LightControlRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return core.LightControlRecord{}, false
	}
	return *r, true
}

// Records returns copies of all records ordered by anchor id.
func (s *Store) Records() []core.LightControlRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LightControlRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnchorID.String() < out[j].AnchorID.String() })
	return out
}

// Marker returns the live marker for an anchor. Callers hold the scene lock
// while touching the node.
func (s *Store) Marker(id uuid.UUID) (*scene.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.markers[id]
	return n, ok
}

// MarkerCount returns the number of live markers.
func (s *Store) MarkerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// OrphanCount returns the number of records without a live marker.
func (s *Store) OrphanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.records {
		if _, ok := s.markers[id]; !ok {
			n++
		}
	}
	return n
}

func (s *Store) mutate(id uuid.UUID, fn func(*core.LightControlRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrUnknownAnchor
	}
	fn(r)
	if err := s.deps.Backend.Update(*r); err != nil {
		return fmt.Errorf("failed to persist record: %w", err)
	}
	return nil
}

func (s *Store) send(rec core.LightControlRecord, state core.LightState) {
	if s.deps.Commander == nil {
		return
	}
	err := s.deps.Commander.Send(rec.Kind, rec.TargetName, state, func(err error) {
		if err != nil {
			s.log.Warn("Light command failed", "target", rec.TargetName, "error", err)
		}
	})
	if err != nil {
		s.log.Debug("Light command not sent", "anchorId", rec.AnchorID, "error", err)
	}
}
