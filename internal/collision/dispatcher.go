// Package collision turns token/marker collisions into light and group commands.
package collision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Records gives access to the record bound to a marker.
type Records interface {
	Record(id uuid.UUID) (core.LightControlRecord, bool)
	ApplyColor(id uuid.UUID, c core.Color) error
}

// Commander sends fire-and-forget state changes to lights and groups.
type Commander interface {
	Send(kind core.ControlKind, target string, state core.LightState, done func(error)) error
}

// Hit describes one handled collision. Token has already been disposed.
type Hit struct {
	Token  *scene.Node
	Color  core.Color
	Record core.LightControlRecord
	// Sent is false when the marker has no bound target or the command was not queued.
	Sent bool
}

// Dispatcher consumes the scene's collision queue.
type Dispatcher struct {
	sc        *scene.Scene
	records   Records
	commander Commander
	log       *slog.Logger

	mu        sync.Mutex
	callbacks []func(Hit)

	dispatched metric.Int64Counter
}

// New creates a collision dispatcher.
func New(sc *scene.Scene, records Records, commander Commander, log *slog.Logger) (*Dispatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		sc:        sc,
		records:   records,
		commander: commander,
		log:       log.With("component", "collision"),
	}

	var err error
	d.dispatched, err = meter().Int64Counter(
		"collision.dispatched",
		metric.WithDescription("Token collisions turned into commands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}
	return d, nil
}

// OnDispatch registers a callback fired after every handled collision.
func (d *Dispatcher) OnDispatch(fn func(Hit)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, fn)
}

// Process handles every queued collision and returns how many hit a marker.
// Callbacks run after the scene lock is released.
func (d *Dispatcher) Process() int {
	events := d.sc.DrainCollisions()
	if len(events) == 0 {
		return 0
	}

	var hits []Hit
	d.sc.Lock()
	for _, ev := range events {
		if hit, ok := d.handle(ev); ok {
			hits = append(hits, hit)
		}
	}
	d.sc.Unlock()

	d.mu.Lock()
	callbacks := append([]func(Hit){}, d.callbacks...)
	d.mu.Unlock()
	for _, hit := range hits {
		for _, fn := range callbacks {
			fn(hit)
		}
	}
	return len(hits)
}

// handle resolves one collision. Caller holds the scene lock.
func (d *Dispatcher) handle(ev core.CollisionEvent) (Hit, bool) {
	tokenNode, markerNode, ok := d.resolve(ev)
	if !ok {
		return Hit{}, false
	}
	token := tokenNode.UserData.(*core.Token)
	ref := markerNode.UserData.(core.MarkerRef)

	rec, ok := d.records.Record(ref.AnchorID)
	if !ok {
		d.log.Debug("Marker has no record", "anchorId", ref.AnchorID)
		return Hit{}, false
	}

	hit := Hit{Token: tokenNode, Color: token.Color, Record: rec}
	switch rec.Kind {
	case core.KindLight, core.KindGroup:
		err := d.commander.Send(rec.Kind, rec.TargetName, core.ColorState(token.Color), func(err error) {
			if err != nil {
				d.log.Warn("Color command failed", "target", rec.TargetName, "error", err)
			}
		})
		if err != nil {
			d.log.Warn("Color command not sent", "target", rec.TargetName, "error", err)
		} else {
			hit.Sent = true
			d.dispatched.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", rec.Kind.String())))
		}
		if err := d.records.ApplyColor(rec.AnchorID, token.Color); err != nil {
			d.log.Warn("Failed to record color", "anchorId", rec.AnchorID, "error", err)
		} else if r, ok := d.records.Record(rec.AnchorID); ok {
			hit.Record = r
		}
	default:
		d.log.Debug("Marker not bound to a target", "anchorId", rec.AnchorID)
	}

	tokenNode.Dispose()
	return hit, true
}

// resolve finds the token and marker of a collision in either order.
func (d *Dispatcher) resolve(ev core.CollisionEvent) (token, marker *scene.Node, ok bool) {
	a, okA := d.sc.Node(ev.A)
	b, okB := d.sc.Node(ev.B)
	if !okA || !okB {
		return nil, nil, false
	}
	if isToken(a) && isMarker(b) {
		return a, b, true
	}
	if isToken(b) && isMarker(a) {
		return b, a, true
	}
	return nil, nil, false
}

func isToken(n *scene.Node) bool {
	_, ok := n.UserData.(*core.Token)
	return ok && !n.IsDisposed()
}

func isMarker(n *scene.Node) bool {
	_, ok := n.UserData.(core.MarkerRef)
	return ok && !n.IsDisposed()
}
