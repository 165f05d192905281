// Package replay drives the control core from a recorded session: hand
// samples reach the active classifier, device poses move the viewer, and
// recorded inputs become store and session calls. Simulated time advances by
// the recorded offsets, and the store's move settle delay is waited out on the
// same clock, so a replay is deterministic and does not sleep.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/anchors"
	"github.com/spatialhue/lightcontrol/internal/interaction"
	"github.com/spatialhue/lightcontrol/internal/parser"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// ErrUnknownReference is returned for an anchor reference that names no
// placement of this replay.
var ErrUnknownReference = errors.New("unknown anchor reference")

// Interaction is the mode manager side of the core.
type Interaction interface {
	Observe(s core.HandSample)
	SetMode(mode core.InteractionMode) error
	Tick(dt time.Duration) int
	Ring() *interaction.RingSession
	Slingshot() *interaction.SlingshotSession
}

// World is the in-process tracking provider the replay runs against.
type World interface {
	Events() <-chan core.AnchorEvent
	SetDeviceTransform(m mgl64.Mat4)
}

// Config tunes the simulation clock.
type Config struct {
	// Step bounds every tick between two entries.
	Step time.Duration
	// Tail keeps the simulation running after the last entry so launched
	// tokens can land.
	Tail time.Duration
}

// Dependencies holds the collaborators of a Runner.
type Dependencies struct {
	Interaction Interaction
	Anchors     *anchors.Store
	World       World
	Logger      *slog.Logger
}

// Result summarises a replay.
type Result struct {
	Entries  int
	Samples  int
	Actions  int
	Failed   int
	Hits     int
	Duration time.Duration
}

// Runner applies parsed entries in order. It is not safe for concurrent use.
type Runner struct {
	cfg  Config
	deps Dependencies
	log  *slog.Logger

	now    time.Duration
	placed []uuid.UUID
	result Result
}

// New creates a runner at simulated time zero.
func New(cfg Config, deps Dependencies) *Runner {
	if cfg.Step <= 0 {
		cfg.Step = 20 * time.Millisecond
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := &Runner{
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.With("component", "replay"),
	}
	if deps.Anchors != nil {
		deps.Anchors.SetSleep(r.sleep)
	}
	return r
}

// sleep waits out d in simulated time, ticking the core as it goes.
func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.advance(r.now + d)
	return nil
}

// Run reads a session from src and applies every entry, then runs the tail.
func (r *Runner) Run(ctx context.Context, p *parser.Parser, src io.Reader) (Result, error) {
	err := p.Read(ctx, src, func(e parser.Entry) error {
		return r.Apply(ctx, e)
	})
	if err != nil {
		return r.result, err
	}
	r.advance(r.now + r.cfg.Tail)
	r.pump()

	r.log.Info("Replay finished",
		"entries", r.result.Entries,
		"actions", r.result.Actions,
		"failed", r.result.Failed,
		"hits", r.result.Hits,
		"duration", r.result.Duration)
	return r.result, nil
}

// Apply advances the clock to e.At and applies e. Failed actions are logged
// and counted, not returned.
func (r *Runner) Apply(ctx context.Context, e parser.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.advance(e.At)
	r.result.Entries++

	switch e.Kind {
	case parser.EntryHand:
		r.result.Samples++
		r.deps.Interaction.Observe(e.Hand)
	case parser.EntryDevice:
		r.deps.World.SetDeviceTransform(e.Device)
	case parser.EntryAction:
		r.result.Actions++
		if err := r.act(ctx, e.Action); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.result.Failed++
			r.log.Warn("Action failed", "line", e.Line, "action", string(e.Action.Kind), "error", err)
		}
	}

	r.pump()
	return nil
}

// Placed returns the anchor ids placed so far, indexed like "#n" references.
func (r *Runner) Placed() []uuid.UUID {
	return append([]uuid.UUID(nil), r.placed...)
}

// Result returns the counters so far.
func (r *Runner) Result() Result {
	return r.result
}

// advance ticks the core up to at. Entries recorded out of order do not move
// the clock back.
func (r *Runner) advance(at time.Duration) {
	for r.now < at {
		dt := min(r.cfg.Step, at-r.now)
		r.result.Hits += r.deps.Interaction.Tick(dt)
		r.now += dt
		r.pump()
	}
	r.result.Duration = r.now
}

// pump hands queued anchor events to the store.
func (r *Runner) pump() {
	for {
		select {
		case ev, ok := <-r.deps.World.Events():
			if !ok {
				return
			}
			r.deps.Anchors.HandleEvent(ev)
		default:
			return
		}
	}
}

func (r *Runner) act(ctx context.Context, a parser.Action) error {
	store := r.deps.Anchors

	switch a.Kind {
	case parser.ActionMode:
		return r.deps.Interaction.SetMode(a.Mode)

	case parser.ActionPlace:
		var rec core.LightControlRecord
		var err error
		if a.InFront {
			rec, err = store.PlaceInFront(ctx, a.ControlKind)
		} else {
			rec, err = store.Place(ctx, a.Pose, a.ControlKind, nil)
		}
		if rec.AnchorID != uuid.Nil {
			r.placed = append(r.placed, rec.AnchorID)
		}
		if err != nil {
			return err
		}
		if a.Target != "" {
			return store.SetTarget(rec.AnchorID, a.ControlKind, a.Target)
		}
		return nil

	case parser.ActionMove:
		idx, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		rec, err := store.Move(ctx, id, a.Pose)
		if err != nil {
			return err
		}
		if idx >= 0 {
			r.placed[idx] = rec.AnchorID
		}
		return nil

	case parser.ActionRemove:
		if a.Anchor == "" {
			return store.RemoveSelected(ctx)
		}
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		return store.Remove(ctx, id)

	case parser.ActionSelect:
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		return store.Select(id)

	case parser.ActionTarget:
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		return store.SetTarget(id, a.ControlKind, a.Target)

	case parser.ActionToggle:
		if a.Anchor == "" {
			_, err := store.ToggleSelected()
			return err
		}
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		_, err = store.Toggle(id)
		return err

	case parser.ActionColor:
		if a.Anchor == "" {
			return store.SetColorSelected(a.Color)
		}
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		return store.SetColor(id, a.Color)

	case parser.ActionBrightness:
		if a.Anchor == "" {
			return store.SetBrightnessSelected(a.Brightness)
		}
		_, id, err := r.resolve(a.Anchor)
		if err != nil {
			return err
		}
		return store.SetBrightness(id, a.Brightness)

	case parser.ActionEditing:
		store.SetEditing(a.On)
		return nil

	case parser.ActionDrag:
		return r.drag(a)

	case parser.ActionRelease:
		return r.release(a.Source)
	}
	return fmt.Errorf("%w: %q", parser.ErrUnknownType, a.Kind)
}

func (r *Runner) drag(a parser.Action) error {
	switch a.Source {
	case parser.DragRing:
		ring := r.deps.Interaction.Ring()
		if a.Begin {
			if _, err := ring.BeginDrag(a.Token); err != nil {
				return err
			}
		}
		_, err := ring.UpdateDrag(a.Position)
		return err

	case parser.DragSlingshot:
		sling := r.deps.Interaction.Slingshot()
		if a.Begin {
			return sling.BeginDrag(a.Position)
		}
		_, err := sling.UpdateDrag(a.Position)
		return err
	}
	return fmt.Errorf("unknown drag source %q", a.Source)
}

func (r *Runner) release(src parser.DragSource) error {
	switch src {
	case parser.DragRing:
		_, err := r.deps.Interaction.Ring().Release()
		return err
	case parser.DragSlingshot:
		_, err := r.deps.Interaction.Slingshot().Release()
		return err
	}
	return fmt.Errorf("unknown drag source %q", src)
}

// resolve turns a uuid or "#n" reference into an anchor id. idx is the
// placement index for "#n" references and -1 otherwise.
func (r *Runner) resolve(ref string) (idx int, id uuid.UUID, err error) {
	if ref == "" {
		return -1, uuid.Nil, fmt.Errorf("%w: empty", ErrUnknownReference)
	}
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= len(r.placed) {
			return -1, uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
		}
		return i, r.placed[i], nil
	}
	id, err = uuid.Parse(ref)
	if err != nil {
		return -1, uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	return -1, id, nil
}
