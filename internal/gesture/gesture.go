// Package gesture turns hand pose samples into debounced gesture events.
//
// Classifiers are pure: Step takes the previous state and one sample and
// returns the next state plus the event the transition produced, if any.
package gesture

import (
	"context"

	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Event is a gesture transition.
type Event int

const (
	EventNone Event = iota
	EventRingOpen
	EventRingClose
	EventPeaceDetected
	EventPeaceLost
)

func (e Event) String() string {
	switch e {
	case EventRingOpen:
		return "ring-open"
	case EventRingClose:
		return "ring-close"
	case EventPeaceDetected:
		return "peace-detected"
	case EventPeaceLost:
		return "peace-lost"
	default:
		return "none"
	}
}

// Phase is the coarse state of a classifier.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseShowing
	PhaseClosing
	PhaseTracked
)

func (p Phase) String() string {
	switch p {
	case PhaseShowing:
		return "showing"
	case PhaseClosing:
		return "closing"
	case PhaseTracked:
		return "tracked"
	default:
		return "idle"
	}
}

// Run feeds samples to observe one at a time until ctx is cancelled or the
// stream ends. Samples arriving while active reports false are skipped.
func Run(ctx context.Context, samples <-chan core.HandSample, active func() bool, observe func(core.HandSample)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			if active != nil && !active() {
				continue
			}
			observe(s)
		}
	}
}
