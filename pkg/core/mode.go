package core

import "fmt"

// InteractionMode selects which gesture drives the scene.
type InteractionMode int

const (
	ModeLookAndPinch InteractionMode = iota
	ModeSlingshot
	ModeRing
)

func (m InteractionMode) String() string {
	switch m {
	case ModeSlingshot:
		return "slingshot"
	case ModeRing:
		return "ring"
	default:
		return "look_and_pinch"
	}
}

// ParseInteractionMode converts a mode name back to an InteractionMode.
func ParseInteractionMode(s string) (InteractionMode, error) {
	switch s {
	case "look_and_pinch":
		return ModeLookAndPinch, nil
	case "slingshot":
		return ModeSlingshot, nil
	case "ring":
		return ModeRing, nil
	}
	return ModeLookAndPinch, fmt.Errorf("unknown interaction mode: %q", s)
}
