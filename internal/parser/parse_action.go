package parser

import (
	"errors"
	"fmt"

	"github.com/spatialhue/lightcontrol/internal/geo"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

var errMissingAnchor = errors.New("missing anchor reference")

// parseAction converts an input line into an Action.
func (p *Parser) parseAction(raw rawLine) (Action, error) {
	result := Action{Kind: ActionKind(raw.Type)}

	switch result.Kind {
	case ActionMode:
		mode, err := core.ParseInteractionMode(raw.Mode)
		if err != nil {
			return result, err
		}
		result.Mode = mode

	case ActionPlace:
		kind, err := core.ParseControlKind(raw.Kind)
		if err != nil {
			return result, err
		}
		result.ControlKind = kind
		result.Target = raw.Target
		if raw.InFront {
			result.InFront = true
			break
		}
		result.Pose, err = geo.PoseFromSlices(raw.Matrix, raw.Pos, raw.Rot)
		if err != nil {
			return result, fmt.Errorf("error parsing place pose: %w", err)
		}

	case ActionMove:
		if raw.Anchor == "" {
			return result, errMissingAnchor
		}
		result.Anchor = raw.Anchor
		pose, err := geo.PoseFromSlices(raw.Matrix, raw.Pos, raw.Rot)
		if err != nil {
			return result, fmt.Errorf("error parsing move pose: %w", err)
		}
		result.Pose = pose

	case ActionRemove, ActionSelect, ActionToggle:
		// an empty reference means the current selection
		result.Anchor = raw.Anchor

	case ActionColor:
		if raw.Color == nil {
			return result, errors.New("color needs color")
		}
		result.Anchor = raw.Anchor
		result.Color = *raw.Color

	case ActionBrightness:
		if raw.Bri == nil {
			return result, errors.New("brightness needs bri")
		}
		result.Anchor = raw.Anchor
		result.Brightness = *raw.Bri

	case ActionTarget:
		if raw.Anchor == "" {
			return result, errMissingAnchor
		}
		kind, err := core.ParseControlKind(raw.Kind)
		if err != nil {
			return result, err
		}
		result.Anchor = raw.Anchor
		result.ControlKind = kind
		result.Target = raw.Target

	case ActionEditing:
		if raw.On == nil {
			return result, errors.New("editing needs on")
		}
		result.On = *raw.On

	case ActionDrag:
		src, err := parseSource(raw.Source)
		if err != nil {
			return result, err
		}
		result.Source = src
		result.Token = raw.Token
		result.Begin = raw.Begin
		result.Position, err = geo.Vec3FromSlice(raw.Pos)
		if err != nil {
			return result, fmt.Errorf("error parsing drag position: %w", err)
		}

	case ActionRelease:
		src, err := parseSource(raw.Source)
		if err != nil {
			return result, err
		}
		result.Source = src

	default:
		return result, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}

	return result, nil
}

func parseSource(s string) (DragSource, error) {
	switch DragSource(s) {
	case DragRing, DragSlingshot:
		return DragSource(s), nil
	}
	return "", fmt.Errorf("unknown drag source %q", s)
}
