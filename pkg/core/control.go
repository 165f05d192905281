package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned by persistence backends for an unknown anchor id.
var ErrRecordNotFound = errors.New("light control record not found")

// ControlKind is what a placed marker controls on the bridge.
type ControlKind int

const (
	KindNone ControlKind = iota
	KindLight
	KindGroup
)

func (k ControlKind) String() string {
	switch k {
	case KindLight:
		return "light"
	case KindGroup:
		return "group"
	default:
		return "none"
	}
}

// ParseControlKind converts a kind name back to a ControlKind.
func ParseControlKind(s string) (ControlKind, error) {
	switch s {
	case "light":
		return KindLight, nil
	case "group":
		return KindGroup, nil
	case "none", "":
		return KindNone, nil
	}
	return KindNone, fmt.Errorf("unknown control kind: %q", s)
}

func (k ControlKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ControlKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseControlKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LightControlRecord binds one spatial anchor to a light or group on the bridge.
// AnchorID never changes once assigned; a moved marker gets a new record identity.
type LightControlRecord struct {
	Kind       ControlKind `json:"kind"`
	TargetName string      `json:"targetName"`
	IsOn       bool        `json:"isOn"`
	AnchorID   uuid.UUID   `json:"anchorID"`
	// LastColor mirrors the last color sent to the target.
	LastColor *Color `json:"lastColor,omitempty"`
}

// Color is a bridge hue/saturation/brightness triple.
// Hue spans 0..65535, saturation and brightness 0..254.
type Color struct {
	Hue        int `json:"hue"`
	Saturation int `json:"sat"`
	Brightness int `json:"bri"`
}

// ColorFromDegrees builds a fully saturated, full brightness color from a hue angle.
func ColorFromDegrees(deg float64) Color {
	return Color{
		Hue:        int(deg / 360 * 65535),
		Saturation: 254,
		Brightness: 254,
	}
}

const (
	maxHue    = 65535
	maxSatBri = 254
)

// Clamped returns c with every channel inside the bridge's range.
func (c Color) Clamped() Color {
	return Color{
		Hue:        min(max(c.Hue, 0), maxHue),
		Saturation: min(max(c.Saturation, 0), maxSatBri),
		Brightness: ClampBrightness(c.Brightness),
	}
}

// ClampBrightness limits bri to 0..254.
func ClampBrightness(bri int) int {
	return min(max(bri, 0), maxSatBri)
}

// LightState is a partial state update sent to a light or group.
// Nil fields are left untouched by the bridge.
type LightState struct {
	On  *bool `json:"on,omitempty"`
	Hue *int  `json:"hue,omitempty"`
	Sat *int  `json:"sat,omitempty"`
	Bri *int  `json:"bri,omitempty"`
}

// ColorState turns a light on with the given color.
func ColorState(c Color) LightState {
	on := true
	return LightState{On: &on, Hue: &c.Hue, Sat: &c.Saturation, Bri: &c.Brightness}
}

// PowerState only switches a target on or off.
func PowerState(on bool) LightState {
	return LightState{On: &on}
}

// BrightnessState only changes brightness.
func BrightnessState(bri int) LightState {
	return LightState{Bri: &bri}
}

// LightStatus is the last known state reported by the bridge.
type LightStatus struct {
	On  bool `json:"on"`
	Bri int  `json:"bri"`
	Hue int  `json:"hue"`
	Sat int  `json:"sat"`
}
