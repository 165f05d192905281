package parser

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// EntryKind tells which payload of an Entry is set.
type EntryKind string

const (
	EntryHand   EntryKind = "hand"
	EntryDevice EntryKind = "device"
	EntryAction EntryKind = "action"
)

// ActionKind is a user input recorded alongside the pose stream.
type ActionKind string

const (
	ActionMode       ActionKind = "mode"
	ActionPlace      ActionKind = "place"
	ActionMove       ActionKind = "move"
	ActionRemove     ActionKind = "remove"
	ActionSelect     ActionKind = "select"
	ActionTarget     ActionKind = "target"
	ActionToggle     ActionKind = "toggle"
	ActionColor      ActionKind = "color"
	ActionBrightness ActionKind = "brightness"
	ActionEditing    ActionKind = "editing"
	ActionDrag       ActionKind = "drag"
	ActionRelease    ActionKind = "release"
)

// DragSource names the session a drag acts on.
type DragSource string

const (
	DragRing      DragSource = "ring"
	DragSlingshot DragSource = "slingshot"
)

// Entry is one parsed line of a recorded session.
type Entry struct {
	Line int
	// At is the offset from the start of the recording.
	At     time.Duration
	Kind   EntryKind
	Hand   core.HandSample
	Device mgl64.Mat4
	Action Action
}

// Action is a parsed user input. Only the fields of its Kind are set.
type Action struct {
	Kind ActionKind

	Mode core.InteractionMode

	// Anchor refers to a record: a uuid, or "#n" for the anchor placed n-th
	// (from #0) during the replay.
	Anchor string
	// Pose is set for place and move. InFront places relative to the device
	// instead.
	Pose    mgl64.Mat4
	InFront bool

	ControlKind core.ControlKind
	Target      string
	On          bool
	Color       core.Color
	Brightness  int

	Source DragSource
	// Token is the ring slot picked up by a ring drag.
	Token int
	// Begin marks the first update of a drag.
	Begin    bool
	Position mgl64.Vec3
}

// rawLine is the JSON shape of every session line.
type rawLine struct {
	T    float64 `json:"t"`
	Type string  `json:"type"`

	// hand
	Hand    string              `json:"hand"`
	Tracked *bool               `json:"tracked"`
	Joints  map[string]rawJoint `json:"joints"`

	// poses: hand origin, device, place/move target
	Matrix []float64 `json:"matrix"`
	Pos    []float64 `json:"pos"`
	Rot    []float64 `json:"rot"`

	// actions
	Mode    string      `json:"mode"`
	Anchor  string      `json:"anchor"`
	Kind    string      `json:"kind"`
	Target  string      `json:"target"`
	On      *bool       `json:"on"`
	InFront bool        `json:"inFront"`
	Source  string      `json:"source"`
	Token   int         `json:"token"`
	Begin   bool        `json:"begin"`
	Color   *core.Color `json:"color"`
	Bri     *int        `json:"bri"`
}

type rawJoint struct {
	Tracked *bool     `json:"tracked"`
	Matrix  []float64 `json:"matrix"`
	Pos     []float64 `json:"pos"`
	Rot     []float64 `json:"rot"`
}
