package slingshot

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/scene"
)

// QuadraticBezier evaluates (1−t)²·p0 + 2(1−t)t·p1 + t²·p2.
func QuadraticBezier(p0, p1, p2 mgl64.Vec3, t float64) mgl64.Vec3 {
	u := 1 - t
	return p0.Mul(u * u).Add(p1.Mul(2 * u * t)).Add(p2.Mul(t * t))
}

// PreviewConfig shapes the predicted arc.
type PreviewConfig struct {
	Length      float64
	ArcHeight   float64
	Samples     int
	PointRadius float64
}

// PreviewPoints samples the arc a launch from start with impulse would take.
// It returns nil for a zero impulse.
func PreviewPoints(start, impulse mgl64.Vec3, cfg PreviewConfig) []mgl64.Vec3 {
	if impulse.Len() == 0 || cfg.Samples <= 0 {
		return nil
	}
	end := start.Add(impulse.Normalize().Mul(cfg.Length))
	control := start.Add(end).Mul(0.5).Add(mgl64.Vec3{0, cfg.ArcHeight, 0})

	points := make([]mgl64.Vec3, cfg.Samples)
	for i := range points {
		t := 0.0
		if cfg.Samples > 1 {
			t = float64(i) / float64(cfg.Samples-1)
		}
		points[i] = QuadraticBezier(start, control, end, t)
	}
	return points
}

// Trajectory keeps one marker node per preview point under a parent.
type Trajectory struct {
	sc      *scene.Scene
	parent  *scene.Node
	cfg     PreviewConfig
	markers []*scene.Node
}

// NewTrajectory creates an empty preview attached to parent.
func NewTrajectory(sc *scene.Scene, parent *scene.Node, cfg PreviewConfig) *Trajectory {
	return &Trajectory{sc: sc, parent: parent, cfg: cfg}
}

// Update redraws the preview for a launch from start.
func (t *Trajectory) Update(start, impulse mgl64.Vec3) {
	points := PreviewPoints(start, impulse, t.cfg)
	for len(t.markers) < len(points) {
		n := t.sc.NewNode(fmt.Sprintf("trajectory-%d", len(t.markers)))
		n.Scale = mgl64.Vec3{t.cfg.PointRadius, t.cfg.PointRadius, t.cfg.PointRadius}
		t.parent.AddChild(n)
		t.markers = append(t.markers, n)
	}
	for len(t.markers) > len(points) {
		last := t.markers[len(t.markers)-1]
		last.Dispose()
		t.markers = t.markers[:len(t.markers)-1]
	}
	for i, p := range points {
		t.markers[i].SetWorldPosition(p)
	}
}

// Markers returns the preview nodes.
func (t *Trajectory) Markers() []*scene.Node {
	return t.markers
}

// Clear removes every preview node.
func (t *Trajectory) Clear() {
	for _, m := range t.markers {
		m.Dispose()
	}
	t.markers = nil
}
