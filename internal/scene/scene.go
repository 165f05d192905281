// Package scene is the in-process scene graph shared by the interaction
// managers: a content root, the nodes hanging off it, eased animations and the
// collision events reported by the physics collaborator.
package scene

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spatialhue/lightcontrol/internal/queue"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

// Scene owns the node tree. Tree mutation happens under Lock; ReportCollision
// may be called from any goroutine.
type Scene struct {
	mu sync.Mutex

	root   *Node
	nodes  map[uint64]*Node
	nextID uint64

	animator   *Animator
	collisions *queue.Queue[core.CollisionEvent]
}

// New creates a scene with an empty content root.
func New() *Scene {
	s := &Scene{
		nodes:      make(map[uint64]*Node),
		animator:   NewAnimator(),
		collisions: queue.New[core.CollisionEvent](),
	}
	s.root = s.NewNode("content-root")
	return s
}

// Lock acquires exclusive access to the tree.
func (s *Scene) Lock() {
	s.mu.Lock()
}

// Unlock releases the tree.
func (s *Scene) Unlock() {
	s.mu.Unlock()
}

// Root returns the content root.
func (s *Scene) Root() *Node {
	return s.root
}

// Animator returns the scene animator.
func (s *Scene) Animator() *Animator {
	return s.animator
}

// NewNode creates a detached node registered with this scene.
func (s *Scene) NewNode(name string) *Node {
	s.nextID++
	n := &Node{
		ID:       s.nextID,
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
		Opacity:  1,
		scene:    s,
	}
	s.nodes[n.ID] = n
	return n
}

// Node looks up a live node by id.
func (s *Scene) Node(id uint64) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of live nodes, root included.
func (s *Scene) Len() int {
	return len(s.nodes)
}

func (s *Scene) unregister(n *Node) {
	delete(s.nodes, n.ID)
	s.animator.cancel(n)
}

// ReportCollision queues a collision-begin between two nodes.
func (s *Scene) ReportCollision(a, b uint64) {
	s.collisions.Push(core.CollisionEvent{A: a, B: b})
}

// DrainCollisions returns the collisions reported since the last drain.
func (s *Scene) DrainCollisions() []core.CollisionEvent {
	return s.collisions.Drain()
}

// Update advances animations and timers by dt. Callers hold the lock.
func (s *Scene) Update(dt time.Duration) {
	s.animator.Update(dt)
}

// Overlapping returns pairs of attached nodes with collision spheres that
// intersect. The replay tool uses it as a stand-in physics collaborator.
func (s *Scene) Overlapping() []core.CollisionEvent {
	var bodies []*Node
	for _, n := range s.nodes {
		if n.Radius > 0 && n.Attached() {
			bodies = append(bodies, n)
		}
	}

	var hits []core.CollisionEvent
	for i := 0; i < len(bodies); i++ {
		pi := bodies[i].WorldPosition()
		for j := i + 1; j < len(bodies); j++ {
			if pi.Sub(bodies[j].WorldPosition()).Len() <= bodies[i].Radius+bodies[j].Radius {
				a, b := bodies[i].ID, bodies[j].ID
				if a > b {
					a, b = b, a
				}
				hits = append(hits, core.CollisionEvent{A: a, B: b})
			}
		}
	}
	return hits
}
