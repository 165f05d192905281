package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Node is a scene graph element with a local transform relative to its parent.
// Nodes are not safe for concurrent use; callers hold the owning Scene's lock.
type Node struct {
	ID   uint64
	Name string

	Parent   *Node
	children []*Node

	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	// Opacity is a visual hint for the renderer, 1 is opaque.
	Opacity float64
	// Radius of the collision sphere, 0 disables collisions.
	Radius float64

	// UserData carries the domain payload (*core.Token, core.MarkerRef).
	UserData any

	scene    *Scene
	disposed bool
}

// Transform returns the local transform.
func (n *Node) Transform() Transform {
	return Transform{Position: n.Position, Rotation: n.Rotation, Scale: n.Scale}
}

// SetTransform replaces the local transform.
func (n *Node) SetTransform(t Transform) {
	n.Position = t.Position
	n.Rotation = t.Rotation
	n.Scale = t.Scale
}

// SetMatrix replaces the local transform with a decomposed matrix.
func (n *Node) SetMatrix(m mgl64.Mat4) {
	n.SetTransform(Decompose(m))
}

// LocalMatrix returns the local transform as a matrix.
func (n *Node) LocalMatrix() mgl64.Mat4 {
	return n.Transform().Matrix()
}

// WorldMatrix returns the transform from this node's space to world space.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// ConvertToLocal maps a world-space point into this node's space.
func (n *Node) ConvertToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return n.WorldMatrix().Inv().Mul4x1(world.Vec4(1)).Vec3()
}

// SetWorldPosition moves the node so that its origin lands on p in world space.
func (n *Node) SetWorldPosition(p mgl64.Vec3) {
	if n.Parent == nil {
		n.Position = p
		return
	}
	n.Position = n.Parent.ConvertToLocal(p)
}

// LookAt places the node at from and turns its -Z axis toward target.
// The rotation is left alone when target and from coincide.
func (n *Node) LookAt(target, from, up mgl64.Vec3) {
	n.SetWorldPosition(from)
	q, ok := LookRotation(target.Sub(from), up)
	if !ok {
		return
	}
	if n.Parent != nil {
		parentRot := Decompose(n.Parent.WorldMatrix()).Rotation
		q = parentRot.Inverse().Mul(q)
	}
	n.Rotation = q
}

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("scene: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("scene: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// AddChildPreservingWorld reparents child under n without moving it in world space.
func (n *Node) AddChildPreservingWorld(child *Node) {
	world := child.WorldMatrix()
	n.AddChild(child)
	child.SetMatrix(n.WorldMatrix().Inv().Mul4(world))
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.removeChildByPtr(n)
	n.Parent = nil
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// Attached reports whether the node is reachable from its scene root.
func (n *Node) Attached() bool {
	if n.disposed || n.scene == nil {
		return false
	}
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	return root == n.scene.root
}

// Dispose removes this node from its parent, unregisters it from the scene
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	if n.scene != nil {
		n.scene.unregister(n)
	}
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
