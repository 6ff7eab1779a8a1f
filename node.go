package kinetix

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNodeOccupied is returned when attaching a body to a node that
	// already owns one.
	ErrNodeOccupied = errors.New("kinetix: node already owns a body")
	// ErrBodyAttached is returned when attaching a body twice.
	ErrBodyAttached = errors.New("kinetix: body is already attached")
	// ErrShapeUnresolved is returned when a body has no shape and the node
	// has no geometry to derive one from.
	ErrShapeUnresolved = errors.New("kinetix: no shape and no node geometry to derive one")
)

// GeometrySource supplies a vertex cloud for bodies created without an
// explicit shape; the attach path derives a convex hull from it. Renderable
// geometry lives outside this package, so it comes in through this interface.
type GeometrySource interface {
	CollisionPoints() []mgl32.Vec3
}

// Node is one element of the scene graph: a local TRS transform, a parent
// link, children, and at most one owned physics body.
type Node struct {
	Name string

	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	// Geometry optionally backs shape derivation for shapeless bodies.
	Geometry GeometrySource

	parent   *Node
	children []*Node
	body     *Body
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Children() []*Node { return n.children }

// Body returns the owned physics body, nil if none.
func (n *Node) Body() *Body { return n.body }

func (n *Node) AddChild(child *Node) {
	if child.parent != nil {
		child.RemoveFromParent()
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) RemoveFromParent() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// worldTRS walks up the parent chain and composes the world transform:
// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos),
// WorldRot = ParentRot * LocalRot, WorldScale = ParentScale * LocalScale.
// Components propagate directly to preserve scale signs.
func (n *Node) worldTRS() (pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	pos, rot, scale = n.Position, n.Rotation, n.Scale
	for p := n.parent; p != nil; p = p.parent {
		pos = p.Position.Add(p.Rotation.Rotate(compMul(p.Scale, pos)))
		rot = p.Rotation.Mul(rot).Normalize()
		scale = compMul(p.Scale, scale)
	}
	return pos, rot, scale
}

// WorldPosition returns the node's position in world space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	pos, _, _ := n.worldTRS()
	return pos
}

// WorldRotation returns the node's orientation in world space.
func (n *Node) WorldRotation() mgl32.Quat {
	_, rot, _ := n.worldTRS()
	return rot
}

// setWorldTRS writes a world-space position and rotation back into the node's
// local fields, undoing the parent chain.
func (n *Node) setWorldTRS(pos mgl32.Vec3, rot mgl32.Quat) {
	if n.parent == nil {
		n.Position = pos
		n.Rotation = rot
		return
	}
	pPos, pRot, pScale := n.parent.worldTRS()
	inv := pRot.Conjugate()
	local := inv.Rotate(pos.Sub(pPos))
	// Undo the parent scale; a zero scale axis cannot be inverted and keeps
	// the previous local coordinate.
	for i := 0; i < 3; i++ {
		if s := pScale[i]; s > epsilon || s < -epsilon {
			local[i] /= s
		} else {
			local[i] = n.Position[i]
		}
	}
	n.Position = local
	n.Rotation = inv.Mul(rot).Normalize()
}

// attachBody wires the ownership pair, deriving a shape and a default mass
// where the body was constructed without them.
func (n *Node) attachBody(b *Body) error {
	if n.body != nil {
		return ErrNodeOccupied
	}
	if b.node != nil {
		return ErrBodyAttached
	}
	if b.shape == nil {
		if n.Geometry == nil {
			return ErrShapeUnresolved
		}
		shape, err := NewConvexHullShape(n.Geometry.CollisionPoints())
		if err != nil {
			return err
		}
		b.shape = shape
		if b.bodyType == BodyDynamic && b.mass == 0 {
			b.SetMass(shape.Volume() * DefaultDensity)
		}
		if b.usesDefaultInertia {
			b.recomputeInertia()
		}
	}
	n.body = b
	b.node = n
	b.seedFromNode()
	return nil
}

func (n *Node) detachBody() {
	if n.body == nil {
		return
	}
	n.body.node = nil
	n.body = nil
}
