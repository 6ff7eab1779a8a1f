package kinetix

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type BodyType int

const (
	// BodyStatic never moves and has infinite effective mass.
	BodyStatic BodyType = iota
	// BodyDynamic is fully simulated: forces, gravity, collisions.
	BodyDynamic
	// BodyKinematic is driven by its node; its velocity field only matters
	// for collision response against dynamic bodies.
	BodyKinematic
)

type BodyId string

// DefaultDensity converts shape volume into a default mass for dynamic
// bodies constructed without an explicit mass.
const DefaultDensity float32 = 1.0

// bodyState is one buffer of the double-buffered motion state. The step
// driver integrates cur into next and commits next at the step boundary, so
// collision resolution always reads a stable snapshot.
type bodyState struct {
	pos    mgl32.Vec3
	rot    mgl32.Quat
	vel    mgl32.Vec3
	angVel mgl32.Vec3
}

// Body is a simulated rigid entity. A scene node owns at most one body; the
// body keeps a non-owning back-reference to its node.
type Body struct {
	id       BodyId
	bodyType BodyType
	shape    *Shape
	node     *Node
	world    *World

	// Physical coefficients. All plain fields on purpose: none of them needs
	// derived bookkeeping, unlike mass and the inertia tensor below.
	Charge          float32
	Friction        float32
	RollingFriction float32
	Restitution     float32
	Damping         float32
	AngularDamping  float32

	// Per-axis multipliers applied to simulation-driven node movement.
	// A zero component freezes that axis on the node without touching the
	// internal simulation state.
	VelocityFactor        mgl32.Vec3
	AngularVelocityFactor mgl32.Vec3

	IsAffectedByGravity bool
	AllowsResting       bool

	CategoryBitMask    uint32
	CollisionBitMask   uint32
	ContactTestBitMask uint32

	mass               float32
	invMass            float32
	inertia            mgl32.Vec3
	usesDefaultInertia bool

	cur  bodyState
	next bodyState

	netForce  mgl32.Vec3
	netTorque mgl32.Vec3

	// Rest-state machine.
	resting      bool
	restingSteps int
	stirred      bool // force/impulse/torque/reset seen since last step

	// Derived per step from the node's world scale.
	scaledExtents mgl32.Vec3
	scaledRadius  float32
	stepIndex     int
}

// NewBody is the general constructor. A nil shape means "derive a convex hull
// from the owning node's geometry at attach time".
func NewBody(t BodyType, shape *Shape) *Body {
	b := &Body{
		id:                    BodyId(uuid.NewString()),
		bodyType:              t,
		shape:                 shape,
		Friction:              0.5,
		Restitution:           0.5,
		VelocityFactor:        mgl32.Vec3{1, 1, 1},
		AngularVelocityFactor: mgl32.Vec3{1, 1, 1},
		IsAffectedByGravity:   t == BodyDynamic,
		AllowsResting:         true,
		CategoryBitMask:       1,
		CollisionBitMask:      ^uint32(0),
		usesDefaultInertia:    true,
	}
	b.cur.rot = mgl32.QuatIdent()
	b.next.rot = mgl32.QuatIdent()

	if t == BodyDynamic && shape != nil {
		b.SetMass(shape.Volume() * DefaultDensity)
	}
	return b
}

// NewStaticBody creates a body that never moves (floors, walls).
func NewStaticBody(shape *Shape) *Body { return NewBody(BodyStatic, shape) }

// NewDynamicBody creates a fully simulated body. With a shape present the
// default mass is volume times DefaultDensity.
func NewDynamicBody(shape *Shape) *Body { return NewBody(BodyDynamic, shape) }

// NewKinematicBody creates a body whose transform is driven externally
// through its node.
func NewKinematicBody(shape *Shape) *Body { return NewBody(BodyKinematic, shape) }

func (b *Body) Id() BodyId     { return b.id }
func (b *Body) Type() BodyType { return b.bodyType }
func (b *Body) Shape() *Shape  { return b.shape }

// Node returns the owning scene node, nil while detached.
func (b *Body) Node() *Node { return b.node }

func (b *Body) Mass() float32 { return b.mass }

// SetMass updates the mass of a dynamic body. Static and kinematic bodies
// never accelerate, so their mass stays pinned at zero. Non-positive masses
// are kept (degenerate but tolerated) until attach, where the world clamps
// them up to its configured minimum.
func (b *Body) SetMass(mass float32) {
	if b.bodyType != BodyDynamic {
		return
	}
	b.mass = mass
	if mass > 0 {
		b.invMass = 1 / mass
	} else {
		b.invMass = 0
	}
	if b.usesDefaultInertia {
		b.recomputeInertia()
	}
}

func (b *Body) recomputeInertia() {
	if b.shape != nil {
		b.inertia = b.shape.InertiaDiagonal(b.mass)
	} else {
		// Unit box fallback until a shape is derived at attach time.
		b.inertia = mgl32.Vec3{b.mass / 6, b.mass / 6, b.mass / 6}
	}
}

// MomentOfInertia returns the diagonal of the local inertia tensor.
func (b *Body) MomentOfInertia() mgl32.Vec3 { return b.inertia }

// SetMomentOfInertia overrides the automatically derived tensor diagonal and
// clears UsesDefaultMomentOfInertia.
func (b *Body) SetMomentOfInertia(diag mgl32.Vec3) {
	b.inertia = diag
	b.usesDefaultInertia = false
}

func (b *Body) UsesDefaultMomentOfInertia() bool { return b.usesDefaultInertia }

func (b *Body) Position() mgl32.Vec3    { return b.cur.pos }
func (b *Body) Orientation() mgl32.Quat { return b.cur.rot }

func (b *Body) Velocity() mgl32.Vec3 { return b.cur.vel }

func (b *Body) SetVelocity(v mgl32.Vec3) {
	if b.bodyType == BodyStatic {
		return
	}
	b.cur.vel = v
	b.wake()
}

// AngularVelocity reports the angular velocity as a rotation axis plus a
// scalar speed in the fourth component (radians per second).
func (b *Body) AngularVelocity() mgl32.Vec4 {
	w := b.cur.angVel
	speed := w.Len()
	if speed < epsilon {
		return mgl32.Vec4{0, 0, 0, 0}
	}
	axis := w.Mul(1 / speed)
	return mgl32.Vec4{axis.X(), axis.Y(), axis.Z(), speed}
}

// SetAngularVelocity takes axis-plus-speed form; the axis need not be
// normalized.
func (b *Body) SetAngularVelocity(axisSpeed mgl32.Vec4) {
	if b.bodyType == BodyStatic {
		return
	}
	axis := axisSpeed.Vec3()
	if axis.LenSqr() < epsilon*epsilon {
		b.cur.angVel = mgl32.Vec3{}
	} else {
		b.cur.angVel = axis.Normalize().Mul(axisSpeed.W())
	}
	b.wake()
}

// IsResting reports the debounced low-energy state. Resting bodies skip
// integration but still block other bodies.
func (b *Body) IsResting() bool { return b.resting }

func (b *Body) wake() {
	b.resting = false
	b.restingSteps = 0
	b.stirred = true
}

// ApplyForce applies a force (or, with impulse=true, an instantaneous change
// of momentum) at the center of mass. Static and kinematic bodies discard the
// write: they never integrate motion.
func (b *Body) ApplyForce(direction mgl32.Vec3, impulse bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	b.wake()
	if impulse {
		b.cur.vel = b.cur.vel.Add(direction.Mul(b.safeInvMass()))
		return
	}
	b.netForce = b.netForce.Add(direction)
}

// ApplyForceAt applies a force at a point given in the body's local frame.
// An off-center point induces torque: cross(at, direction).
func (b *Body) ApplyForceAt(direction, at mgl32.Vec3, impulse bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	b.wake()
	torque := at.Cross(direction)
	if impulse {
		b.cur.vel = b.cur.vel.Add(direction.Mul(b.safeInvMass()))
		b.cur.angVel = b.cur.angVel.Add(compDiv(torque, b.inertia))
		return
	}
	b.netForce = b.netForce.Add(direction)
	b.netTorque = b.netTorque.Add(torque)
}

// ApplyTorque applies a pure rotational effect with no linear contribution.
func (b *Body) ApplyTorque(torque mgl32.Vec3, impulse bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	b.wake()
	if impulse {
		b.cur.angVel = b.cur.angVel.Add(compDiv(torque, b.inertia))
		return
	}
	b.netTorque = b.netTorque.Add(torque)
}

// ClearAllForces zeroes the pending force and torque accumulators for the
// current step. Impulses already landed in the velocities and are not undone.
func (b *Body) ClearAllForces() {
	b.netForce = mgl32.Vec3{}
	b.netTorque = mgl32.Vec3{}
}

func (b *Body) safeInvMass() float32 {
	if b.invMass > 0 {
		return b.invMass
	}
	return 0
}

// ResetTransform re-seeds the simulation state from the owning node's current
// world transform, discarding any simulation drift since the last write-back.
// Call it after moving a node directly. Detached bodies ignore the call.
func (b *Body) ResetTransform() {
	if b.node == nil {
		return
	}
	pos, rot, _ := b.node.worldTRS()
	b.cur.pos = pos
	b.cur.rot = rot
	b.wake()
}

// seedFromNode is the attach-time variant of ResetTransform; it does not stir
// the rest-state machine.
func (b *Body) seedFromNode() {
	pos, rot, _ := b.node.worldTRS()
	b.cur.pos = pos
	b.cur.rot = rot
	b.next = b.cur
}

// refreshScaledGeometry bakes the node's world scale into the collision
// extents for this step. Spheres scale by the largest axis.
func (b *Body) refreshScaledGeometry() {
	scale := mgl32.Vec3{1, 1, 1}
	if b.node != nil {
		_, _, s := b.node.worldTRS()
		scale = vec3Abs(s)
	}
	if b.shape == nil {
		b.scaledExtents = scale.Mul(0.5)
		return
	}
	b.scaledExtents = compMul(b.shape.halfExtents, scale)
	for i := 0; i < 3; i++ {
		if b.scaledExtents[i] < 0.001 {
			b.scaledExtents[i] = 0.001
		}
	}
	if b.shape.kind == ShapeSphere {
		maxScale := math32.Max(scale.X(), math32.Max(scale.Y(), scale.Z()))
		b.scaledRadius = b.shape.radius * maxScale
		r := b.scaledRadius
		b.scaledExtents = mgl32.Vec3{r, r, r}
	}
}

// worldAABB returns the axis-aligned bounds of the body's collision volume in
// its post-integration pose.
func (b *Body) worldAABB() (min, max mgl32.Vec3) {
	if b.shape != nil && b.shape.kind == ShapeSphere {
		r := mgl32.Vec3{b.scaledRadius, b.scaledRadius, b.scaledRadius}
		return b.next.pos.Sub(r), b.next.pos.Add(r)
	}
	m := b.next.rot.Mat4()
	var half mgl32.Vec3
	for k := 0; k < 3; k++ {
		var e float32
		for j := 0; j < 3; j++ {
			e += math32.Abs(m.At(k, j)) * b.scaledExtents[j]
		}
		half[k] = e
	}
	return b.next.pos.Sub(half), b.next.pos.Add(half)
}
