package kinetix

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeConvexHull
)

type ShapeId string

// ErrDegenerateHull is returned when a convex hull has too few points to
// enclose any volume.
var ErrDegenerateHull = errors.New("kinetix: convex hull needs at least 4 points")

// Shape is an immutable collision geometry descriptor. Shapes are shared:
// any number of bodies may reference the same Shape and none of them owns it.
type Shape struct {
	id   ShapeId
	kind ShapeKind

	halfExtents mgl32.Vec3 // box, and the best-fit box of a hull
	radius      float32    // sphere

	points []mgl32.Vec3 // hull vertices, local space

	boundMin mgl32.Vec3
	boundMax mgl32.Vec3
	volume   float32
}

func makeShapeId() ShapeId {
	return ShapeId(uuid.NewString())
}

// NewBoxShape creates a box with the given half extents. Components below a
// small minimum are bumped up; zero-thickness boxes break the overlap math.
func NewBoxShape(halfExtents mgl32.Vec3) *Shape {
	for i := 0; i < 3; i++ {
		if halfExtents[i] < 0.001 {
			halfExtents[i] = 0.001
		}
	}
	return &Shape{
		id:          makeShapeId(),
		kind:        ShapeBox,
		halfExtents: halfExtents,
		boundMin:    halfExtents.Mul(-1),
		boundMax:    halfExtents,
		volume:      8 * halfExtents.X() * halfExtents.Y() * halfExtents.Z(),
	}
}

func NewSphereShape(radius float32) *Shape {
	if radius < 0.001 {
		radius = 0.001
	}
	r := mgl32.Vec3{radius, radius, radius}
	return &Shape{
		id:       makeShapeId(),
		kind:     ShapeSphere,
		radius:   radius,
		boundMin: r.Mul(-1),
		boundMax: r,
		volume:   (4.0 / 3.0) * math32.Pi * radius * radius * radius,
	}
}

// NewConvexHullShape builds a shape from an explicit vertex cloud. Collision
// response uses the hull's best-fit local box; the vertex set is kept for
// callers that need the exact cloud.
func NewConvexHullShape(points []mgl32.Vec3) (*Shape, error) {
	if len(points) < 4 {
		return nil, ErrDegenerateHull
	}
	min := points[0]
	max := points[0]
	for _, p := range points[1:] {
		min = vec3Min(min, p)
		max = vec3Max(max, p)
	}
	center := min.Add(max).Mul(0.5)
	half := max.Sub(min).Mul(0.5)
	for i := 0; i < 3; i++ {
		if half[i] < 0.001 {
			half[i] = 0.001
		}
	}

	own := make([]mgl32.Vec3, len(points))
	for i, p := range points {
		own[i] = p.Sub(center)
	}

	return &Shape{
		id:          makeShapeId(),
		kind:        ShapeConvexHull,
		halfExtents: half,
		points:      own,
		boundMin:    half.Mul(-1),
		boundMax:    half,
		volume:      8 * half.X() * half.Y() * half.Z(),
	}, nil
}

func (s *Shape) Id() ShapeId     { return s.id }
func (s *Shape) Kind() ShapeKind { return s.kind }
func (s *Shape) Radius() float32 { return s.radius }

func (s *Shape) HalfExtents() mgl32.Vec3 { return s.halfExtents }

// Points returns a copy of the hull vertex cloud (re-centered on the hull's
// bounds center), nil for primitive shapes.
func (s *Shape) Points() []mgl32.Vec3 {
	if s.points == nil {
		return nil
	}
	out := make([]mgl32.Vec3, len(s.points))
	copy(out, s.points)
	return out
}

// Bounds returns the local-space AABB.
func (s *Shape) Bounds() (min, max mgl32.Vec3) {
	return s.boundMin, s.boundMax
}

func (s *Shape) Volume() float32 { return s.volume }

// InertiaDiagonal returns the diagonal of the local inertia tensor for the
// given mass. Hulls use their best-fit box formula.
func (s *Shape) InertiaDiagonal(mass float32) mgl32.Vec3 {
	switch s.kind {
	case ShapeSphere:
		i := 0.4 * mass * s.radius * s.radius
		return mgl32.Vec3{i, i, i}
	default:
		// Solid box: I_x = m/12 * (h^2 + d^2), full extents.
		w := 2 * s.halfExtents.X()
		h := 2 * s.halfExtents.Y()
		d := 2 * s.halfExtents.Z()
		k := mass / 12.0
		return mgl32.Vec3{
			k * (h*h + d*d),
			k * (w*w + d*d),
			k * (w*w + h*h),
		}
	}
}
