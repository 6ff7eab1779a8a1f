package kinetix

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// contact describes a single resolved contact point. The normal points from
// body B towards body A, so A is pushed along it.
type contact struct {
	point       mgl32.Vec3
	normal      mgl32.Vec3
	penetration float32
}

// obb is an oriented box in world space.
type obb struct {
	center mgl32.Vec3
	axes   [3]mgl32.Vec3
	half   mgl32.Vec3
}

func makeOBB(center mgl32.Vec3, rot mgl32.Quat, half mgl32.Vec3) obb {
	m := rot.Mat4()
	return obb{
		center: center,
		axes: [3]mgl32.Vec3{
			m.Col(0).Vec3(),
			m.Col(1).Vec3(),
			m.Col(2).Vec3(),
		},
		half: half,
	}
}

func aabbOverlap(minA, maxA, minB, maxB mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if minA[i] > maxB[i] || minB[i] > maxA[i] {
			return false
		}
	}
	return true
}

func collideSpheres(pA mgl32.Vec3, rA float32, pB mgl32.Vec3, rB float32) (contact, bool) {
	d := pA.Sub(pB)
	distSq := d.LenSqr()
	rSum := rA + rB
	if distSq >= rSum*rSum {
		return contact{}, false
	}
	dist := math32.Sqrt(distSq)
	normal := mgl32.Vec3{0, 1, 0}
	if dist > epsilon {
		normal = d.Mul(1 / dist)
	}
	return contact{
		point:       pB.Add(normal.Mul(rB)),
		normal:      normal,
		penetration: rSum - dist,
	}, true
}

// collideSphereOBB tests a sphere (body A) against a box (body B) via the
// closest point on the box.
func collideSphereOBB(p mgl32.Vec3, r float32, box obb) (contact, bool) {
	d := p.Sub(box.center)
	closest := box.center
	for i := 0; i < 3; i++ {
		t := clampf(d.Dot(box.axes[i]), -box.half[i], box.half[i])
		closest = closest.Add(box.axes[i].Mul(t))
	}

	delta := p.Sub(closest)
	distSq := delta.LenSqr()
	if distSq >= r*r {
		return contact{}, false
	}

	if distSq > epsilon*epsilon {
		dist := math32.Sqrt(distSq)
		return contact{
			point:       closest,
			normal:      delta.Mul(1 / dist),
			penetration: r - dist,
		}, true
	}

	// Sphere center inside the box: push out along the face with the least
	// remaining depth.
	bestDepth := float32(math32.MaxFloat32)
	var bestNormal mgl32.Vec3
	for i := 0; i < 3; i++ {
		proj := d.Dot(box.axes[i])
		depth := box.half[i] - math32.Abs(proj)
		if depth < bestDepth {
			bestDepth = depth
			if proj >= 0 {
				bestNormal = box.axes[i]
			} else {
				bestNormal = box.axes[i].Mul(-1)
			}
		}
	}
	return contact{point: p, normal: bestNormal, penetration: bestDepth + r}, true
}

// collideOBBs runs the separating axis test over the 6 face normals and 9
// edge cross products. The axis of least overlap becomes the contact normal.
func collideOBBs(a, b obb) (contact, bool) {
	L := b.center.Sub(a.center)

	var testAxes []mgl32.Vec3
	for i := 0; i < 3; i++ {
		testAxes = append(testAxes, a.axes[i], b.axes[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := a.axes[i].Cross(b.axes[j])
			if cross.LenSqr() > 0.0001 {
				testAxes = append(testAxes, cross.Normalize())
			}
		}
	}

	minOverlap := float32(math32.MaxFloat32)
	var normal mgl32.Vec3
	for _, axis := range testAxes {
		overlap := projectedOverlap(a, b, axis, L)
		if overlap <= 0 {
			return contact{}, false
		}
		if overlap < minOverlap {
			minOverlap = overlap
			normal = axis
		}
	}

	// Normal must point from B to A.
	if L.Dot(normal) > 0 {
		normal = normal.Mul(-1)
	}

	return contact{
		point:       obbContactPoint(a, b),
		normal:      normal,
		penetration: minOverlap,
	}, true
}

func projectedOverlap(a, b obb, axis, L mgl32.Vec3) float32 {
	var projA, projB float32
	for i := 0; i < 3; i++ {
		projA += math32.Abs(a.axes[i].Dot(axis)) * a.half[i]
		projB += math32.Abs(b.axes[i].Dot(axis)) * b.half[i]
	}
	return projA + projB - math32.Abs(L.Dot(axis))
}

// obbContactPoint averages the corners of each box that lie inside the other,
// falling back to the midpoint when the overlap is corner-free (face-on-face).
func obbContactPoint(a, b obb) mgl32.Vec3 {
	var pts []mgl32.Vec3
	for _, p := range obbCorners(a) {
		if pointInOBB(p, b) {
			pts = append(pts, p)
		}
	}
	for _, p := range obbCorners(b) {
		if pointInOBB(p, a) {
			pts = append(pts, p)
		}
	}

	if len(pts) == 0 {
		return a.center.Add(b.center).Mul(0.5)
	}
	var avg mgl32.Vec3
	for _, p := range pts {
		avg = avg.Add(p)
	}
	return avg.Mul(1 / float32(len(pts)))
}

func obbCorners(box obb) [8]mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		p := box.center
		for axis := 0; axis < 3; axis++ {
			ext := box.axes[axis].Mul(box.half[axis])
			if i&(1<<axis) != 0 {
				p = p.Add(ext)
			} else {
				p = p.Sub(ext)
			}
		}
		corners[i] = p
	}
	return corners
}

func pointInOBB(p mgl32.Vec3, box obb) bool {
	d := p.Sub(box.center)
	for i := 0; i < 3; i++ {
		if math32.Abs(d.Dot(box.axes[i])) > box.half[i]+0.01 {
			return false
		}
	}
	return true
}
