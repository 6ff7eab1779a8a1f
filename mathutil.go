package kinetix

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// compMul multiplies two vectors component-wise.
func compMul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

// compDiv divides a by b component-wise, mapping divisions by (near) zero to zero.
func compDiv(a, b mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		if math32.Abs(b[i]) > epsilon {
			out[i] = a[i] / b[i]
		}
	}
	return out
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

func isFiniteVec3(v mgl32.Vec3) bool {
	return isFinite(v.X()) && isFinite(v.Y()) && isFinite(v.Z())
}

func isFiniteQuat(q mgl32.Quat) bool {
	return isFinite(q.W) && isFiniteVec3(q.V)
}

// integrateOrientation advances q by the angular velocity w over dt:
// q' = normalize(q + 0.5*dt * (0, w) * q). The renormalize counters drift.
func integrateOrientation(q mgl32.Quat, w mgl32.Vec3, dt float32) mgl32.Quat {
	if w.LenSqr() < epsilon*epsilon {
		return q
	}
	wq := mgl32.Quat{W: 0, V: w.Mul(0.5 * dt)}
	return q.Add(wq.Mul(q)).Normalize()
}

// rotationVector collapses a unit quaternion to axis*angle form.
func rotationVector(q mgl32.Quat) mgl32.Vec3 {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	sin := q.V.Len()
	if sin < epsilon {
		return mgl32.Vec3{}
	}
	angle := 2 * math32.Atan2(sin, q.W)
	return q.V.Mul(angle / sin)
}

// quatFromRotationVector is the inverse of rotationVector.
func quatFromRotationVector(w mgl32.Vec3) mgl32.Quat {
	angle := w.Len()
	if angle < epsilon {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, w.Mul(1/angle))
}

func vec3Min(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Min(a.X(), b.X()),
		math32.Min(a.Y(), b.Y()),
		math32.Min(a.Z(), b.Z()),
	}
}

func vec3Max(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Max(a.X(), b.X()),
		math32.Max(a.Y(), b.Y()),
		math32.Max(a.Z(), b.Z()),
	}
}

func vec3Abs(a mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Abs(a.X()), math32.Abs(a.Y()), math32.Abs(a.Z())}
}
