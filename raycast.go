package kinetix

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit is one intersection of a world ray query.
type RayHit struct {
	Body     *Body
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
}

// RayTest casts a ray from origin along dir (need not be normalized) and
// returns every body hit within maxDist, closest first. Uses the bodies'
// committed state, so call it between steps.
func (w *World) RayTest(origin, dir mgl32.Vec3, maxDist float32) []RayHit {
	if dir.LenSqr() < epsilon*epsilon || maxDist <= 0 {
		return nil
	}
	dir = dir.Normalize()

	var hits []RayHit
	for _, b := range w.bodies {
		b.refreshScaledGeometry()
		var (
			dist   float32
			normal mgl32.Vec3
			ok     bool
		)
		if b.shape != nil && b.shape.kind == ShapeSphere {
			dist, normal, ok = raySphere(origin, dir, b.cur.pos, b.scaledRadius)
		} else {
			dist, normal, ok = rayOBB(origin, dir, makeOBB(b.cur.pos, b.cur.rot, b.scaledExtents))
		}
		if !ok || dist > maxDist {
			continue
		}
		hits = append(hits, RayHit{
			Body:     b,
			Point:    origin.Add(dir.Mul(dist)),
			Normal:   normal,
			Distance: dist,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, mgl32.Vec3, bool) {
	oc := origin.Sub(center)
	bHalf := oc.Dot(dir)
	c := oc.LenSqr() - radius*radius
	disc := bHalf*bHalf - c
	if disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	sq := math32.Sqrt(disc)
	t := -bHalf - sq
	if t < 0 {
		t = -bHalf + sq // ray starts inside
	}
	if t < 0 {
		return 0, mgl32.Vec3{}, false
	}
	p := origin.Add(dir.Mul(t))
	n := p.Sub(center)
	if n.LenSqr() > epsilon*epsilon {
		n = n.Normalize()
	}
	return t, n, true
}

// rayOBB is the slab test in the box's local frame.
func rayOBB(origin, dir mgl32.Vec3, box obb) (float32, mgl32.Vec3, bool) {
	rel := origin.Sub(box.center)

	tMin := float32(0)
	tMax := float32(math32.MaxFloat32)
	var minAxis int
	var minSign float32 = 1

	for i := 0; i < 3; i++ {
		o := rel.Dot(box.axes[i])
		d := dir.Dot(box.axes[i])
		if math32.Abs(d) < epsilon {
			if math32.Abs(o) > box.half[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		t1 := (-box.half[i] - o) / d
		t2 := (box.half[i] - o) / d
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tMin {
			tMin = t1
			minAxis = i
			minSign = sign
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, mgl32.Vec3{}, false
		}
	}

	return tMin, box.axes[minAxis].Mul(minSign), true
}
