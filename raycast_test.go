package kinetix

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRayTestSphere(t *testing.T) {
	w := zeroGravityWorld()
	ball := NewDynamicBody(NewSphereShape(1))
	attachBody(t, w, ball, mgl32.Vec3{0, 0, 0})

	hits := w.RayTest(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{1, 0, 0}, 100)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	h := hits[0]
	if h.Body != ball {
		t.Errorf("hit the wrong body")
	}
	if d := h.Distance - 4; d > 1e-4 || d < -1e-4 {
		t.Errorf("distance = %v, want 4", h.Distance)
	}
	approxVec3(t, h.Point, mgl32.Vec3{-1, 0, 0}, 1e-4, "entry point")
	approxVec3(t, h.Normal, mgl32.Vec3{-1, 0, 0}, 1e-4, "surface normal")
}

func TestRayTestBoxFaceNormal(t *testing.T) {
	w := zeroGravityWorld()
	box := NewStaticBody(NewBoxShape(mgl32.Vec3{1, 1, 1}))
	attachBody(t, w, box, mgl32.Vec3{0, 0, 0})

	hits := w.RayTest(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -1, 0}, 100)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if d := hits[0].Distance - 4; d > 1e-4 || d < -1e-4 {
		t.Errorf("distance = %v, want 4", hits[0].Distance)
	}
	approxVec3(t, hits[0].Normal, mgl32.Vec3{0, 1, 0}, 1e-4, "top face normal")
}

func TestRayTestOrdersByDistance(t *testing.T) {
	w := zeroGravityWorld()
	near := NewStaticBody(NewSphereShape(0.5))
	far := NewStaticBody(NewSphereShape(0.5))
	attachBody(t, w, far, mgl32.Vec3{0, 0, 10})
	attachBody(t, w, near, mgl32.Vec3{0, 0, 3})

	hits := w.RayTest(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 2}, 100) // unnormalized dir
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Body != near || hits[1].Body != far {
		t.Errorf("hits not sorted closest first")
	}
	if hits[0].Distance >= hits[1].Distance {
		t.Errorf("distances out of order: %v, %v", hits[0].Distance, hits[1].Distance)
	}
}

func TestRayTestRespectsMaxDistance(t *testing.T) {
	w := zeroGravityWorld()
	ball := NewStaticBody(NewSphereShape(0.5))
	attachBody(t, w, ball, mgl32.Vec3{0, 0, 10})

	if hits := w.RayTest(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 5); len(hits) != 0 {
		t.Errorf("hit beyond maxDist reported: %v", hits)
	}
	if hits := w.RayTest(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20); len(hits) != 1 {
		t.Errorf("hit within maxDist missed")
	}
}

func TestRayTestMissAndDegenerateDir(t *testing.T) {
	w := zeroGravityWorld()
	ball := NewStaticBody(NewSphereShape(0.5))
	attachBody(t, w, ball, mgl32.Vec3{0, 0, 10})

	if hits := w.RayTest(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{0, 0, 1}, 100); len(hits) != 0 {
		t.Errorf("parallel miss reported a hit: %v", hits)
	}
	if hits := w.RayTest(mgl32.Vec3{}, mgl32.Vec3{}, 100); hits != nil {
		t.Errorf("zero direction should yield no hits")
	}
}

func TestRayTestScaledNode(t *testing.T) {
	w := zeroGravityWorld()
	node := NewNode("big")
	node.Position = mgl32.Vec3{0, 0, 10}
	node.Scale = mgl32.Vec3{3, 3, 3}
	ball := NewStaticBody(NewSphereShape(1))
	if err := w.Attach(node, ball); err != nil {
		t.Fatalf("attach: %v", err)
	}

	hits := w.RayTest(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 100)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	// Radius 1 scaled by 3: surface at z = 7.
	if d := hits[0].Distance - 7; d > 1e-3 || d < -1e-3 {
		t.Errorf("distance = %v, want 7", hits[0].Distance)
	}
}
