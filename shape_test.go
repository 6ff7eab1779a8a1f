package kinetix

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxShapeClampsThinExtents(t *testing.T) {
	s := NewBoxShape(mgl32.Vec3{1, 0, 2})
	assert.Equal(t, ShapeBox, s.Kind())
	assert.InDelta(t, 0.001, s.HalfExtents().Y(), 1e-7)
	assert.InDelta(t, 1, s.HalfExtents().X(), 1e-6)

	min, max := s.Bounds()
	assert.Equal(t, s.HalfExtents().Mul(-1), min)
	assert.Equal(t, s.HalfExtents(), max)
}

func TestSphereShapeVolumeAndInertia(t *testing.T) {
	s := NewSphereShape(2)
	assert.InDelta(t, (4.0/3.0)*3.14159*8, s.Volume(), 0.01)

	// Solid sphere: 2/5 m r^2 on every axis.
	diag := s.InertiaDiagonal(5)
	assert.InDelta(t, 0.4*5*4, diag.X(), 1e-4)
	assert.Equal(t, diag.X(), diag.Y())
	assert.Equal(t, diag.X(), diag.Z())
}

func TestBoxInertiaDiagonal(t *testing.T) {
	s := NewBoxShape(mgl32.Vec3{0.5, 1, 1.5}) // full extents 1, 2, 3
	diag := s.InertiaDiagonal(12)
	assert.InDelta(t, 2*2+3*3, diag.X(), 1e-4) // m/12 = 1
	assert.InDelta(t, 1*1+3*3, diag.Y(), 1e-4)
	assert.InDelta(t, 1*1+2*2, diag.Z(), 1e-4)
}

func TestConvexHullRecentersPoints(t *testing.T) {
	pts := []mgl32.Vec3{
		{1, 1, 1},
		{3, 1, 1},
		{1, 3, 1},
		{1, 1, 3},
	}
	s, err := NewConvexHullShape(pts)
	require.NoError(t, err)
	assert.Equal(t, ShapeConvexHull, s.Kind())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, s.HalfExtents())

	// Returned points are re-centered and copied, not aliased.
	out := s.Points()
	require.Len(t, out, 4)
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, out[0])
	out[0] = mgl32.Vec3{99, 99, 99}
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, s.Points()[0])
}

func TestConvexHullRejectsDegenerateCloud(t *testing.T) {
	_, err := NewConvexHullShape([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	assert.ErrorIs(t, err, ErrDegenerateHull)
}

func TestShapeIdsAreUnique(t *testing.T) {
	a := NewBoxShape(mgl32.Vec3{1, 1, 1})
	b := NewBoxShape(mgl32.Vec3{1, 1, 1})
	assert.NotEqual(t, a.Id(), b.Id())
}

func TestShapeServerLifecycle(t *testing.T) {
	srv := NewShapeServer()
	id := srv.CreateSphereShape(1)

	shape := srv.Shape(id)
	require.NotNil(t, shape)
	assert.Equal(t, ShapeSphere, shape.Kind())

	srv.Retain(id)
	srv.Retain(id)
	assert.Equal(t, 2, srv.Refs(id))

	srv.Release(id)
	assert.Equal(t, 1, srv.Refs(id))
	require.NotNil(t, srv.Shape(id))

	srv.Release(id)
	assert.Nil(t, srv.Shape(id), "shape should be dropped at refcount zero")

	// Further releases of a gone id are harmless.
	srv.Release(id)
	assert.Nil(t, srv.Shape(id))
}

func TestShapeServerHullValidation(t *testing.T) {
	srv := NewShapeServer()
	_, err := srv.CreateConvexHullShape([]mgl32.Vec3{{0, 0, 0}})
	assert.ErrorIs(t, err, ErrDegenerateHull)

	id, err := srv.CreateConvexHullShape([]mgl32.Vec3{
		{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	})
	require.NoError(t, err)
	assert.NotNil(t, srv.Shape(id))
}
