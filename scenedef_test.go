package kinetix

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `
nodes:
  - name: floor
    position: [0, -0.5, 0]
    body:
      type: static
      shape:
        kind: box
        half_extents: [10, 0.5, 10]
      friction: 0.9
  - name: crate
    position: [0, 3, 0]
    rotation: [0, 1, 0, 0.785]
    body:
      type: dynamic
      mass: 2.5
      restitution: 0.1
      allows_resting: false
      category_mask: 4
      contact_test_mask: 1
      shape:
        kind: box
        half_extents: [0.5, 0.5, 0.5]
    children:
      - name: marker
        position: [0, 1, 0]
`

func TestLoadSceneFileSpawnsTree(t *testing.T) {
	path := writeTempFile(t, "scene.yaml", sampleScene)

	w := NewWorld()
	root := NewNode("root")
	require.NoError(t, LoadSceneFile(w, root, path))

	require.Len(t, w.Bodies(), 2)
	require.Len(t, root.Children(), 2)

	floor := root.Children()[0]
	crate := root.Children()[1]
	assert.Equal(t, "floor", floor.Name)
	assert.Equal(t, "crate", crate.Name)

	require.NotNil(t, floor.Body())
	assert.Equal(t, BodyStatic, floor.Body().Type())
	assert.InDelta(t, 0.9, floor.Body().Friction, 1e-6)

	body := crate.Body()
	require.NotNil(t, body)
	assert.Equal(t, BodyDynamic, body.Type())
	assert.InDelta(t, 2.5, body.Mass(), 1e-5)
	assert.InDelta(t, 0.1, body.Restitution, 1e-6)
	assert.False(t, body.AllowsResting)
	assert.Equal(t, uint32(4), body.CategoryBitMask)
	assert.Equal(t, uint32(1), body.ContactTestBitMask)
	// Defaults survive where the file is silent.
	assert.Equal(t, ^uint32(0), body.CollisionBitMask)
	assert.InDelta(t, 0.5, body.Friction, 1e-6)

	require.Len(t, crate.Children(), 1)
	marker := crate.Children()[0]
	assert.Equal(t, "marker", marker.Name)
	assert.Nil(t, marker.Body())
}

func TestLoadSceneDefaultsToDynamicBox(t *testing.T) {
	w := NewWorld()
	root := NewNode("root")
	def := &SceneDef{Nodes: []NodeDef{{
		Name:     "thing",
		Position: [3]float32{1, 2, 3},
		Body: &BodyDef{
			Shape: &ShapeDef{HalfExtents: [3]float32{1, 1, 1}},
		},
	}}}

	require.NoError(t, LoadScene(w, root, def))
	body := root.Children()[0].Body()
	require.NotNil(t, body)
	assert.Equal(t, BodyDynamic, body.Type())
	assert.Equal(t, ShapeBox, body.Shape().Kind())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, body.Position())
}

func TestLoadSceneRejectsUnknownBodyType(t *testing.T) {
	w := NewWorld()
	def := &SceneDef{Nodes: []NodeDef{{
		Name: "bad",
		Body: &BodyDef{Type: "wobbly", Shape: &ShapeDef{Kind: "sphere", Radius: 1}},
	}}}
	err := LoadScene(w, NewNode("root"), def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wobbly")
}

func TestLoadSceneRejectsUnknownShapeKind(t *testing.T) {
	w := NewWorld()
	def := &SceneDef{Nodes: []NodeDef{{
		Name: "bad",
		Body: &BodyDef{Shape: &ShapeDef{Kind: "torus"}},
	}}}
	assert.Error(t, LoadScene(w, NewNode("root"), def))
}

func TestLoadSceneHullShape(t *testing.T) {
	w := NewWorld()
	root := NewNode("root")
	def := &SceneDef{Nodes: []NodeDef{{
		Name: "rock",
		Body: &BodyDef{
			Type: "static",
			Shape: &ShapeDef{
				Kind: "hull",
				Points: [][3]float32{
					{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
				},
			},
		},
	}}}

	require.NoError(t, LoadScene(w, root, def))
	shape := root.Children()[0].Body().Shape()
	require.NotNil(t, shape)
	assert.Equal(t, ShapeConvexHull, shape.Kind())
	assert.Len(t, shape.Points(), 4)
}

func TestLoadSceneFileMissing(t *testing.T) {
	err := LoadSceneFile(NewWorld(), NewNode("root"), "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadSceneAppliesVelocityFactors(t *testing.T) {
	w := NewWorld()
	root := NewNode("root")
	vf := [3]float32{0, 1, 1}
	def := &SceneDef{Nodes: []NodeDef{{
		Name: "rail",
		Body: &BodyDef{
			Shape:          &ShapeDef{Kind: "sphere", Radius: 0.5},
			VelocityFactor: &vf,
		},
	}}}

	require.NoError(t, LoadScene(w, root, def))
	body := root.Children()[0].Body()
	assert.Equal(t, mgl32.Vec3{0, 1, 1}, body.VelocityFactor)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, body.AngularVelocityFactor)
}
