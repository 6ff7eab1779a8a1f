package kinetix

import "github.com/go-gl/mathgl/mgl32"

// ShapeServer is a registry for shapes shared across many bodies. Shapes are
// reference counted: Retain when a body starts using a registered shape,
// Release when it stops, and the registry drops the shape once the count
// reaches zero. Shapes created outside the server work fine too; the server
// only exists for callers that want explicit shared ownership.
type ShapeServer struct {
	shapes map[ShapeId]*Shape
	refs   map[ShapeId]int
}

func NewShapeServer() *ShapeServer {
	return &ShapeServer{
		shapes: make(map[ShapeId]*Shape),
		refs:   make(map[ShapeId]int),
	}
}

func (srv *ShapeServer) register(s *Shape) ShapeId {
	srv.shapes[s.id] = s
	srv.refs[s.id] = 0
	return s.id
}

func (srv *ShapeServer) CreateBoxShape(halfExtents mgl32.Vec3) ShapeId {
	return srv.register(NewBoxShape(halfExtents))
}

func (srv *ShapeServer) CreateSphereShape(radius float32) ShapeId {
	return srv.register(NewSphereShape(radius))
}

func (srv *ShapeServer) CreateConvexHullShape(points []mgl32.Vec3) (ShapeId, error) {
	s, err := NewConvexHullShape(points)
	if err != nil {
		return "", err
	}
	return srv.register(s), nil
}

// Shape looks up a registered shape, nil if unknown.
func (srv *ShapeServer) Shape(id ShapeId) *Shape {
	return srv.shapes[id]
}

func (srv *ShapeServer) Retain(id ShapeId) {
	if _, ok := srv.shapes[id]; ok {
		srv.refs[id]++
	}
}

// Release drops one reference; at zero the shape is removed from the registry.
func (srv *ShapeServer) Release(id ShapeId) {
	if _, ok := srv.shapes[id]; !ok {
		return
	}
	srv.refs[id]--
	if srv.refs[id] <= 0 {
		delete(srv.shapes, id)
		delete(srv.refs, id)
	}
}

func (srv *ShapeServer) Refs(id ShapeId) int {
	return srv.refs[id]
}
