package kinetix

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// SceneDef is a declarative description of a node tree with physics bodies,
// the thin loading layer sitting outside the simulation core. It spawns
// nodes and attaches bodies; everything after that is regular stepping.
type SceneDef struct {
	Nodes []NodeDef `yaml:"nodes"`
}

type NodeDef struct {
	Name     string     `yaml:"name"`
	Position [3]float32 `yaml:"position"`
	// Rotation is axis (xyz) plus angle in radians.
	Rotation [4]float32  `yaml:"rotation"`
	Scale    *[3]float32 `yaml:"scale"`
	Body     *BodyDef    `yaml:"body"`
	Children []NodeDef   `yaml:"children"`
}

type BodyDef struct {
	Type  string    `yaml:"type"` // static, dynamic, kinematic
	Shape *ShapeDef `yaml:"shape"`

	Mass            float32  `yaml:"mass"`
	Charge          float32  `yaml:"charge"`
	Friction        *float32 `yaml:"friction"`
	RollingFriction float32  `yaml:"rolling_friction"`
	Restitution     *float32 `yaml:"restitution"`
	Damping         float32  `yaml:"damping"`
	AngularDamping  float32  `yaml:"angular_damping"`

	AffectedByGravity *bool `yaml:"affected_by_gravity"`
	AllowsResting     *bool `yaml:"allows_resting"`

	Category    *uint32 `yaml:"category_mask"`
	Collision   *uint32 `yaml:"collision_mask"`
	ContactTest uint32  `yaml:"contact_test_mask"`

	VelocityFactor        *[3]float32 `yaml:"velocity_factor"`
	AngularVelocityFactor *[3]float32 `yaml:"angular_velocity_factor"`
}

type ShapeDef struct {
	Kind        string       `yaml:"kind"` // box, sphere, hull
	HalfExtents [3]float32   `yaml:"half_extents"`
	Radius      float32      `yaml:"radius"`
	Points      [][3]float32 `yaml:"points"`
}

// LoadSceneFile parses a yaml scene description and spawns it.
func LoadSceneFile(w *World, root *Node, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	var def SceneDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse scene %s: %w", path, err)
	}
	return LoadScene(w, root, &def)
}

// LoadScene spawns the described nodes under root and attaches their bodies
// to the world.
func LoadScene(w *World, root *Node, def *SceneDef) error {
	for i := range def.Nodes {
		if err := spawnNode(w, root, &def.Nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

func spawnNode(w *World, parent *Node, def *NodeDef) error {
	node := NewNode(def.Name)
	node.Position = mgl32.Vec3{def.Position[0], def.Position[1], def.Position[2]}
	axis := mgl32.Vec3{def.Rotation[0], def.Rotation[1], def.Rotation[2]}
	if axis.LenSqr() > epsilon*epsilon {
		node.Rotation = mgl32.QuatRotate(def.Rotation[3], axis.Normalize())
	}
	if def.Scale != nil {
		node.Scale = mgl32.Vec3{def.Scale[0], def.Scale[1], def.Scale[2]}
	}
	parent.AddChild(node)

	if def.Body != nil {
		body, err := makeBody(def.Body)
		if err != nil {
			return fmt.Errorf("node %q: %w", def.Name, err)
		}
		if err := w.Attach(node, body); err != nil {
			return fmt.Errorf("node %q: %w", def.Name, err)
		}
	}

	for i := range def.Children {
		if err := spawnNode(w, node, &def.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func makeBody(def *BodyDef) (*Body, error) {
	var t BodyType
	switch def.Type {
	case "static":
		t = BodyStatic
	case "dynamic", "":
		t = BodyDynamic
	case "kinematic":
		t = BodyKinematic
	default:
		return nil, fmt.Errorf("unknown body type %q", def.Type)
	}

	var shape *Shape
	if def.Shape != nil {
		var err error
		shape, err = makeShape(def.Shape)
		if err != nil {
			return nil, err
		}
	}

	b := NewBody(t, shape)
	if def.Mass > 0 {
		b.SetMass(def.Mass)
	}
	b.Charge = def.Charge
	if def.Friction != nil {
		b.Friction = *def.Friction
	}
	b.RollingFriction = def.RollingFriction
	if def.Restitution != nil {
		b.Restitution = *def.Restitution
	}
	b.Damping = def.Damping
	b.AngularDamping = def.AngularDamping
	if def.AffectedByGravity != nil {
		b.IsAffectedByGravity = *def.AffectedByGravity
	}
	if def.AllowsResting != nil {
		b.AllowsResting = *def.AllowsResting
	}
	if def.Category != nil {
		b.CategoryBitMask = *def.Category
	}
	if def.Collision != nil {
		b.CollisionBitMask = *def.Collision
	}
	b.ContactTestBitMask = def.ContactTest
	if def.VelocityFactor != nil {
		f := *def.VelocityFactor
		b.VelocityFactor = mgl32.Vec3{f[0], f[1], f[2]}
	}
	if def.AngularVelocityFactor != nil {
		f := *def.AngularVelocityFactor
		b.AngularVelocityFactor = mgl32.Vec3{f[0], f[1], f[2]}
	}
	return b, nil
}

func makeShape(def *ShapeDef) (*Shape, error) {
	switch def.Kind {
	case "box", "":
		he := def.HalfExtents
		return NewBoxShape(mgl32.Vec3{he[0], he[1], he[2]}), nil
	case "sphere":
		return NewSphereShape(def.Radius), nil
	case "hull":
		pts := make([]mgl32.Vec3, len(def.Points))
		for i, p := range def.Points {
			pts[i] = mgl32.Vec3{p[0], p[1], p[2]}
		}
		return NewConvexHullShape(pts)
	default:
		return nil, fmt.Errorf("unknown shape kind %q", def.Kind)
	}
}
