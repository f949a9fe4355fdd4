package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// DefaultMargin is the collision margin a new shape starts with.
const DefaultMargin = 0.04

type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return "unknown"
	}
}

// RigidBody is a sphere or box with material properties. It can be configured
// before or after it is added to a World; live changes rebuild the engine
// shape where Chipmunk cannot update it in place.
type RigidBody struct {
	kind        ShapeKind
	radius      float64
	size        mgl64.Vec3
	mass        float64
	friction    float64
	restitution float64
	margin      float64
	kinematic   bool

	// position is authoritative while detached and for static bodies.
	position mgl64.Vec3
	pending  mgl64.Vec3

	world *World
	body  *cp.Body
	shape *cp.Shape
}

// NewSphere creates a sphere centred at pos. A zero mass makes it static.
func NewSphere(pos mgl64.Vec3, mass, radius float64) *RigidBody {
	return &RigidBody{
		kind:     ShapeSphere,
		radius:   radius,
		size:     mgl64.Vec3{2 * radius, 2 * radius, 2 * radius},
		mass:     mass,
		friction: 0.5,
		margin:   DefaultMargin,
		position: pos,
	}
}

// NewBox creates a box centred at pos with full extents size.
func NewBox(pos mgl64.Vec3, mass float64, size mgl64.Vec3) *RigidBody {
	return &RigidBody{
		kind:     ShapeBox,
		size:     size,
		mass:     mass,
		friction: 0.5,
		margin:   DefaultMargin,
		position: pos,
	}
}

func (b *RigidBody) Kind() ShapeKind        { return b.kind }
func (b *RigidBody) Radius() float64        { return b.radius }
func (b *RigidBody) Size() mgl64.Vec3       { return b.size }
func (b *RigidBody) Mass() float64          { return b.mass }
func (b *RigidBody) Friction() float64      { return b.friction }
func (b *RigidBody) Restitution() float64   { return b.restitution }
func (b *RigidBody) Margin() float64        { return b.margin }
func (b *RigidBody) IsKinematic() bool      { return b.kinematic }
func (b *RigidBody) InWorld() bool          { return b.world != nil }
func (b *RigidBody) EngineBody() *cp.Body   { return b.body }
func (b *RigidBody) EngineShape() *cp.Shape { return b.shape }

// IsStatic reports whether the body never moves: zero mass and not kinematic.
func (b *RigidBody) IsStatic() bool {
	return b.mass <= 0 && !b.kinematic
}

// CollisionRadius is the sphere radius grown by any margin above the default.
func (b *RigidBody) CollisionRadius() float64 {
	return b.radius + math.Max(0, b.margin-DefaultMargin)
}

func (b *RigidBody) SetFriction(f float64) {
	b.friction = f
	if b.shape != nil {
		b.shape.SetFriction(f)
	}
}

func (b *RigidBody) SetRestitution(r float64) {
	b.restitution = r
	if b.shape != nil {
		b.shape.SetElasticity(r)
	}
}

// SetProperties sets friction and restitution together.
func (b *RigidBody) SetProperties(friction, restitution float64) {
	b.SetFriction(friction)
	b.SetRestitution(restitution)
}

func (b *RigidBody) SetMargin(m float64) {
	if m < 0 {
		m = 0
	}
	b.margin = m
	b.rebuild()
}

// EnableKinematic turns the body into one that is moved only by SetPosition.
func (b *RigidBody) EnableKinematic() {
	if b.kinematic {
		return
	}
	b.kinematic = true
	b.rebuild()
}

// Position returns the current centre.
func (b *RigidBody) Position() mgl64.Vec3 {
	if b.body == nil || b.IsStatic() {
		return b.position
	}
	return FromPlane(b.body.Position(), b.position.X())
}

// SetPosition teleports the body.
func (b *RigidBody) SetPosition(p mgl64.Vec3) {
	b.position = p
	if b.body == nil {
		return
	}
	if b.IsStatic() {
		b.rebuild()
		return
	}
	b.body.SetPosition(ToPlane(p))
	b.body.Activate()
}

func (b *RigidBody) Velocity() mgl64.Vec3 {
	if b.body == nil || b.IsStatic() {
		return mgl64.Vec3{}
	}
	return FromPlane(b.body.Velocity(), 0)
}

// ApplyCentralForce applies f at the centre of mass for the next step. Forces
// on a detached body are held until it is added.
func (b *RigidBody) ApplyCentralForce(f mgl64.Vec3) {
	if b.body == nil {
		b.pending = b.pending.Add(f)
		return
	}
	if b.IsStatic() || b.kinematic {
		return
	}
	b.body.ApplyForceAtWorldPoint(ToPlane(f), b.body.Position())
}

func (b *RigidBody) moment() float64 {
	switch b.kind {
	case ShapeSphere:
		return cp.MomentForCircle(b.mass, 0, b.radius, cp.Vector{})
	default:
		return cp.MomentForBox(b.mass, b.size.Z(), b.size.Y())
	}
}

func (b *RigidBody) attach() {
	space := b.world.space
	center := ToPlane(b.position)

	switch {
	case b.IsStatic():
		b.body = space.StaticBody
		if b.kind == ShapeSphere {
			b.shape = cp.NewCircle(b.body, b.CollisionRadius(), center)
		} else {
			hw, hh := b.size.Z()/2, b.size.Y()/2
			bb := cp.BB{L: center.X - hw, B: center.Y - hh, R: center.X + hw, T: center.Y + hh}
			b.shape = cp.NewBox2(b.body, bb, b.margin)
		}
	case b.kinematic:
		b.body = space.AddBody(cp.NewKinematicBody())
		b.body.SetPosition(center)
		b.shape = b.newLocalShape()
	default:
		b.body = space.AddBody(cp.NewBody(b.mass, b.moment()))
		b.body.SetPosition(center)
		b.shape = b.newLocalShape()
	}

	b.shape.SetFriction(b.friction)
	b.shape.SetElasticity(b.restitution)
	space.AddShape(b.shape)

	if b.pending != (mgl64.Vec3{}) {
		f := b.pending
		b.pending = mgl64.Vec3{}
		b.ApplyCentralForce(f)
	}
}

func (b *RigidBody) newLocalShape() *cp.Shape {
	if b.kind == ShapeSphere {
		return cp.NewCircle(b.body, b.CollisionRadius(), cp.Vector{})
	}
	return cp.NewBox(b.body, b.size.Z(), b.size.Y(), b.margin)
}

func (b *RigidBody) detach() {
	space := b.world.space
	if b.shape != nil {
		space.RemoveShape(b.shape)
	}
	if b.body != nil && b.body != space.StaticBody {
		space.RemoveBody(b.body)
	}
	b.body = nil
	b.shape = nil
}

// rebuild recreates the engine objects of a live body, keeping its motion.
func (b *RigidBody) rebuild() {
	if b.world == nil || b.body == nil {
		return
	}
	var vel cp.Vector
	if !b.IsStatic() && b.body != b.world.space.StaticBody {
		vel = b.body.Velocity()
		b.position = FromPlane(b.body.Position(), b.position.X())
	}
	b.detach()
	b.attach()
	if b.body != b.world.space.StaticBody && !b.kinematic {
		b.body.SetVelocityVector(vel)
	}
}
