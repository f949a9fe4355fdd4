package scene

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/ecs/component"
	"github.com/milk9111/bulletball/ecs/system"
	"github.com/milk9111/bulletball/physics"
	"github.com/milk9111/bulletball/prefabs"
	"github.com/milk9111/bulletball/view"
)

const (
	ReasonReplaced = "replaced"
	ReasonDeleted  = "deleted"
	ReasonRemoved  = "removed"
)

var ErrNotSetUp = errors.New("scene: not set up")

// Scene owns everything the demo mutates: the ECS world, the physics world,
// the camera and the light. It is driven from a single goroutine.
type Scene struct {
	spec *prefabs.SceneSpec

	world     *ecs.World
	physics   *physics.World
	bodies    *system.PhysicsSystem
	scheduler *ecs.Scheduler

	camera *view.Camera
	light  *view.Light
	rng    *rand.Rand

	seq    uint64
	ground ecs.Entity
	anchor ecs.Entity
}

// New creates an empty scene. A nil spec uses the defaults.
func New(spec *prefabs.SceneSpec) *Scene {
	if spec == nil {
		spec = prefabs.DefaultSceneSpec()
	}
	return &Scene{
		spec:   spec,
		camera: view.NewCamera(spec.Window.Width, spec.Window.Height),
		light:  view.NewLight(),
		rng:    rand.New(rand.NewSource(spec.Seed)),
	}
}

func (s *Scene) Spec() *prefabs.SceneSpec             { return s.spec }
func (s *Scene) World() *ecs.World                    { return s.world }
func (s *Scene) Physics() *physics.World              { return s.physics }
func (s *Scene) PhysicsSystem() *system.PhysicsSystem { return s.bodies }
func (s *Scene) Camera() *view.Camera                 { return s.camera }
func (s *Scene) Light() *view.Light                   { return s.light }
func (s *Scene) Ground() ecs.Entity                   { return s.ground }
func (s *Scene) Anchor() ecs.Entity                   { return s.anchor }

// Setup builds the world: camera, physics, ground, light and the kinematic
// anchor sphere. Calling it again starts over.
func (s *Scene) Setup() error {
	spec := s.spec

	cam := s.camera
	cam.DisableMouseInput()
	cam.SetDistance(spec.Camera.Distance)
	cam.SetPosition(spec.Camera.Position.Vec())
	cam.LookAt(spec.Camera.Target.Vec(), spec.Camera.Up.Vec())
	cam.ConstrainToPlane(physics.PlaneNormal)

	s.world = ecs.NewWorld()
	s.physics = physics.NewWorld(physics.Config{
		Gravity:     spec.World.Gravity.Vec(),
		TimeStep:    spec.World.TimeStep,
		MaxSubSteps: spec.World.SubSteps,
		Iterations:  spec.World.Iterations,
	})
	s.physics.SetCamera(cam)
	s.bodies = system.NewPhysicsSystem(s.physics)
	s.scheduler = ecs.NewScheduler(s.bodies, system.NewCullSystem(s.bodies))
	s.seq = 0

	groundBody := physics.NewBox(spec.Ground.Position.Vec(), 0, spec.Ground.Size.Vec())
	groundBody.SetProperties(spec.Ground.Friction, spec.Ground.Restitution)
	ground, err := s.spawnBody(groundBody, false, tagWith(component.GroundTagComponent))
	if err != nil {
		return fmt.Errorf("scene: setup ground: %w", err)
	}
	s.ground = ground

	cam.EnableMouseInput()
	s.light.SetPosition(spec.Light.Position.Vec())
	s.light.SetAmbient(spec.Light.Ambient)

	anchorBody := physics.NewSphere(spec.Anchor.Position.Vec(), 0, spec.Anchor.Radius)
	anchorBody.EnableKinematic()
	anchorBody.SetFriction(spec.Anchor.Friction)
	anchor, err := s.spawnBody(anchorBody, true, tagWith(component.AnchorTagComponent))
	if err != nil {
		return fmt.Errorf("scene: setup anchor: %w", err)
	}
	// Margin grows once the sphere is live, as the engine rebuilds its shape.
	anchorBody.SetMargin(spec.Anchor.Margin)
	s.anchor = anchor

	return nil
}

// Update steps the physics world one tick and culls fallen bodies.
func (s *Scene) Update() error {
	if s.world == nil {
		return ErrNotSetUp
	}
	s.scheduler.Update(s.world)
	return nil
}

// KeyPressed applies the action bound to k. Unbound keys do nothing.
func (s *Scene) KeyPressed(k Key) error {
	if s.world == nil {
		return ErrNotSetUp
	}
	switch k {
	case KeySpace:
		if _, err := s.fireProjectile(); err != nil {
			return fmt.Errorf("scene: fire projectile: %w", err)
		}
	case KeyC:
		for _, e := range s.Patches() {
			s.bodies.Despawn(s.world, e, ReasonReplaced)
		}
		if _, err := s.spawnCloth(); err != nil {
			return fmt.Errorf("scene: spawn cloth: %w", err)
		}
	case KeyDelete, KeyBackspace:
		if patches := s.Patches(); len(patches) > 0 {
			s.bodies.Despawn(s.world, patches[0], ReasonDeleted)
		}
	}
	return nil
}

func (s *Scene) fireProjectile() (ecs.Entity, error) {
	p := s.spec.Projectile
	from := s.camera.Position()
	radius := p.MinRadius + s.rng.Float64()*(p.MaxRadius-p.MinRadius)

	body := physics.NewSphere(from, p.Mass, radius)
	e, err := s.spawnBody(body, true, tagWith(component.ProjectileTagComponent))
	if err != nil {
		return 0, err
	}
	if dir := from.Mul(-1); dir.Len() > 0 {
		body.ApplyCentralForce(dir.Normalize().Mul(p.Force))
	}
	return e, nil
}

func (s *Scene) spawnCloth() (ecs.Entity, error) {
	c := s.spec.Cloth
	size, h := c.HalfSize, c.Height

	patch, err := physics.NewPatch(
		mgl64.Vec3{-size, h, -size},
		mgl64.Vec3{size, h, -size},
		mgl64.Vec3{-size, h, size},
		mgl64.Vec3{size, h, size},
		c.Resolution, c.Resolution, cornerMask(c.Fixed),
	)
	if err != nil {
		return 0, err
	}
	patch.SetMargin(c.Margin)
	mat := patch.Materials()[0]
	patch.GenerateBendingConstraints(c.BendingDistance, mat)
	mat.LinearStiffness = c.LinearStiffness

	e := s.world.CreateEntity()
	if err := ecs.Add(s.world, e, component.SoftPatchComponent, component.SoftPatch{Patch: patch}); err != nil {
		s.world.DestroyEntity(e)
		return 0, err
	}
	s.track(e)
	if err := s.bodies.Register(s.world, e); err != nil {
		s.world.DestroyEntity(e)
		return 0, err
	}

	patch.SetMass(c.Mass, c.MassFromFaces)
	patch.Config = physics.SolverConfig{
		PositionIterations:  c.PositionIterations,
		CollisionIterations: c.CollisionIterations,
		DriftIterations:     c.DriftIterations,
	}

	s.spawned(e)
	return e, nil
}

// spawnBody creates an entity for body, tags it, registers it with the
// physics world and, when tracked, adds it to the active collection.
func (s *Scene) spawnBody(body *physics.RigidBody, tracked bool, tag func(*ecs.World, ecs.Entity) error) (ecs.Entity, error) {
	e := s.world.CreateEntity()
	if err := s.buildBody(e, body, tracked, tag); err != nil {
		s.world.DestroyEntity(e)
		return 0, err
	}
	s.spawned(e)
	return e, nil
}

func (s *Scene) buildBody(e ecs.Entity, body *physics.RigidBody, tracked bool, tag func(*ecs.World, ecs.Entity) error) error {
	if err := ecs.Add(s.world, e, component.RigidBodyComponent, component.RigidBody{Body: body}); err != nil {
		return err
	}
	if err := ecs.Add(s.world, e, component.TransformComponent, component.Transform{Position: body.Position()}); err != nil {
		return err
	}
	if tag != nil {
		if err := tag(s.world, e); err != nil {
			return err
		}
	}
	if tracked {
		s.track(e)
		if err := ecs.Add(s.world, e, component.LifetimeComponent, component.Lifetime{MaxHeight: s.spec.Cull.MaxHeight}); err != nil {
			return err
		}
	}
	return s.bodies.Register(s.world, e)
}

func tagWith[T any](h component.ComponentHandle[T]) func(*ecs.World, ecs.Entity) error {
	return func(w *ecs.World, e ecs.Entity) error {
		var tag T
		return ecs.Add(w, e, h, tag)
	}
}

func (s *Scene) track(e ecs.Entity) {
	s.seq++
	if err := ecs.Add(s.world, e, component.TrackedComponent, component.Tracked{Seq: s.seq}); err != nil {
		panic("scene: track entity: " + err.Error())
	}
}

func (s *Scene) spawned(e ecs.Entity) {
	s.world.Events().Push(ecs.Event{
		Type: ecs.EventSpawned,
		Data: ecs.LifecycleEvent{Entity: e},
	})
}

// Bodies returns the active rigid bodies in spawn order.
func (s *Scene) Bodies() []ecs.Entity {
	return s.tracked(component.RigidBodyComponent.Kind())
}

// Patches returns the active cloth patches in spawn order, oldest first.
func (s *Scene) Patches() []ecs.Entity {
	return s.tracked(component.SoftPatchComponent.Kind())
}

func (s *Scene) tracked(kind component.Kind) []ecs.Entity {
	if s.world == nil {
		return nil
	}
	ents := s.world.Query(kind, component.TrackedComponent.Kind())
	seqs := make(map[ecs.Entity]uint64, len(ents))
	for _, e := range ents {
		t, _ := ecs.Get(s.world, e, component.TrackedComponent)
		seqs[e] = t.Seq
	}
	sort.Slice(ents, func(i, j int) bool { return seqs[ents[i]] < seqs[ents[j]] })
	return ents
}

// Body resolves a handle to its rigid body.
func (s *Scene) Body(e ecs.Entity) (*physics.RigidBody, bool) {
	if s.world == nil {
		return nil, false
	}
	rb, ok := ecs.Get(s.world, e, component.RigidBodyComponent)
	if !ok || rb.Body == nil {
		return nil, false
	}
	return rb.Body, true
}

// Patch resolves a handle to its cloth patch.
func (s *Scene) Patch(e ecs.Entity) (*physics.Patch, bool) {
	if s.world == nil {
		return nil, false
	}
	sp, ok := ecs.Get(s.world, e, component.SoftPatchComponent)
	if !ok || sp.Patch == nil {
		return nil, false
	}
	return sp.Patch, true
}

// Despawn removes e from the scene and the physics world.
func (s *Scene) Despawn(e ecs.Entity) bool {
	if s.world == nil {
		return false
	}
	return s.bodies.Despawn(s.world, e, ReasonRemoved)
}

// DrainEvents returns and clears the spawn and despawn events since the last
// call.
func (s *Scene) DrainEvents() []ecs.Event {
	if s.world == nil {
		return nil
	}
	return s.world.Events().Drain()
}

// ApplySpec swaps in a reloaded spec. Only later spawns, the cull height and
// the palette pick it up; live bodies keep their shape and material.
func (s *Scene) ApplySpec(spec *prefabs.SceneSpec) error {
	if spec == nil {
		return fmt.Errorf("scene: apply spec: %w", prefabs.ErrInvalidSpec)
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("scene: apply spec: %w", err)
	}
	s.spec = spec
	if s.world == nil {
		return nil
	}
	ecs.ForEach(s.world, component.LifetimeComponent, func(_ ecs.Entity, l *component.Lifetime) {
		l.MaxHeight = spec.Cull.MaxHeight
	})
	return nil
}

func cornerMask(names []string) physics.Corner {
	var mask physics.Corner
	for _, name := range names {
		switch name {
		case "00":
			mask |= physics.Corner00
		case "10":
			mask |= physics.Corner10
		case "01":
			mask |= physics.Corner01
		case "11":
			mask |= physics.Corner11
		}
	}
	return mask
}
