package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/ecs/component"
	"github.com/milk9111/bulletball/physics"
	"github.com/milk9111/bulletball/prefabs"
)

func newScene(t *testing.T) *Scene {
	t.Helper()
	s := New(nil)
	if err := s.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return s
}

func press(t *testing.T, s *Scene, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		if err := s.KeyPressed(k); err != nil {
			t.Fatalf("key %v: %v", k, err)
		}
	}
}

func TestSetup(t *testing.T) {
	s := newScene(t)

	bodies := s.Bodies()
	if len(bodies) != 1 || bodies[0] != s.Anchor() {
		t.Fatalf("expected only the anchor in the active collection, got %v", bodies)
	}
	if s.Physics().BodyCount() != 2 {
		t.Fatalf("expected ground and anchor in the physics world, got %d", s.Physics().BodyCount())
	}
	if len(s.Patches()) != 0 {
		t.Fatalf("expected no patches")
	}

	ground, ok := s.Body(s.Ground())
	if !ok {
		t.Fatalf("ground body missing")
	}
	if !ground.IsStatic() || ground.Friction() != 0.25 || ground.Restitution() != 0.95 {
		t.Fatalf("ground properties: static=%v friction=%v restitution=%v", ground.IsStatic(), ground.Friction(), ground.Restitution())
	}
	if !ecs.Has(s.World(), s.Ground(), component.GroundTagComponent) {
		t.Fatalf("ground should carry the ground tag")
	}

	anchor, ok := s.Body(s.Anchor())
	if !ok {
		t.Fatalf("anchor body missing")
	}
	if !anchor.IsKinematic() || anchor.Radius() != 1.65 || anchor.Friction() != 0.4 || anchor.Margin() != 0.45 {
		t.Fatalf("anchor properties: kinematic=%v radius=%v friction=%v margin=%v",
			anchor.IsKinematic(), anchor.Radius(), anchor.Friction(), anchor.Margin())
	}
	if anchor.Position() != (mgl64.Vec3{0, -1.55, 0}) {
		t.Fatalf("anchor position %v", anchor.Position())
	}

	cam := s.Camera()
	if cam.Position() != (mgl64.Vec3{0, -4, -10}) || cam.Target() != (mgl64.Vec3{}) {
		t.Fatalf("camera position %v target %v", cam.Position(), cam.Target())
	}
	if !cam.MouseInputEnabled() {
		t.Fatalf("mouse input should be enabled after setup")
	}
	if s.Light().Position() != (mgl64.Vec3{0, -10, 0}) {
		t.Fatalf("light position %v", s.Light().Position())
	}
	if s.Physics().Camera() == nil {
		t.Fatalf("camera should be bound to the physics world")
	}
}

func TestNotSetUp(t *testing.T) {
	s := New(nil)
	if err := s.Update(); !errors.Is(err, ErrNotSetUp) {
		t.Fatalf("update: expected ErrNotSetUp, got %v", err)
	}
	if err := s.KeyPressed(KeySpace); !errors.Is(err, ErrNotSetUp) {
		t.Fatalf("key: expected ErrNotSetUp, got %v", err)
	}
	if s.Bodies() != nil || s.Despawn(1) {
		t.Fatalf("empty scene should have nothing to list or despawn")
	}
}

func TestSpaceSpawnsProjectiles(t *testing.T) {
	cases := []struct {
		name    string
		presses int
	}{
		{"once", 1},
		{"three_times", 3},
		{"ten_times", 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newScene(t)
			before := len(s.Bodies())
			for i := 0; i < c.presses; i++ {
				press(t, s, KeySpace)
			}
			bodies := s.Bodies()
			if len(bodies) != before+c.presses {
				t.Fatalf("expected %d bodies, got %d", before+c.presses, len(bodies))
			}
			for _, e := range bodies[before:] {
				b, ok := s.Body(e)
				if !ok {
					t.Fatalf("projectile body missing")
				}
				if b.Mass() != 0.04 || b.Radius() < 0.2 || b.Radius() >= 0.8 {
					t.Fatalf("projectile mass %v radius %v", b.Mass(), b.Radius())
				}
				if b.Position() != s.Camera().Position() {
					t.Fatalf("projectile should start at the camera, got %v", b.Position())
				}
				if !b.InWorld() {
					t.Fatalf("projectile should be registered")
				}
			}
		})
	}
}

func TestProjectileFlightAndCull(t *testing.T) {
	s := newScene(t)
	press(t, s, KeySpace)
	bodies := s.Bodies()
	projectile := bodies[len(bodies)-1]
	b, _ := s.Body(projectile)

	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(s.Bodies()) != len(bodies) {
		t.Fatalf("body above the cull height should survive")
	}
	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Fired from (0,-4,-10) towards the origin: z grows.
	if v := b.Velocity(); v.Z() <= 0 {
		t.Fatalf("projectile should move towards the origin, velocity %v", v)
	}

	b.SetPosition(mgl64.Vec3{0, 16, 0})
	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := len(s.Bodies()); got != len(bodies)-1 {
		t.Fatalf("expected %d bodies after cull, got %d", len(bodies)-1, got)
	}
	if s.World().IsAlive(projectile) || b.InWorld() {
		t.Fatalf("culled projectile should leave both worlds")
	}
}

func TestProjectileAfterOrbitAimsAtOrigin(t *testing.T) {
	spec := prefabs.DefaultSceneSpec()
	spec.World.Gravity = prefabs.Vec3Spec{}
	s := New(spec)
	if err := s.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s.Camera().Orbit(1.2, 0.4)
	from := s.Camera().Position()
	if from.X() != 0 || from.ApproxEqual(mgl64.Vec3{0, -4, -10}) {
		t.Fatalf("orbit should move the camera within the x=0 plane, got %v", from)
	}

	press(t, s, KeySpace)
	bodies := s.Bodies()
	b, _ := s.Body(bodies[len(bodies)-1])
	for i := 0; i < 2; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	v := b.Velocity()
	if v.Len() == 0 {
		t.Fatalf("projectile did not move")
	}
	want := from.Mul(-1).Normalize()
	if got := v.Normalize(); got.Dot(want) < 0.999 {
		t.Fatalf("velocity direction %v, want %v", got, want)
	}
	if b.Position().X() != 0 {
		t.Fatalf("projectile left the x=0 plane: %v", b.Position())
	}
}

func TestCullPreservesOrder(t *testing.T) {
	s := newScene(t)
	press(t, s, KeySpace, KeySpace, KeySpace)
	bodies := s.Bodies()
	middle, _ := s.Body(bodies[2])
	middle.SetPosition(mgl64.Vec3{0, 20, 0})

	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []ecs.Entity{bodies[0], bodies[1], bodies[3]}
	got := s.Bodies()
	if len(got) != len(want) {
		t.Fatalf("expected %d bodies, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order changed at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestPatchKeys(t *testing.T) {
	s := newScene(t)
	steps := []struct {
		key  Key
		want int
	}{
		{KeyC, 1},
		{KeyC, 1},
		{KeyDelete, 0},
		{KeyDelete, 0},
		{KeyC, 1},
		{KeyBackspace, 0},
		{KeyBackspace, 0},
	}
	for i, step := range steps {
		press(t, s, step.key)
		if got := len(s.Patches()); got != step.want {
			t.Fatalf("step %d (%v): expected %d patches, got %d", i, step.key, step.want, got)
		}
		if got := s.Physics().PatchCount(); got != step.want {
			t.Fatalf("step %d (%v): physics world has %d patches, want %d", i, step.key, got, step.want)
		}
	}
}

func TestDeleteRemovesOldestPatch(t *testing.T) {
	s := newScene(t)
	press(t, s, KeyC)
	first := s.Patches()[0]
	firstPatch, _ := s.Patch(first)

	// KeyC replaces, so a second live patch is registered directly.
	p, err := physics.NewPatch(
		mgl64.Vec3{-2, -6, -2}, mgl64.Vec3{2, -6, -2},
		mgl64.Vec3{-2, -6, 2}, mgl64.Vec3{2, -6, 2},
		5, 5, 0,
	)
	if err != nil {
		t.Fatalf("new patch: %v", err)
	}
	second := s.World().CreateEntity()
	if err := ecs.Add(s.World(), second, component.SoftPatchComponent, component.SoftPatch{Patch: p}); err != nil {
		t.Fatalf("add patch component: %v", err)
	}
	s.track(second)
	if err := s.bodies.Register(s.World(), second); err != nil {
		t.Fatalf("register: %v", err)
	}

	if got := s.Patches(); len(got) != 2 || got[0] != first || got[1] != second {
		t.Fatalf("expected [%v %v] oldest first, got %v", first, second, got)
	}
	if s.Physics().PatchCount() != 2 {
		t.Fatalf("physics world has %d patches", s.Physics().PatchCount())
	}

	press(t, s, KeyDelete)
	if got := s.Patches(); len(got) != 1 || got[0] != second {
		t.Fatalf("delete should keep the newer patch, got %v", got)
	}
	if s.World().IsAlive(first) || firstPatch.InWorld() {
		t.Fatalf("oldest patch should leave both worlds")
	}
	if !p.InWorld() || s.Physics().PatchCount() != 1 {
		t.Fatalf("newer patch should stay simulated, count %d", s.Physics().PatchCount())
	}

	press(t, s, KeyBackspace)
	if len(s.Patches()) != 0 || p.InWorld() {
		t.Fatalf("second delete should remove the remaining patch")
	}
}

func TestZeroMassClothStaysFinite(t *testing.T) {
	spec := prefabs.DefaultSceneSpec()
	spec.Cloth.Mass = 0
	if err := spec.Validate(); err != nil {
		t.Fatalf("zero cloth mass should be valid: %v", err)
	}
	s := New(spec)
	if err := s.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	press(t, s, KeyC)
	p, _ := s.Patch(s.Patches()[0])

	for i := 0; i < 5; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	for j, n := range p.NodePositions() {
		for _, f := range n {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Fatalf("node %d not finite: %v", j, n)
			}
		}
	}
}

func TestSpawnBodyFailureLeavesNothing(t *testing.T) {
	s := newScene(t)
	s.DrainEvents()
	entities, bodies := s.World().Len(), len(s.Bodies())

	errTag := errors.New("tag failed")
	body := physics.NewSphere(mgl64.Vec3{0, -5, 0}, 1, 0.5)
	_, err := s.spawnBody(body, true, func(*ecs.World, ecs.Entity) error { return errTag })
	if !errors.Is(err, errTag) {
		t.Fatalf("expected tag error, got %v", err)
	}
	if s.World().Len() != entities || len(s.Bodies()) != bodies {
		t.Fatalf("failed spawn left an entity: entities %d -> %d, bodies %d -> %d",
			entities, s.World().Len(), bodies, len(s.Bodies()))
	}
	if body.InWorld() || s.Physics().BodyCount() != 2 {
		t.Fatalf("failed spawn should not reach the physics world")
	}
	if len(s.DrainEvents()) != 0 {
		t.Fatalf("failed spawn should not emit events")
	}
}

func TestClothProperties(t *testing.T) {
	s := newScene(t)
	press(t, s, KeyC)
	patches := s.Patches()
	p, ok := s.Patch(patches[0])
	if !ok {
		t.Fatalf("patch missing")
	}

	if resX, resY := p.Resolution(); resX != 50 || resY != 50 {
		t.Fatalf("resolution %dx%d", resX, resY)
	}
	if p.Margin() != 0.45 {
		t.Fatalf("margin %v", p.Margin())
	}
	if math.Abs(p.TotalMass()-0.25) > 1e-12 {
		t.Fatalf("total mass %v", p.TotalMass())
	}
	if p.Materials()[0].LinearStiffness != 0.4 {
		t.Fatalf("linear stiffness %v", p.Materials()[0].LinearStiffness)
	}
	if _, bending := p.LinkCount(); bending != 48 {
		t.Fatalf("bending links %d", bending)
	}
	if cfg := p.Config; cfg.PositionIterations != 20 || cfg.CollisionIterations != 20 || cfg.DriftIterations != 20 {
		t.Fatalf("solver config %+v", cfg)
	}
	corners := p.Corners()
	if corners[0] != (mgl64.Vec3{-10, -10, -10}) || corners[3] != (mgl64.Vec3{10, -10, 10}) {
		t.Fatalf("corners %v", corners)
	}

	// The replaced patch leaves the physics world.
	press(t, s, KeyC)
	if p.InWorld() {
		t.Fatalf("replaced patch should be removed from the physics world")
	}
}

func TestOtherKeysIgnored(t *testing.T) {
	s := newScene(t)
	bodies, patches := len(s.Bodies()), len(s.Patches())
	press(t, s, KeyOther)
	if len(s.Bodies()) != bodies || len(s.Patches()) != patches {
		t.Fatalf("unbound key changed the scene")
	}
}

func TestEvents(t *testing.T) {
	s := newScene(t)
	s.DrainEvents()

	press(t, s, KeyC, KeyC)
	events := s.DrainEvents()
	var spawned, despawned int
	for _, ev := range events {
		switch ev.Type {
		case ecs.EventSpawned:
			spawned++
		case ecs.EventDespawned:
			despawned++
			if le := ev.Data.(ecs.LifecycleEvent); le.Reason != ReasonReplaced {
				t.Fatalf("despawn reason %q", le.Reason)
			}
		}
	}
	if spawned != 2 || despawned != 1 {
		t.Fatalf("spawned=%d despawned=%d", spawned, despawned)
	}
	if len(s.DrainEvents()) != 0 {
		t.Fatalf("drain should clear the queue")
	}
}

func TestDespawn(t *testing.T) {
	s := newScene(t)
	press(t, s, KeySpace)
	e := s.Bodies()[1]
	if !s.Despawn(e) {
		t.Fatalf("despawn failed")
	}
	if s.Despawn(e) {
		t.Fatalf("second despawn should fail")
	}
	if _, ok := s.Body(e); ok {
		t.Fatalf("despawned body should not resolve")
	}
	if len(s.Bodies()) != 1 || s.Physics().BodyCount() != 2 {
		t.Fatalf("bodies=%d physics=%d", len(s.Bodies()), s.Physics().BodyCount())
	}
}

func TestApplySpec(t *testing.T) {
	s := newScene(t)
	press(t, s, KeySpace)
	e := s.Bodies()[1]
	b, _ := s.Body(e)

	spec := prefabs.DefaultSceneSpec()
	spec.Cull.MaxHeight = 30
	spec.Projectile.Mass = 0.5
	if err := s.ApplySpec(spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	b.SetPosition(mgl64.Vec3{0, 20, 0})
	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !s.World().IsAlive(e) {
		t.Fatalf("raised cull height should keep the body")
	}

	press(t, s, KeySpace)
	bodies := s.Bodies()
	if nb, _ := s.Body(bodies[len(bodies)-1]); nb.Mass() != 0.5 {
		t.Fatalf("new projectile should use the new mass, got %v", nb.Mass())
	}

	bad := prefabs.DefaultSceneSpec()
	bad.Cloth.Resolution = 0
	if err := s.ApplySpec(bad); !errors.Is(err, prefabs.ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if s.Spec() != spec {
		t.Fatalf("invalid spec should not replace the current one")
	}
}
