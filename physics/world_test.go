package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Update()
	}
}

func TestWorldAddRemoveBody(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := NewSphere(mgl64.Vec3{0, 0, 0}, 1, 0.5)

	if err := w.RemoveBody(b); !errors.Is(err, ErrNotInWorld) {
		t.Fatalf("remove before add: expected ErrNotInWorld, got %v", err)
	}
	if err := w.AddBody(b); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.AddBody(b); !errors.Is(err, ErrAlreadyAdded) {
		t.Fatalf("second add: expected ErrAlreadyAdded, got %v", err)
	}
	if w.BodyCount() != 1 || !b.InWorld() {
		t.Fatalf("expected body registered, count=%d", w.BodyCount())
	}

	other := NewWorld(DefaultConfig())
	if err := other.RemoveBody(b); !errors.Is(err, ErrNotInWorld) {
		t.Fatalf("remove from other world: expected ErrNotInWorld, got %v", err)
	}

	stepN(w, 5)
	before := b.Position()
	if err := w.RemoveBody(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if w.BodyCount() != 0 || b.InWorld() {
		t.Fatalf("expected body unregistered, count=%d", w.BodyCount())
	}
	if b.Position() != before {
		t.Fatalf("removed body should keep its last position: got %v want %v", b.Position(), before)
	}
}

func TestWorldConfigDefaults(t *testing.T) {
	w := NewWorld(Config{Gravity: mgl64.Vec3{0, 1, 0}})
	cfg := w.Config()
	if cfg.TimeStep != 1.0/60.0 || cfg.MaxSubSteps != 1 || cfg.Iterations != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Gravity != (mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("gravity should be kept, got %v", cfg.Gravity)
	}
}

func TestRigidBodyMotion(t *testing.T) {
	cases := []struct {
		name  string
		build func() *RigidBody
		check func(t *testing.T, start, end mgl64.Vec3)
	}{
		{
			name:  "dynamic_falls_towards_positive_y",
			build: func() *RigidBody { return NewSphere(mgl64.Vec3{0, 0, 0}, 1, 0.5) },
			check: func(t *testing.T, start, end mgl64.Vec3) {
				if end.Y() <= start.Y() {
					t.Fatalf("expected y to grow, start=%v end=%v", start, end)
				}
			},
		},
		{
			name: "kinematic_ignores_gravity",
			build: func() *RigidBody {
				b := NewSphere(mgl64.Vec3{0, -1.55, 0}, 0, 1.65)
				b.EnableKinematic()
				return b
			},
			check: func(t *testing.T, start, end mgl64.Vec3) {
				if start != end {
					t.Fatalf("kinematic body moved: start=%v end=%v", start, end)
				}
			},
		},
		{
			name:  "static_stays",
			build: func() *RigidBody { return NewBox(mgl64.Vec3{0, 5.5, 0}, 0, mgl64.Vec3{50, 1, 50}) },
			check: func(t *testing.T, start, end mgl64.Vec3) {
				if start != end {
					t.Fatalf("static body moved: start=%v end=%v", start, end)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld(DefaultConfig())
			b := c.build()
			if err := w.AddBody(b); err != nil {
				t.Fatalf("add: %v", err)
			}
			start := b.Position()
			stepN(w, 30)
			c.check(t, start, b.Position())
		})
	}
}

func TestGroundStopsSphere(t *testing.T) {
	w := NewWorld(DefaultConfig())
	ground := NewBox(mgl64.Vec3{0, 5.5, 0}, 0, mgl64.Vec3{50, 1, 50})
	ground.SetProperties(0.25, 0)
	ball := NewSphere(mgl64.Vec3{0, 0, 0}, 1, 0.5)

	for _, b := range []*RigidBody{ground, ball} {
		if err := w.AddBody(b); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	stepN(w, 600)

	if y := ball.Position().Y(); y > 5.1 || y < 4 {
		t.Fatalf("expected sphere resting on ground top at y=5, got y=%v", y)
	}
}

func TestApplyCentralForce(t *testing.T) {
	w := NewWorld(Config{})
	b := NewSphere(mgl64.Vec3{0, 0, 0}, 0.04, 0.5)

	// Held until the body joins the world; x is outside the plane.
	b.ApplyCentralForce(mgl64.Vec3{30, 0, 60})
	if err := w.AddBody(b); err != nil {
		t.Fatalf("add: %v", err)
	}
	w.Update()

	want := 60 / 0.04 * w.Config().TimeStep
	v := b.Velocity()
	if !approx(v.Z(), want, 1e-6) || v.X() != 0 {
		t.Fatalf("velocity after one step: got %v want z=%v", v, want)
	}

	w.Update()
	if got := b.Velocity().Z(); !approx(got, want, 1e-6) {
		t.Fatalf("force should apply for one step only: got z=%v want %v", got, want)
	}
}

func TestRigidBodySetters(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := NewSphere(mgl64.Vec3{0, -1.55, 0}, 0, 1.65)
	b.EnableKinematic()
	b.SetFriction(0.4)
	if err := w.AddBody(b); err != nil {
		t.Fatalf("add: %v", err)
	}

	shape := b.EngineShape()
	b.SetMargin(0.45)
	if b.EngineShape() == shape {
		t.Fatalf("margin change should rebuild the live shape")
	}
	if !approx(b.CollisionRadius(), 1.65+0.41, 1e-9) {
		t.Fatalf("collision radius: got %v", b.CollisionRadius())
	}
	if b.Friction() != 0.4 {
		t.Fatalf("friction should survive rebuild")
	}
	if b.Position() != (mgl64.Vec3{0, -1.55, 0}) {
		t.Fatalf("position should survive rebuild, got %v", b.Position())
	}

	b.SetPosition(mgl64.Vec3{0, -2, 1})
	if got := b.Position(); !approx(got.Y(), -2, 1e-9) || !approx(got.Z(), 1, 1e-9) {
		t.Fatalf("SetPosition: got %v", got)
	}
}

func TestWorldClear(t *testing.T) {
	w := NewWorld(DefaultConfig())
	for i := 0; i < 3; i++ {
		if err := w.AddBody(NewSphere(mgl64.Vec3{0, float64(i), 0}, 1, 0.2)); err != nil {
			t.Fatalf("add body: %v", err)
		}
	}
	p, err := NewPatch(mgl64.Vec3{-1, 0, -1}, mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 0, 1}, mgl64.Vec3{1, 0, 1}, 3, 3, 0)
	if err != nil {
		t.Fatalf("new patch: %v", err)
	}
	if err := w.AddPatch(p); err != nil {
		t.Fatalf("add patch: %v", err)
	}

	w.Clear()
	if w.BodyCount() != 0 || w.PatchCount() != 0 {
		t.Fatalf("expected empty world, bodies=%d patches=%d", w.BodyCount(), w.PatchCount())
	}
}
