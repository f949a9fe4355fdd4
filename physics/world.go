package physics

import (
	"errors"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

var (
	ErrAlreadyAdded      = errors.New("physics: already added to a world")
	ErrNotInWorld        = errors.New("physics: not in this world")
	ErrInvalidResolution = errors.New("physics: patch resolution must be at least 2x2")
)

// Projector maps scene points to screen pixels. depth is the distance along
// the view axis; ok is false for points that cannot be drawn.
type Projector interface {
	Project(p mgl64.Vec3) (x, y, depth float64, ok bool)
}

// Config holds the world-wide simulation settings.
type Config struct {
	Gravity     mgl64.Vec3
	TimeStep    float64
	MaxSubSteps int
	// Iterations is the solver floor; live patches may raise it.
	Iterations int
}

func DefaultConfig() Config {
	return Config{
		Gravity:     mgl64.Vec3{0, 9.8, 0},
		TimeStep:    1.0 / 60.0,
		MaxSubSteps: 1,
		Iterations:  10,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TimeStep <= 0 {
		c.TimeStep = def.TimeStep
	}
	if c.MaxSubSteps <= 0 {
		c.MaxSubSteps = def.MaxSubSteps
	}
	if c.Iterations <= 0 {
		c.Iterations = def.Iterations
	}
	return c
}

// World owns the Chipmunk space and every body and patch registered with it.
type World struct {
	cfg    Config
	space  *cp.Space
	camera Projector

	bodies  []*RigidBody
	patches []*Patch

	nextGroup uint
	ticks     uint64
}

// NewWorld creates a world with gravity and solver settings from cfg.
func NewWorld(cfg Config) *World {
	cfg = cfg.withDefaults()
	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(ToPlane(cfg.Gravity))
	return &World{cfg: cfg, space: space}
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) Config() Config {
	return w.cfg
}

// SetCamera binds the view used by DebugDraw.
func (w *World) SetCamera(p Projector) {
	w.camera = p
}

func (w *World) Camera() Projector {
	return w.camera
}

// Ticks returns how many times the world has been stepped.
func (w *World) Ticks() uint64 {
	return w.ticks
}

func (w *World) BodyCount() int {
	return len(w.bodies)
}

func (w *World) PatchCount() int {
	return len(w.patches)
}

// Update advances the world by one fixed tick.
func (w *World) Update() {
	w.Step(w.cfg.TimeStep)
}

// Step advances the world by dt, split evenly into the configured sub-steps,
// then rebuilds every patch mesh from its node bodies.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	w.space.Iterations = uint(w.solverIterations())

	n := max(1, w.cfg.MaxSubSteps)
	h := dt / float64(n)
	for range n {
		w.space.Step(h)
	}

	for _, p := range w.patches {
		p.syncMesh()
	}
	w.ticks++
}

// solverIterations is the largest iteration count requested by the world or
// by any live patch. Chipmunk has a single solver loop, so the position,
// collision and drift counts all feed the same number.
func (w *World) solverIterations() int {
	n := w.cfg.Iterations
	for _, p := range w.patches {
		cfg := p.Config
		n = max(n, cfg.PositionIterations, cfg.CollisionIterations, cfg.DriftIterations)
	}
	return max(1, n)
}

// AddBody registers b with the world and creates its engine body and shape.
func (w *World) AddBody(b *RigidBody) error {
	if b == nil {
		return ErrNotInWorld
	}
	if b.world != nil {
		return ErrAlreadyAdded
	}
	b.world = w
	b.attach()
	w.bodies = append(w.bodies, b)
	return nil
}

// RemoveBody unregisters b and drops its engine body and shape.
func (w *World) RemoveBody(b *RigidBody) error {
	if b == nil || b.world != w {
		return ErrNotInWorld
	}
	idx := -1
	for i, other := range w.bodies {
		if other == b {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotInWorld
	}
	b.position = b.Position()
	b.detach()
	b.world = nil
	w.bodies = append(w.bodies[:idx], w.bodies[idx+1:]...)
	return nil
}

// AddPatch registers p and builds its node bodies, shapes and links.
func (w *World) AddPatch(p *Patch) error {
	if p == nil {
		return ErrNotInWorld
	}
	if p.world != nil {
		return ErrAlreadyAdded
	}
	w.nextGroup++
	p.world = w
	p.group = w.nextGroup
	p.attach()
	w.patches = append(w.patches, p)
	return nil
}

// RemovePatch unregisters p and drops everything it owns in the space.
func (w *World) RemovePatch(p *Patch) error {
	if p == nil || p.world != w {
		return ErrNotInWorld
	}
	idx := -1
	for i, other := range w.patches {
		if other == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotInWorld
	}
	p.detach()
	p.world = nil
	w.patches = append(w.patches[:idx], w.patches[idx+1:]...)
	return nil
}

// Clear removes every body and patch.
func (w *World) Clear() {
	for len(w.patches) > 0 {
		if err := w.RemovePatch(w.patches[0]); err != nil {
			log.Printf("physics: clear patch: %v", err)
			break
		}
	}
	for len(w.bodies) > 0 {
		if err := w.RemoveBody(w.bodies[0]); err != nil {
			log.Printf("physics: clear body: %v", err)
			break
		}
	}
}
