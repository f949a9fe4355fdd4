package system

import (
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/ecs/component"
	"github.com/milk9111/bulletball/physics"
)

// PhysicsSystem keeps entities with RigidBody or SoftPatch components
// registered with the physics world, steps it, and mirrors body positions
// into Transform components.
type PhysicsSystem struct {
	world *physics.World

	bodies  map[ecs.Entity]*physics.RigidBody
	patches map[ecs.Entity]*physics.Patch
}

func NewPhysicsSystem(pw *physics.World) *PhysicsSystem {
	return &PhysicsSystem{
		world:   pw,
		bodies:  make(map[ecs.Entity]*physics.RigidBody),
		patches: make(map[ecs.Entity]*physics.Patch),
	}
}

func (ps *PhysicsSystem) World() *physics.World {
	if ps == nil {
		return nil
	}
	return ps.world
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || ps.world == nil || w == nil {
		return
	}

	ps.syncEntities(w)
	ps.world.Update()
	ps.syncTransforms(w)
}

// Register adds e's body or patch to the physics world right away instead of
// waiting for the next Update.
func (ps *PhysicsSystem) Register(w *ecs.World, e ecs.Entity) error {
	if !w.IsAlive(e) {
		return component.ErrEntityNotAlive
	}
	if rb, ok := ecs.Get(w, e, component.RigidBodyComponent); ok && rb.Body != nil {
		if err := ps.addBody(e, rb.Body); err != nil {
			return err
		}
	}
	if sp, ok := ecs.Get(w, e, component.SoftPatchComponent); ok && sp.Patch != nil {
		if err := ps.addPatch(e, sp.Patch); err != nil {
			return err
		}
	}
	ps.syncTransform(w, e)
	return nil
}

// Despawn unregisters e from the physics world and destroys it, queuing a
// despawn event with the given reason.
func (ps *PhysicsSystem) Despawn(w *ecs.World, e ecs.Entity, reason string) bool {
	if ps == nil || w == nil || !w.IsAlive(e) {
		return false
	}
	ps.release(e)
	if !w.DestroyEntity(e) {
		return false
	}
	w.Events().Push(ecs.Event{
		Type: ecs.EventDespawned,
		Data: ecs.LifecycleEvent{Entity: e, Reason: reason},
	})
	return true
}

func (ps *PhysicsSystem) addBody(e ecs.Entity, b *physics.RigidBody) error {
	if ps.bodies[e] == b {
		return nil
	}
	if err := ps.world.AddBody(b); err != nil {
		return err
	}
	ps.bodies[e] = b
	return nil
}

func (ps *PhysicsSystem) addPatch(e ecs.Entity, p *physics.Patch) error {
	if ps.patches[e] == p {
		return nil
	}
	if err := ps.world.AddPatch(p); err != nil {
		return err
	}
	ps.patches[e] = p
	return nil
}

// release drops whatever e has in the physics world.
func (ps *PhysicsSystem) release(e ecs.Entity) {
	if b, ok := ps.bodies[e]; ok {
		if err := ps.world.RemoveBody(b); err != nil {
			panic("physics system: remove body: " + err.Error())
		}
		delete(ps.bodies, e)
	}
	if p, ok := ps.patches[e]; ok {
		if err := ps.world.RemovePatch(p); err != nil {
			panic("physics system: remove patch: " + err.Error())
		}
		delete(ps.patches, e)
	}
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	ps.cleanupEntities(w)

	for _, e := range w.Query(component.RigidBodyComponent.Kind()) {
		rb, ok := ecs.Get(w, e, component.RigidBodyComponent)
		if !ok || rb.Body == nil {
			continue
		}
		if err := ps.addBody(e, rb.Body); err != nil {
			panic("physics system: add body: " + err.Error())
		}
	}
	for _, e := range w.Query(component.SoftPatchComponent.Kind()) {
		sp, ok := ecs.Get(w, e, component.SoftPatchComponent)
		if !ok || sp.Patch == nil {
			continue
		}
		if err := ps.addPatch(e, sp.Patch); err != nil {
			panic("physics system: add patch: " + err.Error())
		}
	}
}

// cleanupEntities releases bodies whose entity died or lost its component
// outside of Despawn.
func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, b := range ps.bodies {
		if w.IsAlive(e) {
			if rb, ok := ecs.Get(w, e, component.RigidBodyComponent); ok && rb.Body == b {
				continue
			}
		}
		if err := ps.world.RemoveBody(b); err != nil {
			panic("physics system: cleanup body: " + err.Error())
		}
		delete(ps.bodies, e)
	}
	for e, p := range ps.patches {
		if w.IsAlive(e) {
			if sp, ok := ecs.Get(w, e, component.SoftPatchComponent); ok && sp.Patch == p {
				continue
			}
		}
		if err := ps.world.RemovePatch(p); err != nil {
			panic("physics system: cleanup patch: " + err.Error())
		}
		delete(ps.patches, e)
	}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for _, e := range w.Query(component.RigidBodyComponent.Kind(), component.TransformComponent.Kind()) {
		ps.syncTransform(w, e)
	}
}

func (ps *PhysicsSystem) syncTransform(w *ecs.World, e ecs.Entity) {
	rb, ok := ecs.Get(w, e, component.RigidBodyComponent)
	if !ok || rb.Body == nil {
		return
	}
	transform, ok := ecs.Get(w, e, component.TransformComponent)
	if !ok {
		return
	}
	transform.Position = rb.Body.Position()
	if err := ecs.Add(w, e, component.TransformComponent, transform); err != nil {
		panic("physics system: update transform: " + err.Error())
	}
}
