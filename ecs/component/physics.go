package component

import "github.com/milk9111/bulletball/physics"

// RigidBody binds an entity to a sphere or box in the physics world.
type RigidBody struct {
	Body *physics.RigidBody
}

var RigidBodyComponent = NewComponent[RigidBody]()

// SoftPatch binds an entity to a cloth patch in the physics world.
type SoftPatch struct {
	Patch *physics.Patch
}

var SoftPatchComponent = NewComponent[SoftPatch]()
