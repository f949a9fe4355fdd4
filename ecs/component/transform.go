package component

import "github.com/go-gl/mathgl/mgl64"

// Transform mirrors the simulated position of a body after each step.
type Transform struct {
	Position mgl64.Vec3
}

var TransformComponent = NewComponent[Transform]()
