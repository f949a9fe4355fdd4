package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// Chipmunk integrates in 2D. The scene is simulated in the vertical y-z plane
// the default camera looks through: engine X is world z, engine Y is world y.
// A body's world x is carried alongside it and never integrated.

// PlaneNormal is the world axis the simulation plane is perpendicular to.
var PlaneNormal = mgl64.Vec3{1, 0, 0}

// ToPlane drops the x coordinate of p.
func ToPlane(p mgl64.Vec3) cp.Vector {
	return cp.Vector{X: p.Z(), Y: p.Y()}
}

// FromPlane lifts an engine vector back into the scene at the given x.
func FromPlane(v cp.Vector, x float64) mgl64.Vec3 {
	return mgl64.Vec3{x, v.Y, v.X}
}
