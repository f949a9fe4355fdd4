package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultFovY   = 60.0
	defaultNear   = 0.1
	defaultFar    = 1000.0
	minDistance   = 0.5
	maxPitchAlign = 0.99
)

// Camera is a perspective camera orbiting a target point.
type Camera struct {
	position mgl64.Vec3
	target   mgl64.Vec3
	up       mgl64.Vec3
	distance float64

	fovY      float64
	near, far float64
	width     int
	height    int

	mouseInput bool
	// plane is the normal of the plane the camera is kept in, or zero.
	plane mgl64.Vec3
}

// NewCamera creates a camera ten units in front of the origin, looking at it,
// with mouse input enabled.
func NewCamera(width, height int) *Camera {
	c := &Camera{
		position:   mgl64.Vec3{0, 0, 10},
		up:         mgl64.Vec3{0, 1, 0},
		distance:   10,
		fovY:       defaultFovY,
		near:       defaultNear,
		far:        defaultFar,
		mouseInput: true,
	}
	c.SetViewport(width, height)
	return c
}

func (c *Camera) Position() mgl64.Vec3 { return c.position }
func (c *Camera) Target() mgl64.Vec3   { return c.target }
func (c *Camera) Up() mgl64.Vec3       { return c.up }
func (c *Camera) Distance() float64    { return c.distance }

func (c *Camera) Viewport() (width, height int) { return c.width, c.height }

func (c *Camera) EnableMouseInput()       { c.mouseInput = true }
func (c *Camera) DisableMouseInput()      { c.mouseInput = false }
func (c *Camera) MouseInputEnabled() bool { return c.mouseInput }

// SetDistance moves the camera along its current view axis to sit d units
// from the target.
func (c *Camera) SetDistance(d float64) {
	d = math.Max(d, minDistance)
	c.distance = d
	c.position = c.target.Add(c.backward().Mul(d))
}

// SetPosition moves the camera without changing the target.
func (c *Camera) SetPosition(p mgl64.Vec3) {
	c.position = p
	c.distance = p.Sub(c.target).Len()
}

// LookAt points the camera at target with the given up direction.
func (c *Camera) LookAt(target, up mgl64.Vec3) {
	c.target = target
	if up.Len() > 0 {
		c.up = up.Normalize()
	}
	c.distance = c.position.Sub(target).Len()
}

// ConstrainToPlane keeps later orbits in the plane through the target with
// the given normal. Orbit then only pitches about that normal. A zero normal
// lifts the constraint.
func (c *Camera) ConstrainToPlane(normal mgl64.Vec3) {
	if normal.Len() == 0 {
		c.plane = mgl64.Vec3{}
		return
	}
	c.plane = normal.Normalize()
}

// backward is the unit vector from the target to the camera.
func (c *Camera) backward() mgl64.Vec3 {
	off := c.position.Sub(c.target)
	if off.Len() == 0 {
		return mgl64.Vec3{0, 0, 1}
	}
	return off.Normalize()
}

// Orbit rotates the camera around the target by yaw about the up axis and
// pitch about the camera's right axis, both in radians. Pitch stops short of
// the poles. A plane constrained camera ignores yaw.
func (c *Camera) Orbit(yaw, pitch float64) {
	off := c.position.Sub(c.target)
	if off.Len() == 0 {
		return
	}
	var right mgl64.Vec3
	if c.plane.Len() > 0 {
		off = off.Sub(c.plane.Mul(off.Dot(c.plane)))
		right = c.plane
		if off.Cross(c.up).Dot(right) < 0 {
			right = right.Mul(-1)
		}
	} else {
		off = mgl64.QuatRotate(yaw, c.up).Rotate(off)
		right = off.Cross(c.up)
	}
	if right.Len() > 0 && off.Len() > 0 {
		pitched := mgl64.QuatRotate(pitch, right.Normalize()).Rotate(off)
		if math.Abs(pitched.Normalize().Dot(c.up)) < maxPitchAlign {
			off = pitched
		}
	}
	c.position = c.target.Add(off)
}

// Dolly scales the distance to the target by factor.
func (c *Camera) Dolly(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.distance * factor)
}

func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width = width
	c.height = height
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.position, c.target, c.up)
}

func (c *Camera) Projection() mgl64.Mat4 {
	aspect := 1.0
	if c.height > 0 {
		aspect = float64(c.width) / float64(c.height)
	}
	return mgl64.Perspective(mgl64.DegToRad(c.fovY), aspect, c.near, c.far)
}

// Depth returns the distance of p in front of the camera along the view axis.
func (c *Camera) Depth(p mgl64.Vec3) float64 {
	return -c.View().Mul4x1(p.Vec4(1)).Z()
}

// Project maps p to viewport pixels. ok is false for points in front of the
// near plane.
func (c *Camera) Project(p mgl64.Vec3) (x, y, depth float64, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w < c.near {
		return 0, 0, w, false
	}
	nx, ny := clip.X()/w, clip.Y()/w
	x = (nx + 1) / 2 * float64(c.width)
	y = (1 - ny) / 2 * float64(c.height)
	return x, y, w, true
}

// ClipSegment trims a-b to the part beyond the near plane.
func (c *Camera) ClipSegment(a, b mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, bool) {
	da, db := c.Depth(a)-c.near, c.Depth(b)-c.near
	switch {
	case da < 0 && db < 0:
		return a, b, false
	case da < 0:
		a = a.Add(b.Sub(a).Mul(da / (da - db)))
	case db < 0:
		b = b.Add(a.Sub(b).Mul(db / (db - da)))
	}
	return a, b, true
}

// ClipPolygon trims a convex polygon to the part beyond the near plane.
func (c *Camera) ClipPolygon(pts []mgl64.Vec3) []mgl64.Vec3 {
	if len(pts) == 0 {
		return nil
	}
	out := make([]mgl64.Vec3, 0, len(pts)+1)
	for i, cur := range pts {
		prev := pts[(i+len(pts)-1)%len(pts)]
		dc, dp := c.Depth(cur)-c.near, c.Depth(prev)-c.near
		if dc >= 0 {
			if dp < 0 {
				out = append(out, prev.Add(cur.Sub(prev).Mul(dp/(dp-dc))))
			}
			out = append(out, cur)
		} else if dp >= 0 {
			out = append(out, prev.Add(cur.Sub(prev).Mul(dp/(dp-dc))))
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// ScreenRadius returns the projected pixel radius of a sphere of radius r
// centred at center, or 0 when the centre is not drawable.
func (c *Camera) ScreenRadius(center mgl64.Vec3, r float64) float64 {
	depth := c.Depth(center)
	if depth < c.near {
		return 0
	}
	focal := float64(c.height) / 2 / math.Tan(mgl64.DegToRad(c.fovY)/2)
	return r * focal / depth
}
