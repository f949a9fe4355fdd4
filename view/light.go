package view

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const defaultAmbient = 0.3

// Light is a point light with Lambert diffuse shading.
type Light struct {
	position mgl64.Vec3
	ambient  float64
	enabled  bool
}

func NewLight() *Light {
	return &Light{ambient: defaultAmbient}
}

func (l *Light) SetPosition(p mgl64.Vec3) { l.position = p }
func (l *Light) Position() mgl64.Vec3     { return l.position }
func (l *Light) Enable()                  { l.enabled = true }
func (l *Light) Disable()                 { l.enabled = false }
func (l *Light) Enabled() bool            { return l.enabled }

// SetAmbient sets the light level of surfaces facing away, clamped to [0, 1].
func (l *Light) SetAmbient(a float64) {
	l.ambient = math.Min(1, math.Max(0, a))
}

// Shade returns c lit at point with the given surface normal. A disabled
// light leaves c unchanged.
func (l *Light) Shade(c color.RGBA, point, normal mgl64.Vec3) color.RGBA {
	if !l.enabled {
		return c
	}
	f := l.ambient
	toLight := l.position.Sub(point)
	if toLight.Len() > 0 && normal.Len() > 0 {
		diffuse := math.Max(0, normal.Normalize().Dot(toLight.Normalize()))
		f += (1 - l.ambient) * diffuse
	}
	scale := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) * f))
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
