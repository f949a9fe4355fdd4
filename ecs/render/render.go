package render

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/view"
)

const backgroundSegments = 48

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// RenderSystem draws the scene under a perspective camera. It reads the
// world and never mutates it.
type RenderSystem struct {
	Palette Palette

	vertices []ebiten.Vertex
	indices  []uint16
}

func NewRenderSystem(p Palette) *RenderSystem {
	return &RenderSystem{Palette: p}
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image, cam *view.Camera, light *view.Light) {
	if r == nil || screen == nil || cam == nil {
		return
	}

	r.drawBackground(screen)

	if light != nil {
		light.Enable()
		defer light.Disable()
	}

	width := float32(r.Palette.strokeWidth())
	for _, it := range buildItems(w, cam, light, r.Palette) {
		switch it.kind {
		case itemPolygon:
			r.fillPolygon(screen, it.points, it.color)
		case itemCircle:
			p := it.points[0]
			vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(it.radius), it.color, true)
		case itemLine:
			a, b := it.points[0], it.points[1]
			vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, it.color, true)
		}
	}
}

// drawBackground fills screen with a radial gradient from the inner colour
// at the centre to the outer colour at the corners.
func (r *RenderSystem) drawBackground(screen *ebiten.Image) {
	b := screen.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	radius := math.Hypot(cx, cy)
	inner, outer := r.Palette.BackgroundInner, r.Palette.BackgroundOuter

	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]
	r.vertices = append(r.vertices, vertex(cx, cy, inner))
	for i := 0; i <= backgroundSegments; i++ {
		t := 2 * math.Pi * float64(i) / backgroundSegments
		r.vertices = append(r.vertices, vertex(cx+math.Cos(t)*radius, cy+math.Sin(t)*radius, outer))
	}
	for i := 1; i <= backgroundSegments; i++ {
		r.indices = append(r.indices, 0, uint16(i), uint16(i+1))
	}
	screen.DrawTriangles(r.vertices, r.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (r *RenderSystem) fillPolygon(screen *ebiten.Image, pts []screenPoint, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]
	for _, p := range pts {
		r.vertices = append(r.vertices, vertex(p.X, p.Y, c))
	}
	for i := 1; i < len(pts)-1; i++ {
		r.indices = append(r.indices, 0, uint16(i), uint16(i+1))
	}
	screen.DrawTriangles(r.vertices, r.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func vertex(x, y float64, c color.RGBA) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   1,
		SrcY:   1,
		ColorR: float32(c.R) / 0xff,
		ColorG: float32(c.G) / 0xff,
		ColorB: float32(c.B) / 0xff,
		ColorA: float32(c.A) / 0xff,
	}
}
