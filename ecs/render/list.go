package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/bulletball/ecs"
	"github.com/milk9111/bulletball/ecs/component"
	"github.com/milk9111/bulletball/physics"
	"github.com/milk9111/bulletball/prefabs"
	"github.com/milk9111/bulletball/view"
)

// Palette holds the colours of one frame.
type Palette struct {
	BackgroundInner color.RGBA
	BackgroundOuter color.RGBA
	Ground          color.RGBA
	Body            color.RGBA
	Patch           color.RGBA
	LineWidth       float64
}

func PaletteFromSpec(p prefabs.PaletteSpec) Palette {
	return Palette{
		BackgroundInner: p.BackgroundInner.ToRGBA(),
		BackgroundOuter: p.BackgroundOuter.ToRGBA(),
		Ground:          p.Ground.ToRGBA(),
		Body:            p.Body.ToRGBA(),
		Patch:           p.Patch.ToRGBA(),
		LineWidth:       p.LineWidth,
	}
}

// strokeWidth is the configured line width, never thinner than a pixel.
func (p Palette) strokeWidth() float64 {
	return math.Max(1, p.LineWidth)
}

type itemKind int

const (
	itemPolygon itemKind = iota
	itemCircle
	itemLine
)

type screenPoint struct {
	X, Y float64
}

// item is one primitive of the painter's pass, already in screen space.
type item struct {
	kind   itemKind
	depth  float64
	points []screenPoint
	radius float64
	color  color.RGBA
}

// boxFaces lists the corner indices of each face, counter-clockwise seen
// from outside, with the face normal.
var boxFaces = [6]struct {
	idx    [4]int
	normal mgl64.Vec3
}{
	{[4]int{0, 2, 3, 1}, mgl64.Vec3{-1, 0, 0}},
	{[4]int{4, 5, 7, 6}, mgl64.Vec3{1, 0, 0}},
	{[4]int{0, 1, 5, 4}, mgl64.Vec3{0, -1, 0}},
	{[4]int{2, 6, 7, 3}, mgl64.Vec3{0, 1, 0}},
	{[4]int{0, 4, 6, 2}, mgl64.Vec3{0, 0, -1}},
	{[4]int{1, 3, 7, 5}, mgl64.Vec3{0, 0, 1}},
}

// boxCorners returns the eight corners of an axis aligned box. Bit 2 of the
// index selects +x, bit 1 +y and bit 0 +z.
func boxCorners(center, size mgl64.Vec3) [8]mgl64.Vec3 {
	half := size.Mul(0.5)
	var out [8]mgl64.Vec3
	for i := range out {
		d := mgl64.Vec3{-half.X(), -half.Y(), -half.Z()}
		if i&4 != 0 {
			d[0] = half.X()
		}
		if i&2 != 0 {
			d[1] = half.Y()
		}
		if i&1 != 0 {
			d[2] = half.Z()
		}
		out[i] = center.Add(d)
	}
	return out
}

// buildItems collects every visible primitive of w, sorted far to near.
func buildItems(w *ecs.World, cam *view.Camera, light *view.Light, pal Palette) []item {
	if w == nil || cam == nil {
		return nil
	}
	if light == nil {
		light = view.NewLight()
	}
	var items []item

	ecs.ForEach(w, component.RigidBodyComponent, func(e ecs.Entity, rb *component.RigidBody) {
		if rb.Body == nil {
			return
		}
		c := pal.Body
		if ecs.Has(w, e, component.GroundTagComponent) {
			c = pal.Ground
		}
		switch rb.Body.Kind() {
		case physics.ShapeBox:
			items = appendBox(items, cam, light, rb.Body.Position(), rb.Body.Size(), c)
		default:
			items = appendSphere(items, cam, light, rb.Body.Position(), rb.Body.Radius(), c)
		}
	})

	ecs.ForEach(w, component.SoftPatchComponent, func(_ ecs.Entity, sp *component.SoftPatch) {
		if sp.Patch == nil {
			return
		}
		items = appendWireframe(items, cam, sp.Patch.Mesh(), pal.Patch)
	})

	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })
	return items
}

func appendBox(items []item, cam *view.Camera, light *view.Light, center, size mgl64.Vec3, c color.RGBA) []item {
	corners := boxCorners(center, size)
	eye := cam.Position()
	for _, face := range boxFaces {
		pts := make([]mgl64.Vec3, 4)
		var mid mgl64.Vec3
		for k, idx := range face.idx {
			pts[k] = corners[idx]
			mid = mid.Add(corners[idx])
		}
		mid = mid.Mul(0.25)
		if face.normal.Dot(eye.Sub(mid)) <= 0 {
			continue
		}
		clipped := cam.ClipPolygon(pts)
		if clipped == nil {
			continue
		}
		it := item{kind: itemPolygon, color: light.Shade(c, mid, face.normal)}
		for _, p := range clipped {
			x, y, depth, ok := cam.Project(p)
			if !ok {
				// Points on the near plane can miss by rounding.
				depth = cam.Depth(p)
				x, y = projectLoose(cam, p)
			}
			it.points = append(it.points, screenPoint{x, y})
			it.depth = math.Max(it.depth, depth)
		}
		items = append(items, it)
	}
	return items
}

func appendSphere(items []item, cam *view.Camera, light *view.Light, center mgl64.Vec3, r float64, c color.RGBA) []item {
	x, y, depth, ok := cam.Project(center)
	if !ok {
		return items
	}
	sr := cam.ScreenRadius(center, r)
	if sr <= 0 {
		return items
	}
	// Shade the point facing the viewer.
	normal := cam.Position().Sub(center)
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	return append(items, item{
		kind:   itemCircle,
		depth:  depth,
		points: []screenPoint{{x, y}},
		radius: sr,
		color:  light.Shade(c, center.Add(normal.Mul(r)), normal),
	})
}

func appendWireframe(items []item, cam *view.Camera, mesh *physics.Mesh, c color.RGBA) []item {
	for _, edge := range mesh.Edges() {
		a, b, ok := cam.ClipSegment(mesh.Vertices[edge[0]], mesh.Vertices[edge[1]])
		if !ok {
			continue
		}
		ax, ay, da, okA := cam.Project(a)
		bx, by, db, okB := cam.Project(b)
		if !okA {
			ax, ay = projectLoose(cam, a)
		}
		if !okB {
			bx, by = projectLoose(cam, b)
		}
		items = append(items, item{
			kind:   itemLine,
			depth:  (da + db) / 2,
			points: []screenPoint{{ax, ay}, {bx, by}},
			color:  c,
		})
	}
	return items
}

// projectLoose projects a point that sits on the near plane.
func projectLoose(cam *view.Camera, p mgl64.Vec3) (float64, float64) {
	width, height := cam.Viewport()
	clip := cam.Projection().Mul4(cam.View()).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w == 0 {
		return 0, 0
	}
	return (clip.X()/w + 1) / 2 * float64(width), (1 - clip.Y()/w) / 2 * float64(height)
}
