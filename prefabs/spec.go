package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

// SceneSpec configures everything the scene builds. Fields missing from the
// YAML keep their defaults.
type SceneSpec struct {
	Window     WindowSpec     `yaml:"window"`
	Camera     CameraSpec     `yaml:"camera"`
	Light      LightSpec      `yaml:"light"`
	World      WorldSpec      `yaml:"world"`
	Ground     GroundSpec     `yaml:"ground"`
	Anchor     AnchorSpec     `yaml:"anchor"`
	Projectile ProjectileSpec `yaml:"projectile"`
	Cloth      ClothSpec      `yaml:"cloth"`
	Cull       CullSpec       `yaml:"cull"`
	Palette    PaletteSpec    `yaml:"palette"`
	Seed       int64          `yaml:"seed"`
}

type WindowSpec struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	TPS    int    `yaml:"tps"`
}

type CameraSpec struct {
	Distance float64  `yaml:"distance"`
	Position Vec3Spec `yaml:"position"`
	Target   Vec3Spec `yaml:"target"`
	Up       Vec3Spec `yaml:"up"`
	// Radians of orbit per dragged pixel.
	OrbitSpeed float64 `yaml:"orbit_speed"`
	ZoomSpeed  float64 `yaml:"zoom_speed"`
}

type LightSpec struct {
	Position Vec3Spec `yaml:"position"`
	Ambient  float64  `yaml:"ambient"`
}

type WorldSpec struct {
	Gravity    Vec3Spec `yaml:"gravity"`
	TimeStep   float64  `yaml:"time_step"`
	SubSteps   int      `yaml:"sub_steps"`
	Iterations int      `yaml:"iterations"`
}

type GroundSpec struct {
	Position    Vec3Spec `yaml:"position"`
	Size        Vec3Spec `yaml:"size"`
	Friction    float64  `yaml:"friction"`
	Restitution float64  `yaml:"restitution"`
}

type AnchorSpec struct {
	Position Vec3Spec `yaml:"position"`
	Radius   float64  `yaml:"radius"`
	Friction float64  `yaml:"friction"`
	Margin   float64  `yaml:"margin"`
}

type ProjectileSpec struct {
	Mass      float64 `yaml:"mass"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	Force     float64 `yaml:"force"`
}

type ClothSpec struct {
	HalfSize            float64  `yaml:"half_size"`
	Height              float64  `yaml:"height"`
	Resolution          int      `yaml:"resolution"`
	Margin              float64  `yaml:"margin"`
	BendingDistance     int      `yaml:"bending_distance"`
	LinearStiffness     float64  `yaml:"linear_stiffness"`
	Mass                float64  `yaml:"mass"`
	MassFromFaces       bool     `yaml:"mass_from_faces"`
	PositionIterations  int      `yaml:"position_iterations"`
	CollisionIterations int      `yaml:"collision_iterations"`
	DriftIterations     int      `yaml:"drift_iterations"`
	Fixed               []string `yaml:"fixed"`
}

type CullSpec struct {
	MaxHeight float64 `yaml:"max_height"`
}

type PaletteSpec struct {
	BackgroundInner YAMLColor `yaml:"background_inner"`
	BackgroundOuter YAMLColor `yaml:"background_outer"`
	Ground          YAMLColor `yaml:"ground"`
	Body            YAMLColor `yaml:"body"`
	Patch           YAMLColor `yaml:"patch"`
	LineWidth       float64   `yaml:"line_width"`
}

type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3Spec) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// ClothCorners lists the names accepted in cloth.fixed.
var ClothCorners = []string{"00", "10", "01", "11"}

func DefaultSceneSpec() *SceneSpec {
	return &SceneSpec{
		Window: WindowSpec{Title: "BulletBall", Width: 1024, Height: 768, TPS: 60},
		Camera: CameraSpec{
			Distance:   14,
			Position:   Vec3Spec{0, -4, -10},
			Up:         Vec3Spec{0, -1, 0},
			OrbitSpeed: 0.01,
			ZoomSpeed:  0.1,
		},
		Light: LightSpec{Position: Vec3Spec{0, -10, 0}, Ambient: 0.3},
		World: WorldSpec{
			Gravity:    Vec3Spec{0, 9.8, 0},
			TimeStep:   1.0 / 60.0,
			SubSteps:   1,
			Iterations: 10,
		},
		Ground: GroundSpec{
			Position:    Vec3Spec{0, 5.5, 0},
			Size:        Vec3Spec{50, 1, 50},
			Friction:    0.25,
			Restitution: 0.95,
		},
		Anchor: AnchorSpec{
			Position: Vec3Spec{0, -1.55, 0},
			Radius:   1.65,
			Friction: 0.4,
			Margin:   0.45,
		},
		Projectile: ProjectileSpec{Mass: 0.04, MinRadius: 0.2, MaxRadius: 0.8, Force: 60},
		Cloth: ClothSpec{
			HalfSize:            10,
			Height:              -10,
			Resolution:          50,
			Margin:              0.45,
			BendingDistance:     2,
			LinearStiffness:     0.4,
			Mass:                0.25,
			PositionIterations:  20,
			CollisionIterations: 20,
			DriftIterations:     20,
		},
		Cull: CullSpec{MaxHeight: 15},
		Palette: PaletteSpec{
			BackgroundInner: YAMLColor{color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
			BackgroundOuter: YAMLColor{color.NRGBA{R: 43, G: 81, B: 50, A: 255}},
			Ground:          YAMLColor{color.NRGBA{R: 92, G: 165, B: 128, A: 255}},
			Body:            YAMLColor{color.NRGBA{R: 255, G: 166, B: 50, A: 255}},
			Patch:           YAMLColor{color.NRGBA{R: 175, G: 15, B: 77, A: 255}},
			LineWidth:       0.5,
		},
		Seed: 1,
	}
}

// LoadSceneSpec reads the scene spec at path, or the default scene file when
// path is empty, on top of DefaultSceneSpec.
func LoadSceneSpec(path string) (*SceneSpec, error) {
	name := path
	if name == "" {
		name = SceneFile
	}
	data, err := LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	return ParseSceneSpec(name, data)
}

// ParseSceneSpec overlays data on the defaults and validates the result.
func ParseSceneSpec(name string, data []byte) (*SceneSpec, error) {
	spec := DefaultSceneSpec()
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal %s: %w", name, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: validate %s: %w", name, err)
	}
	return spec, nil
}

// Encode writes the spec back as YAML that ParseSceneSpec reads unchanged.
func (s *SceneSpec) Encode() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("prefabs: marshal scene spec: %w", err)
	}
	return data, nil
}

// Validate reports every out-of-range field, joined, each wrapping
// ErrInvalidSpec.
func (s *SceneSpec) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSpec}, args...)...))
		}
	}
	finite := func(v Vec3Spec) bool {
		for _, f := range []float64{v.X, v.Y, v.Z} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
		return true
	}

	check(s.Window.Width > 0 && s.Window.Height > 0, "window size %dx%d", s.Window.Width, s.Window.Height)
	check(s.Window.TPS > 0, "window.tps %d", s.Window.TPS)

	check(s.Camera.Distance > 0, "camera.distance %v", s.Camera.Distance)
	check(finite(s.Camera.Position) && finite(s.Camera.Target), "camera position/target not finite")
	check(s.Camera.Up.Vec().Len() > 0, "camera.up is zero")
	check(s.Camera.Position.Vec() != s.Camera.Target.Vec(), "camera.position equals camera.target")
	// Bodies are simulated in the x=0 plane; the camera fires from inside it.
	check(s.Camera.Position.X == 0 && s.Camera.Target.X == 0, "camera position/target off the x=0 plane")
	check(s.Camera.OrbitSpeed >= 0 && s.Camera.ZoomSpeed >= 0 && s.Camera.ZoomSpeed < 1, "camera orbit/zoom speed")

	check(s.Light.Ambient >= 0 && s.Light.Ambient <= 1, "light.ambient %v", s.Light.Ambient)

	check(finite(s.World.Gravity), "world.gravity not finite")
	check(s.World.TimeStep > 0, "world.time_step %v", s.World.TimeStep)
	check(s.World.SubSteps >= 1, "world.sub_steps %d", s.World.SubSteps)
	check(s.World.Iterations >= 1, "world.iterations %d", s.World.Iterations)

	check(s.Ground.Size.X > 0 && s.Ground.Size.Y > 0 && s.Ground.Size.Z > 0, "ground.size %+v", s.Ground.Size)
	check(s.Ground.Friction >= 0 && s.Ground.Restitution >= 0, "ground friction/restitution")

	check(s.Anchor.Radius > 0, "anchor.radius %v", s.Anchor.Radius)
	check(s.Anchor.Friction >= 0 && s.Anchor.Margin >= 0, "anchor friction/margin")

	check(s.Projectile.Mass > 0, "projectile.mass %v", s.Projectile.Mass)
	check(s.Projectile.MinRadius > 0 && s.Projectile.MinRadius < s.Projectile.MaxRadius,
		"projectile radius range [%v, %v)", s.Projectile.MinRadius, s.Projectile.MaxRadius)

	c := s.Cloth
	check(c.HalfSize > 0, "cloth.half_size %v", c.HalfSize)
	check(c.Resolution >= 2, "cloth.resolution %d", c.Resolution)
	check(c.Margin >= 0, "cloth.margin %v", c.Margin)
	check(c.BendingDistance >= 0, "cloth.bending_distance %d", c.BendingDistance)
	check(c.LinearStiffness >= 0 && c.LinearStiffness <= 1, "cloth.linear_stiffness %v", c.LinearStiffness)
	check(c.Mass >= 0, "cloth.mass %v", c.Mass)
	check(c.PositionIterations >= 1 && c.CollisionIterations >= 1 && c.DriftIterations >= 1, "cloth iterations")
	for _, name := range c.Fixed {
		check(isClothCorner(name), "cloth.fixed corner %q", name)
	}

	check(!math.IsNaN(s.Cull.MaxHeight), "cull.max_height is NaN")

	p := s.Palette
	check(p.BackgroundInner.Color != nil && p.BackgroundOuter.Color != nil &&
		p.Ground.Color != nil && p.Body.Color != nil && p.Patch.Color != nil, "palette colour missing")
	check(p.LineWidth > 0, "palette.line_width %v", p.LineWidth)

	return errors.Join(errs...)
}

func isClothCorner(name string) bool {
	for _, c := range ClothCorners {
		if c == name {
			return true
		}
	}
	return false
}

type YAMLColor struct {
	color.Color
}

// ToRGBA converts to 8-bit non-premultiplied RGBA. A missing colour is black.
func (c YAMLColor) ToRGBA() color.RGBA {
	if c.Color == nil {
		return color.RGBA{A: 255}
	}
	n := color.NRGBAModel.Convert(c.Color).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

// MarshalYAML writes the colour back as #rrggbbaa.
func (c YAMLColor) MarshalYAML() (any, error) {
	n := c.ToRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A), nil
}
