package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/bulletball/common"
)

// Corner selects patch corners to pin in place.
type Corner uint8

const (
	Corner00 Corner = 1 << iota
	Corner10
	Corner01
	Corner11
)

const (
	nodeFriction    = 0.2
	minNodeMass     = 1e-6
	maxStretchRatio = 1.1
)

// Material scales the stiffness of the links that reference it.
type Material struct {
	// LinearStiffness is in [0, 1]; 1 is as stiff as the step allows.
	LinearStiffness float64
}

// SolverConfig holds the per-patch iteration counts.
type SolverConfig struct {
	PositionIterations  int
	CollisionIterations int
	DriftIterations     int
}

type node struct {
	x      float64
	rest   cp.Vector
	pos    cp.Vector
	mass   float64
	pinned bool

	body  *cp.Body
	shape *cp.Shape
}

type link struct {
	a, b int
	rest float64
	mat  *Material
	bend bool

	spring *cp.Constraint
	limit  *cp.Constraint
}

// Patch is a cloth sheet spanned by four corners. The sheet is simulated as a
// strip of resY nodes from corner00 to corner01; the resX rows of the mesh
// extrude that strip towards corner10.
type Patch struct {
	Config SolverConfig

	corners    [4]mgl64.Vec3
	resX, resY int
	fixeds     Corner

	margin    float64
	totalMass float64
	fromFaces bool

	materials []*Material
	nodes     []node
	links     []link

	mesh  Mesh
	world *World
	group uint
}

// NewPatch builds a patch over the corners c00, c10, c01, c11 with a resX by
// resY node grid. Corners in fixeds are pinned.
func NewPatch(c00, c10, c01, c11 mgl64.Vec3, resX, resY int, fixeds Corner) (*Patch, error) {
	if resX < 2 || resY < 2 {
		return nil, ErrInvalidResolution
	}

	p := &Patch{
		Config:    SolverConfig{PositionIterations: 1, CollisionIterations: 1, DriftIterations: 1},
		corners:   [4]mgl64.Vec3{c00, c10, c01, c11},
		resX:      resX,
		resY:      resY,
		fixeds:    fixeds,
		margin:    DefaultMargin,
		totalMass: float64(resX * resY),
		materials: []*Material{{LinearStiffness: 1}},
		nodes:     make([]node, resY),
	}

	last := resY - 1
	for j := range p.nodes {
		v := float64(j) / float64(last)
		pos := lerpVec(c00, c01, v)
		p.nodes[j] = node{x: pos.X(), rest: ToPlane(pos), pos: ToPlane(pos)}
	}
	p.nodes[0].pinned = fixeds&(Corner00|Corner10) != 0
	p.nodes[last].pinned = fixeds&(Corner01|Corner11) != 0

	for j := 0; j < last; j++ {
		p.links = append(p.links, p.newLink(j, j+1, p.materials[0], false))
	}

	p.mesh = newGridMesh(resX, resY)
	p.distributeMass()
	p.syncMesh()
	return p, nil
}

func (p *Patch) newLink(a, b int, mat *Material, bend bool) link {
	return link{
		a:    a,
		b:    b,
		rest: p.nodes[a].rest.Distance(p.nodes[b].rest),
		mat:  mat,
		bend: bend,
	}
}

func (p *Patch) Resolution() (resX, resY int) { return p.resX, p.resY }
func (p *Patch) Corners() [4]mgl64.Vec3       { return p.corners }
func (p *Patch) Margin() float64              { return p.margin }
func (p *Patch) InWorld() bool                { return p.world != nil }

// Materials returns the patch materials. The first one is the default used by
// every stretch link.
func (p *Patch) Materials() []*Material {
	return p.materials
}

// LinkCount returns the number of stretch and bending links.
func (p *Patch) LinkCount() (stretch, bending int) {
	for _, l := range p.links {
		if l.bend {
			bending++
		} else {
			stretch++
		}
	}
	return stretch, bending
}

// GenerateBendingConstraints links every node to the nodes 2 through distance
// steps further along the strip, replacing earlier bending links. A nil mat
// uses the default material. It returns the number of links created.
func (p *Patch) GenerateBendingConstraints(distance int, mat *Material) int {
	if mat == nil {
		mat = p.materials[0]
	}
	if !p.hasMaterial(mat) {
		p.materials = append(p.materials, mat)
	}

	live := p.world != nil
	if live {
		p.detachLinks()
	}

	kept := p.links[:0]
	for _, l := range p.links {
		if !l.bend {
			kept = append(kept, l)
		}
	}
	p.links = kept

	created := 0
	for d := 2; d <= distance; d++ {
		for j := 0; j+d < len(p.nodes); j++ {
			p.links = append(p.links, p.newLink(j, j+d, mat, true))
			created++
		}
	}

	if live {
		p.attachLinks()
	}
	return created
}

func (p *Patch) hasMaterial(mat *Material) bool {
	for _, m := range p.materials {
		if m == mat {
			return true
		}
	}
	return false
}

// SetMargin sets the node collision radius.
func (p *Patch) SetMargin(m float64) {
	if m < 0 {
		m = 0
	}
	p.margin = m
	if p.world == nil {
		return
	}
	space := p.world.space
	for j := range p.nodes {
		n := &p.nodes[j]
		space.RemoveShape(n.shape)
		n.shape = p.newNodeShape(n.body)
		space.AddShape(n.shape)
	}
}

// SetMass spreads total over the free nodes, evenly or by the strip length
// each node covers when fromFaces is set. Pinned nodes keep no mass.
func (p *Patch) SetMass(total float64, fromFaces bool) {
	p.totalMass = math.Max(0, total)
	p.fromFaces = fromFaces
	p.distributeMass()
	if p.world == nil {
		return
	}
	for _, n := range p.nodes {
		if !n.pinned {
			n.body.SetMass(math.Max(n.mass, minNodeMass))
		}
	}
	p.detachLinks()
	p.attachLinks()
}

// TotalMass sums the node masses.
func (p *Patch) TotalMass() float64 {
	total := 0.0
	for _, n := range p.nodes {
		if !n.pinned {
			total += n.mass
		}
	}
	return total
}

// NodeMasses returns the mass of every strip node, pinned nodes included.
func (p *Patch) NodeMasses() []float64 {
	out := make([]float64, len(p.nodes))
	for i, n := range p.nodes {
		if !n.pinned {
			out[i] = n.mass
		}
	}
	return out
}

func (p *Patch) distributeMass() {
	weights := make([]float64, len(p.nodes))
	sum := 0.0
	for j, n := range p.nodes {
		if n.pinned {
			continue
		}
		w := 1.0
		if p.fromFaces {
			w = 0
			if j > 0 {
				w += n.rest.Distance(p.nodes[j-1].rest) / 2
			}
			if j < len(p.nodes)-1 {
				w += n.rest.Distance(p.nodes[j+1].rest) / 2
			}
		}
		weights[j] = w
		sum += w
	}
	for j := range p.nodes {
		p.nodes[j].mass = 0
		if sum > 0 {
			p.nodes[j].mass = p.totalMass * weights[j] / sum
		}
	}
}

// Mesh returns the render mesh as of the last world step.
func (p *Patch) Mesh() *Mesh {
	return &p.mesh
}

// NodePositions returns the strip node positions.
func (p *Patch) NodePositions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(p.nodes))
	for i, n := range p.nodes {
		out[i] = FromPlane(n.pos, n.x)
	}
	return out
}

func (p *Patch) attach() {
	space := p.world.space
	for j := range p.nodes {
		n := &p.nodes[j]
		if n.pinned {
			n.body = cp.NewKinematicBody()
		} else {
			n.body = cp.NewBody(math.Max(n.mass, minNodeMass), math.Inf(1))
		}
		n.body.SetPosition(n.pos)
		space.AddBody(n.body)
		n.shape = p.newNodeShape(n.body)
		space.AddShape(n.shape)
	}
	p.attachLinks()
}

func (p *Patch) newNodeShape(body *cp.Body) *cp.Shape {
	shape := cp.NewCircle(body, p.margin, cp.Vector{})
	shape.SetFriction(nodeFriction)
	shape.SetFilter(cp.NewShapeFilter(p.group, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))
	return shape
}

func (p *Patch) attachLinks() {
	space := p.world.space
	h := p.world.cfg.TimeStep / float64(max(1, p.world.cfg.MaxSubSteps))

	for i := range p.links {
		l := &p.links[i]
		a, b := &p.nodes[l.a], &p.nodes[l.b]
		if a.pinned && b.pinned {
			continue
		}
		m := reducedMass(a, b)
		k := common.Clamp01(l.mat.LinearStiffness)
		stiffness := k * m / (h * h) * 0.5
		damping := math.Sqrt(stiffness * m)

		l.spring = space.AddConstraint(cp.NewDampedSpring(a.body, b.body, cp.Vector{}, cp.Vector{}, l.rest, stiffness, damping))
		if !l.bend {
			l.limit = space.AddConstraint(cp.NewSlideJoint(a.body, b.body, cp.Vector{}, cp.Vector{}, 0, l.rest*maxStretchRatio))
		}
	}
}

func reducedMass(a, b *node) float64 {
	ma, mb := math.Max(a.mass, minNodeMass), math.Max(b.mass, minNodeMass)
	switch {
	case a.pinned:
		return mb
	case b.pinned:
		return ma
	default:
		return ma * mb / (ma + mb)
	}
}

func (p *Patch) detachLinks() {
	space := p.world.space
	for i := range p.links {
		l := &p.links[i]
		if l.spring != nil {
			space.RemoveConstraint(l.spring)
			l.spring = nil
		}
		if l.limit != nil {
			space.RemoveConstraint(l.limit)
			l.limit = nil
		}
	}
}

func (p *Patch) detach() {
	p.syncMesh()
	p.detachLinks()
	space := p.world.space
	for j := range p.nodes {
		n := &p.nodes[j]
		space.RemoveShape(n.shape)
		space.RemoveBody(n.body)
		n.body = nil
		n.shape = nil
	}
}

// syncMesh copies node positions out of the engine and rebuilds the mesh.
func (p *Patch) syncMesh() {
	for j := range p.nodes {
		if b := p.nodes[j].body; b != nil {
			p.nodes[j].pos = b.Position()
		}
	}

	c := p.corners
	last := float64(p.resY - 1)
	for j, n := range p.nodes {
		v := float64(j) / last
		extrude := lerpVec(c[1], c[3], v).Sub(lerpVec(c[0], c[2], v))
		base := FromPlane(n.pos, n.x)
		for i := 0; i < p.resX; i++ {
			u := float64(i) / float64(p.resX-1)
			p.mesh.Vertices[i*p.resY+j] = base.Add(extrude.Mul(u))
		}
	}
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		common.Lerp(a.X(), b.X(), t),
		common.Lerp(a.Y(), b.Y(), t),
		common.Lerp(a.Z(), b.Z(), t),
	}
}
