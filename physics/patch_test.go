package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func clothCorners() (c00, c10, c01, c11 mgl64.Vec3) {
	const s, h = 10.0, -10.0
	return mgl64.Vec3{-s, h, -s}, mgl64.Vec3{s, h, -s}, mgl64.Vec3{-s, h, s}, mgl64.Vec3{s, h, s}
}

func newCloth(t *testing.T, res int, fixeds Corner) *Patch {
	t.Helper()
	c00, c10, c01, c11 := clothCorners()
	p, err := NewPatch(c00, c10, c01, c11, res, res, fixeds)
	if err != nil {
		t.Fatalf("new patch: %v", err)
	}
	return p
}

func TestNewPatchResolution(t *testing.T) {
	c00, c10, c01, c11 := clothCorners()
	cases := []struct {
		name       string
		resX, resY int
		wantErr    error
	}{
		{"valid", 50, 50, nil},
		{"minimum", 2, 2, nil},
		{"rows_too_small", 1, 5, ErrInvalidResolution},
		{"cols_too_small", 5, 0, ErrInvalidResolution},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewPatch(c00, c10, c01, c11, c.resX, c.resY, 0)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
		})
	}
}

func TestPatchInitialMesh(t *testing.T) {
	p := newCloth(t, 50, 0)
	c00, c10, c01, c11 := clothCorners()
	m := p.Mesh()

	if m.Rows != 50 || m.Cols != 50 || len(m.Vertices) != 2500 {
		t.Fatalf("unexpected mesh size %dx%d (%d vertices)", m.Rows, m.Cols, len(m.Vertices))
	}
	if m.TriangleCount() != 49*49*2 {
		t.Fatalf("expected %d triangles, got %d", 49*49*2, m.TriangleCount())
	}
	corners := []struct {
		i, j int
		want mgl64.Vec3
	}{
		{0, 0, c00},
		{49, 0, c10},
		{0, 49, c01},
		{49, 49, c11},
	}
	for _, c := range corners {
		if got := m.Vertex(c.i, c.j); !got.ApproxEqual(c.want) {
			t.Fatalf("vertex (%d,%d): got %v want %v", c.i, c.j, got, c.want)
		}
	}
	if len(m.Edges()) != 49*50*2+49*49 {
		t.Fatalf("unexpected edge count %d", len(m.Edges()))
	}
}

func TestPatchBendingConstraints(t *testing.T) {
	cases := []struct {
		name     string
		distance int
		want     int
	}{
		{"distance_zero", 0, 0},
		{"distance_one", 1, 0},
		{"distance_two", 2, 48},
		{"distance_three", 3, 48 + 47},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newCloth(t, 50, 0)
			if got := p.GenerateBendingConstraints(c.distance, nil); got != c.want {
				t.Fatalf("created %d links, want %d", got, c.want)
			}
			stretch, bending := p.LinkCount()
			if stretch != 49 || bending != c.want {
				t.Fatalf("links: stretch=%d bending=%d", stretch, bending)
			}
		})
	}

	t.Run("regenerate_replaces", func(t *testing.T) {
		p := newCloth(t, 10, 0)
		p.GenerateBendingConstraints(3, nil)
		p.GenerateBendingConstraints(2, nil)
		if _, bending := p.LinkCount(); bending != 8 {
			t.Fatalf("expected 8 bending links after regenerate, got %d", bending)
		}
	})

	t.Run("custom_material_registered", func(t *testing.T) {
		p := newCloth(t, 10, 0)
		mat := &Material{LinearStiffness: 0.5}
		p.GenerateBendingConstraints(2, mat)
		if len(p.Materials()) != 2 || p.Materials()[1] != mat {
			t.Fatalf("expected material appended, got %d materials", len(p.Materials()))
		}
	})
}

func TestPatchMass(t *testing.T) {
	cases := []struct {
		name      string
		fixeds    Corner
		fromFaces bool
	}{
		{"even", 0, false},
		{"even_pinned", Corner00 | Corner11, false},
		{"from_faces", 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newCloth(t, 50, c.fixeds)
			p.SetMass(0.25, c.fromFaces)
			if !approx(p.TotalMass(), 0.25, 1e-12) {
				t.Fatalf("total mass %v", p.TotalMass())
			}
			masses := p.NodeMasses()
			if c.fixeds != 0 && (masses[0] != 0 || masses[len(masses)-1] != 0) {
				t.Fatalf("pinned nodes should carry no mass: %v, %v", masses[0], masses[len(masses)-1])
			}
			if c.fromFaces && !approx(masses[0]*2, masses[1], 1e-12) {
				t.Fatalf("end node should weigh half an inner node: %v vs %v", masses[0], masses[1])
			}
		})
	}
}

func TestPatchZeroMassStaysFinite(t *testing.T) {
	cases := []struct {
		name    string
		fixeds  Corner
		liveSet bool
	}{
		{"set_before_add", 0, false},
		{"set_while_live", 0, true},
		{"set_while_live_pinned", Corner00 | Corner11, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld(DefaultConfig())
			p := newCloth(t, 10, c.fixeds)
			if !c.liveSet {
				p.SetMass(0, false)
			}
			if err := w.AddPatch(p); err != nil {
				t.Fatalf("add patch: %v", err)
			}
			if c.liveSet {
				p.SetMass(0, false)
			}
			if p.TotalMass() != 0 {
				t.Fatalf("total mass %v", p.TotalMass())
			}

			stepN(w, 5)
			for j, n := range p.NodePositions() {
				for _, f := range n {
					if math.IsNaN(f) || math.IsInf(f, 0) {
						t.Fatalf("node %d not finite after stepping: %v", j, n)
					}
				}
			}
		})
	}
}

func TestPatchGroupsDiffer(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, b := newCloth(t, 5, 0), newCloth(t, 5, 0)
	for _, p := range []*Patch{a, b} {
		if err := w.AddPatch(p); err != nil {
			t.Fatalf("add patch: %v", err)
		}
	}
	if a.group == 0 || b.group == 0 || a.group == b.group {
		t.Fatalf("patches should get distinct non-zero groups, got %d and %d", a.group, b.group)
	}
}

func TestPatchMeshFollowsNodes(t *testing.T) {
	w := NewWorld(DefaultConfig())
	p := newCloth(t, 20, 0)
	p.SetMargin(0.45)
	p.GenerateBendingConstraints(2, nil)
	p.Materials()[0].LinearStiffness = 0.4
	if err := w.AddPatch(p); err != nil {
		t.Fatalf("add patch: %v", err)
	}
	p.SetMass(0.25, false)

	stepN(w, 20)

	nodes := p.NodePositions()
	m := p.Mesh()
	for j, n := range nodes {
		if got := m.Vertex(0, j); got != n {
			t.Fatalf("row 0 vertex %d: got %v want %v", j, got, n)
		}
		want := n.Add(mgl64.Vec3{20, 0, 0})
		if got := m.Vertex(m.Rows-1, j); !got.ApproxEqual(want) {
			t.Fatalf("last row vertex %d: got %v want %v", j, got, want)
		}
	}
	if nodes[10].Y() <= -10 {
		t.Fatalf("cloth should fall under gravity, node y=%v", nodes[10].Y())
	}
}

func TestPatchPinnedCornersHold(t *testing.T) {
	w := NewWorld(DefaultConfig())
	p := newCloth(t, 10, Corner00|Corner01)
	if err := w.AddPatch(p); err != nil {
		t.Fatalf("add patch: %v", err)
	}
	start := p.NodePositions()
	stepN(w, 30)
	end := p.NodePositions()

	if end[0] != start[0] || end[9] != start[9] {
		t.Fatalf("pinned nodes moved: %v -> %v, %v -> %v", start[0], end[0], start[9], end[9])
	}
	if end[5].Y() <= start[5].Y() {
		t.Fatalf("free middle node should sag, %v -> %v", start[5], end[5])
	}
}

func TestPatchSolverIterations(t *testing.T) {
	w := NewWorld(DefaultConfig())
	p := newCloth(t, 5, 0)
	p.Config = SolverConfig{PositionIterations: 20, CollisionIterations: 20, DriftIterations: 20}
	if err := w.AddPatch(p); err != nil {
		t.Fatalf("add patch: %v", err)
	}
	w.Update()
	if got := w.Space().Iterations; got != 20 {
		t.Fatalf("expected 20 solver iterations, got %d", got)
	}

	if err := w.RemovePatch(p); err != nil {
		t.Fatalf("remove patch: %v", err)
	}
	w.Update()
	if got := w.Space().Iterations; got != 10 {
		t.Fatalf("expected world iterations after removal, got %d", got)
	}
	if err := w.RemovePatch(p); !errors.Is(err, ErrNotInWorld) {
		t.Fatalf("second remove: expected ErrNotInWorld, got %v", err)
	}
}
