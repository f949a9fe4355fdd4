package physics

import "github.com/go-gl/mathgl/mgl64"

// Mesh is a grid of Rows x Cols vertices with two triangles per cell.
// Vertex (row, col) is stored at row*Cols + col.
type Mesh struct {
	Rows, Cols int
	Vertices   []mgl64.Vec3
	Indices    []uint32

	edges [][2]uint32
}

func newGridMesh(rows, cols int) Mesh {
	m := Mesh{
		Rows:     rows,
		Cols:     cols,
		Vertices: make([]mgl64.Vec3, rows*cols),
		Indices:  make([]uint32, 0, (rows-1)*(cols-1)*6),
	}

	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols-1; j++ {
			a := uint32(i*cols + j)
			b := a + 1
			c := a + uint32(cols)
			d := c + 1
			m.Indices = append(m.Indices, a, b, d, a, d, c)
		}
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a := uint32(i*cols + j)
			if j < cols-1 {
				m.edges = append(m.edges, [2]uint32{a, a + 1})
			}
			if i < rows-1 {
				m.edges = append(m.edges, [2]uint32{a, a + uint32(cols)})
			}
			if i < rows-1 && j < cols-1 {
				m.edges = append(m.edges, [2]uint32{a, a + uint32(cols) + 1})
			}
		}
	}
	return m
}

// Vertex returns the vertex at row i, column j.
func (m *Mesh) Vertex(i, j int) mgl64.Vec3 {
	return m.Vertices[i*m.Cols+j]
}

// Edges returns each triangle edge once, for wireframe drawing.
func (m *Mesh) Edges() [][2]uint32 {
	return m.edges
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
