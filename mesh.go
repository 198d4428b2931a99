package hwvg

import "github.com/gogpu/hwvg/gpucore"

// Mesh is a triangle mesh produced by tessellation. Vertices are in the
// coordinate space the input path was given in; UV and Color fields are
// filled in later when the mesh is shaded against a brush.
//
// Coverage runs parallel to Vertices and holds the anti-aliasing weight
// of each vertex in [0, 1]. Interior vertices carry 1; feather-band rim
// vertices carry 0. Shading multiplies the brush alpha by this weight.
type Mesh struct {
	Vertices []gpucore.Vertex
	Indices  []uint32
	Coverage []float32
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// coverageAt returns the anti-aliasing weight of vertex i. Meshes built
// without a feather band may have no Coverage slice; those are fully
// covered.
func (m *Mesh) coverageAt(i int) float32 {
	if i >= len(m.Coverage) {
		return 1
	}
	return m.Coverage[i]
}

// addVertex appends a vertex at (x, y) with the given coverage weight and
// returns its index.
func (m *Mesh) addVertex(x, y float64, coverage float32) uint32 {
	idx := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, gpucore.Vertex{
		Pos: [2]float32{float32(x), float32(y)},
	})
	m.Coverage = append(m.Coverage, coverage)
	return idx
}

// addTriangle appends one triangle by vertex indices.
func (m *Mesh) addTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
// An empty mesh returns the zero Rect.
func (m *Mesh) Bounds() Rect {
	if len(m.Vertices) == 0 {
		return Rect{}
	}
	r := Rect{
		MinX: float64(m.Vertices[0].Pos[0]), MinY: float64(m.Vertices[0].Pos[1]),
		MaxX: float64(m.Vertices[0].Pos[0]), MaxY: float64(m.Vertices[0].Pos[1]),
	}
	for _, v := range m.Vertices[1:] {
		x, y := float64(v.Pos[0]), float64(v.Pos[1])
		if x < r.MinX {
			r.MinX = x
		}
		if x > r.MaxX {
			r.MaxX = x
		}
		if y < r.MinY {
			r.MinY = y
		}
		if y > r.MaxY {
			r.MaxY = y
		}
	}
	return r
}

// Area returns the summed unsigned area of the mesh triangles.
// Used mainly by tests to check that tessellation conserves path area.
func (m *Mesh) Area() float64 {
	var total float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]].Pos
		b := m.Vertices[m.Indices[i+1]].Pos
		c := m.Vertices[m.Indices[i+2]].Pos
		ax, ay := float64(a[0]), float64(a[1])
		bx, by := float64(b[0]), float64(b[1])
		cx, cy := float64(c[0]), float64(c[1])
		area := 0.5 * ((bx-ax)*(cy-ay) - (cx-ax)*(by-ay))
		if area < 0 {
			area = -area
		}
		total += area
	}
	return total
}
