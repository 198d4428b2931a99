package hwvg

import "math"

// Matrix represents a 2D affine transformation.
// It uses a 2x3 matrix in row-major order:
//
//	| A  B  C |
//	| D  E  F |
//
// This represents the transformation:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Transforms are applied to vertex positions at tessellation time
// (world-space tessellation), so batches never carry a transform and
// the batch-compatibility predicate ignores it.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply multiplies two matrices (m * other).
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformVector applies the transformation to a vector, ignoring
// the translation component.
func (m Matrix) TransformVector(v Vec2) Vec2 {
	return Vec2{
		X: m.A*v.X + m.B*v.Y,
		Y: m.D*v.X + m.E*v.Y,
	}
}

// TransformRect returns the axis-aligned bounding box of the
// transformed rectangle corners.
func (m Matrix) TransformRect(r Rect) Rect {
	p0 := m.TransformPoint(Point{X: r.MinX, Y: r.MinY})
	p1 := m.TransformPoint(Point{X: r.MaxX, Y: r.MinY})
	p2 := m.TransformPoint(Point{X: r.MaxX, Y: r.MaxY})
	p3 := m.TransformPoint(Point{X: r.MinX, Y: r.MaxY})
	return Rect{
		MinX: math.Min(math.Min(p0.X, p1.X), math.Min(p2.X, p3.X)),
		MinY: math.Min(math.Min(p0.Y, p1.Y), math.Min(p2.Y, p3.Y)),
		MaxX: math.Max(math.Max(p0.X, p1.X), math.Max(p2.X, p3.X)),
		MaxY: math.Max(math.Max(p0.Y, p1.Y), math.Max(p2.Y, p3.Y)),
	}
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
}

// MaxScale returns an upper bound on the scale factor the matrix applies
// to any direction. The tessellator divides its device-pixel tolerance by
// this value so that flattening error stays below tolerance after the
// transform is applied.
func (m Matrix) MaxScale() float64 {
	// Largest singular value of the 2x2 linear part.
	e := (m.A*m.A + m.B*m.B + m.D*m.D + m.E*m.E) / 2
	f := (m.A*m.A + m.B*m.B - m.D*m.D - m.E*m.E) / 2
	g := m.A*m.D + m.B*m.E
	s := e + math.Sqrt(f*f+g*g)
	if s <= 0 {
		return 0
	}
	return math.Sqrt(s)
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}
