package hwvg

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new subpath at a point.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// Path is an ordered sequence of path elements.
//
// A Path is owned by the caller. Once passed to a draw call it is treated
// as immutable: the renderer reads it during tessellation and never
// retains it past the call that consumed it.
type Path struct {
	elements []PathElement
	start    Point // starting point of current subpath
	current  Point // current point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line to (x, y).
func (p *Path) LineTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo draws a quadratic Bezier curve to (x, y) with control
// point (cx, cy).
func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	p.elements = append(p.elements, QuadTo{Control: Pt(cx, cy), Point: Pt(x, y)})
	p.current = Pt(x, y)
}

// CubicTo draws a cubic Bezier curve to (x, y) with control points
// (c1x, c1y) and (c2x, c2y).
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.elements = append(p.elements, CubicTo{
		Control1: Pt(c1x, c1y),
		Control2: Pt(c2x, c2y),
		Point:    Pt(x, y),
	})
	p.current = Pt(x, y)
}

// Close closes the current subpath by connecting back to its start point.
func (p *Path) Close() {
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Rectangle appends a closed rectangle subpath.
func (p *Path) Rectangle(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Ellipse appends a closed ellipse subpath approximated by four cubic
// Bezier segments.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	// Magic constant for cubic approximation of a quarter circle.
	const k = 0.5522847498307936
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+k*ry, cx+k*rx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-k*rx, cy+ry, cx-rx, cy+k*ry, cx-rx, cy)
	p.CubicTo(cx-rx, cy-k*ry, cx-k*rx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+k*rx, cy-ry, cx+rx, cy-k*ry, cx+rx, cy)
	p.Close()
}

// Circle appends a closed circle subpath.
func (p *Path) Circle(cx, cy, r float64) {
	p.Ellipse(cx, cy, r, r)
}

// Elements returns the path's elements in order. The returned slice is
// owned by the path and must not be modified.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// IsEmpty reports whether the path contains no elements.
func (p *Path) IsEmpty() bool {
	return len(p.elements) == 0
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	out := &Path{
		elements: make([]PathElement, len(p.elements)),
		start:    p.start,
		current:  p.current,
	}
	copy(out.elements, p.elements)
	return out
}

// Transform returns a new path with every point transformed by m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{elements: make([]PathElement, 0, len(p.elements))}
	for _, el := range p.elements {
		switch e := el.(type) {
		case MoveTo:
			out.elements = append(out.elements, MoveTo{Point: m.TransformPoint(e.Point)})
		case LineTo:
			out.elements = append(out.elements, LineTo{Point: m.TransformPoint(e.Point)})
		case QuadTo:
			out.elements = append(out.elements, QuadTo{
				Control: m.TransformPoint(e.Control),
				Point:   m.TransformPoint(e.Point),
			})
		case CubicTo:
			out.elements = append(out.elements, CubicTo{
				Control1: m.TransformPoint(e.Control1),
				Control2: m.TransformPoint(e.Control2),
				Point:    m.TransformPoint(e.Point),
			})
		case Close:
			out.elements = append(out.elements, Close{})
		}
	}
	return out
}

// FillRule specifies how to determine which areas are inside a path.
type FillRule int

const (
	// FillRuleNonZero uses the non-zero winding rule.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd uses the even-odd rule.
	FillRuleEvenOdd
)

// LineCap specifies the shape of line endpoints.
type LineCap int

const (
	// LineCapButt specifies a flat line cap.
	LineCapButt LineCap = iota
	// LineCapRound specifies a rounded line cap.
	LineCapRound
	// LineCapSquare specifies a square line cap.
	LineCapSquare
)

// LineJoin specifies the shape of line joins.
type LineJoin int

const (
	// LineJoinMiter specifies a sharp (mitered) join.
	LineJoinMiter LineJoin = iota
	// LineJoinRound specifies a rounded join.
	LineJoinRound
	// LineJoinBevel specifies a beveled join.
	LineJoinBevel
)
