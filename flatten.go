package hwvg

import "math"

// defaultTolerance is the maximum chord deviation, in device pixels,
// allowed when flattening curves to line segments.
const defaultTolerance = 0.25

// contour is one flattened subpath: a polyline plus a closed flag.
type contour struct {
	points []Point
	closed bool
}

// flattenPath converts a path into flattened contours. Curves are
// subdivided until their deviation from a chord drops below tolerance.
// Consecutive duplicate points are dropped so downstream meshing never
// sees zero-length segments.
func flattenPath(path *Path, tolerance float64) []contour {
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	var (
		contours []contour
		cur      contour
		start    Point
		pen      Point
		open     bool
	)
	flush := func(closed bool) {
		if open && len(cur.points) > 1 {
			cur.closed = closed
			contours = append(contours, cur)
		}
		cur = contour{}
		open = false
	}
	push := func(p Point) {
		if n := len(cur.points); n > 0 && cur.points[n-1].Distance(p) < 1e-12 {
			return
		}
		cur.points = append(cur.points, p)
	}
	for _, el := range path.Elements() {
		switch e := el.(type) {
		case MoveTo:
			flush(false)
			start = e.Point
			pen = e.Point
			cur.points = append(cur.points[:0], e.Point)
			open = true
		case LineTo:
			if !open {
				continue
			}
			push(e.Point)
			pen = e.Point
		case QuadTo:
			if !open {
				continue
			}
			flattenQuad(pen, e.Control, e.Point, tolerance, push)
			pen = e.Point
		case CubicTo:
			if !open {
				continue
			}
			flattenCubic(pen, e.Control1, e.Control2, e.Point, tolerance, push)
			pen = e.Point
		case Close:
			if !open {
				continue
			}
			push(start)
			// The closing segment back to start is implied by the flag;
			// drop the repeated start point if it is already last.
			if n := len(cur.points); n > 1 && cur.points[n-1].Distance(cur.points[0]) < 1e-12 {
				cur.points = cur.points[:n-1]
			}
			flush(true)
			pen = start
		}
	}
	flush(false)
	return contours
}

// flattenQuad emits the interior and end points of a quadratic Bezier,
// subdividing until flat enough. The start point is not emitted.
func flattenQuad(p0, p1, p2 Point, tolerance float64, emit func(Point)) {
	if distanceToChord(p1, p0, p2) < tolerance {
		emit(p2)
		return
	}
	q0 := p0.Lerp(p1, 0.5)
	q1 := p1.Lerp(p2, 0.5)
	mid := q0.Lerp(q1, 0.5)
	flattenQuad(p0, q0, mid, tolerance, emit)
	flattenQuad(mid, q1, p2, tolerance, emit)
}

// flattenCubic emits the interior and end points of a cubic Bezier using
// de Casteljau subdivision. The start point is not emitted.
func flattenCubic(p0, p1, p2, p3 Point, tolerance float64, emit func(Point)) {
	d1 := distanceToChord(p1, p0, p3)
	d2 := distanceToChord(p2, p0, p3)
	if math.Max(d1, d2) < tolerance {
		emit(p3)
		return
	}
	q0 := p0.Lerp(p1, 0.5)
	q1 := p1.Lerp(p2, 0.5)
	q2 := p2.Lerp(p3, 0.5)
	r0 := q0.Lerp(q1, 0.5)
	r1 := q1.Lerp(q2, 0.5)
	mid := r0.Lerp(r1, 0.5)
	flattenCubic(p0, q0, r0, mid, tolerance, emit)
	flattenCubic(mid, r1, q2, p3, tolerance, emit)
}

// distanceToChord returns the perpendicular distance from p to the
// segment (a, b), clamped to the segment endpoints.
func distanceToChord(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq < 1e-20 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		return p.Distance(a)
	}
	if t > 1 {
		return p.Distance(b)
	}
	return p.Distance(a.Add(ab.Mul(t)))
}
