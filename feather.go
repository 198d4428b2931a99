package hwvg

import "math"

// featherFill adds an anti-aliasing rim to a filled mesh: one ring of
// quads per contour, anchored on the contour with full coverage and
// fading to zero at width device pixels outward. Outward is derived
// from each contour's winding, so holes feather into the hole.
func featherFill(mesh *Mesh, contours []contour, width float64) {
	for _, c := range contours {
		featherContour(mesh, c.points, width)
	}
}

func featherContour(mesh *Mesh, pts []Point, width float64) {
	n := len(pts)
	if n < 3 {
		return
	}
	area := polygonArea(pts)
	if math.Abs(area) < 1e-12 {
		return
	}
	outward := 1.0
	if area > 0 {
		outward = -1.0
	}

	outer := make([]Point, n)
	for i := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		d0 := pts[i].Sub(prev).Normalize()
		d1 := next.Sub(pts[i]).Normalize()
		n0 := d0.Perp().Mul(outward)
		n1 := d1.Perp().Mul(outward)
		m := n0.Add(n1)
		if m.LengthSquared() < 1e-12 {
			// 180-degree reversal; fall back to one edge normal.
			m = n0
		} else {
			m = m.Normalize()
		}
		// Clamp the miter extension at sharp corners so the rim never
		// shoots far from the outline.
		scale := width / math.Max(0.5, m.Dot(n0))
		outer[i] = pts[i].Add(m.Mul(scale))
	}

	innerIdx := make([]uint32, n)
	outerIdx := make([]uint32, n)
	for i := range pts {
		innerIdx[i] = mesh.addVertex(pts[i].X, pts[i].Y, 1)
		outerIdx[i] = mesh.addVertex(outer[i].X, outer[i].Y, 0)
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		mesh.addTriangle(innerIdx[i], outerIdx[i], outerIdx[j])
		mesh.addTriangle(innerIdx[i], outerIdx[j], innerIdx[j])
	}
}

// polygonArea returns the signed area of a closed polygon.
func polygonArea(pts []Point) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return 0.5 * sum
}
