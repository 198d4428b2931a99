package hwvg

import (
	"math"
	"sort"
)

// TessellateOptions controls curve flattening and anti-aliasing for
// FillPath and StrokePath.
type TessellateOptions struct {
	// Tolerance is the maximum chord deviation in device pixels when
	// flattening curves. Zero selects the default of 0.25.
	Tolerance float64

	// Feather is the width of the anti-aliasing band in device pixels.
	// Zero disables feathering.
	Feather float64
}

// DefaultTessellateOptions returns options with the standard flattening
// tolerance and a one-pixel feather band.
func DefaultTessellateOptions() TessellateOptions {
	return TessellateOptions{Tolerance: defaultTolerance, Feather: 1.0}
}

// fillEdge is one non-horizontal polygon edge prepared for the sweep.
// top.Y < bot.Y always holds; dir records the original direction for
// winding accumulation (+1 downward, -1 upward).
type fillEdge struct {
	top, bot Point
	dir      int
}

func (e *fillEdge) xAt(y float64) float64 {
	t := (y - e.top.Y) / (e.bot.Y - e.top.Y)
	return e.top.X + t*(e.bot.X-e.top.X)
}

// FillPath tessellates the interior of a path into a triangle mesh using
// the given fill rule. Self-intersecting paths and paths with holes are
// resolved by the rule. Paths with fewer than three distinct points
// produce an empty mesh and no error.
func FillPath(path *Path, rule FillRule, opts TessellateOptions) (*Mesh, error) {
	mesh := &Mesh{}
	if path == nil || path.IsEmpty() {
		return mesh, nil
	}
	contours := flattenPath(path, opts.Tolerance)
	edges := fillEdges(contours)
	if len(edges) == 0 {
		return mesh, nil
	}

	sweepFill(mesh, edges, rule)

	if opts.Feather > 0 && !mesh.IsEmpty() {
		featherFill(mesh, contours, opts.Feather)
	}
	return mesh, nil
}

// fillEdges converts contours to sweep edges. Fill treats every contour
// as closed, so the segment from the last point back to the first is
// always included. Horizontal edges never cross a scanline and are
// dropped.
func fillEdges(contours []contour) []fillEdge {
	var edges []fillEdge
	for _, c := range contours {
		n := len(c.points)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			p0 := c.points[i]
			p1 := c.points[(i+1)%n]
			if p0.Y == p1.Y {
				continue
			}
			if p0.Y < p1.Y {
				edges = append(edges, fillEdge{top: p0, bot: p1, dir: 1})
			} else {
				edges = append(edges, fillEdge{top: p1, bot: p0, dir: -1})
			}
		}
	}
	return edges
}

// sweepFill runs a horizontal band sweep over the edges. Band boundaries
// are the distinct vertex and edge-crossing Y coordinates, so within a
// band the active edges keep a stable left-to-right order. Each inside
// span becomes one trapezoid, two triangles. Shared band-boundary
// vertices are deduplicated so a convex quad costs four vertices.
func sweepFill(mesh *Mesh, edges []fillEdge, rule FillRule) {
	ys := bandBoundaries(edges)
	if len(ys) < 2 {
		return
	}

	verts := make(map[[2]float64]uint32)
	vertex := func(x, y float64) uint32 {
		key := [2]float64{x, y}
		if idx, ok := verts[key]; ok {
			return idx
		}
		idx := mesh.addVertex(x, y, 1)
		verts[key] = idx
		return idx
	}

	active := make([]*fillEdge, 0, len(edges))
	for bi := 0; bi+1 < len(ys); bi++ {
		y0, y1 := ys[bi], ys[bi+1]
		if y1-y0 < 1e-12 {
			continue
		}
		ym := 0.5 * (y0 + y1)

		active = active[:0]
		for i := range edges {
			if edges[i].top.Y < ym && edges[i].bot.Y > ym {
				active = append(active, &edges[i])
			}
		}
		if len(active) < 2 {
			continue
		}
		sort.Slice(active, func(i, j int) bool {
			return active[i].xAt(ym) < active[j].xAt(ym)
		})

		winding := 0
		spanOpen := false
		var left *fillEdge
		for _, e := range active {
			winding += e.dir
			inside := winding != 0
			if rule == FillRuleEvenOdd {
				inside = winding%2 != 0
			}
			switch {
			case inside && !spanOpen:
				left = e
				spanOpen = true
			case !inside && spanOpen:
				emitTrapezoid(mesh, vertex, left, e, y0, y1)
				spanOpen = false
			}
		}
	}
}

// emitTrapezoid adds the band slice between a left and right edge.
// A slice whose top or bottom pinches to a point emits one triangle
// instead of two.
func emitTrapezoid(mesh *Mesh, vertex func(x, y float64) uint32, left, right *fillEdge, y0, y1 float64) {
	ltx, lbx := left.xAt(y0), left.xAt(y1)
	rtx, rbx := right.xAt(y0), right.xAt(y1)

	topDegenerate := rtx-ltx < 1e-9
	botDegenerate := rbx-lbx < 1e-9
	if topDegenerate && botDegenerate {
		return
	}

	switch {
	case topDegenerate:
		mesh.addTriangle(vertex(ltx, y0), vertex(rbx, y1), vertex(lbx, y1))
	case botDegenerate:
		mesh.addTriangle(vertex(ltx, y0), vertex(rtx, y0), vertex(lbx, y1))
	default:
		tl := vertex(ltx, y0)
		tr := vertex(rtx, y0)
		br := vertex(rbx, y1)
		bl := vertex(lbx, y1)
		mesh.addTriangle(tl, tr, br)
		mesh.addTriangle(tl, br, bl)
	}
}

// bandBoundaries returns the sorted distinct Y coordinates that delimit
// sweep bands: every edge endpoint plus every proper edge-edge crossing.
// Including crossings keeps the left-to-right edge order stable inside
// each band for self-intersecting paths.
func bandBoundaries(edges []fillEdge) []float64 {
	var ys []float64
	for i := range edges {
		ys = append(ys, edges[i].top.Y, edges[i].bot.Y)
	}
	for i := range edges {
		for j := i + 1; j < len(edges); j++ {
			if y, ok := edgeCrossingY(&edges[i], &edges[j]); ok {
				ys = append(ys, y)
			}
		}
	}
	sort.Float64s(ys)
	out := ys[:0]
	for _, y := range ys {
		if len(out) == 0 || y-out[len(out)-1] > 1e-12 {
			out = append(out, y)
		}
	}
	return out
}

// edgeCrossingY finds the Y coordinate where two edges properly cross,
// if they do so away from their shared endpoints.
func edgeCrossingY(a, b *fillEdge) (float64, bool) {
	d1 := a.bot.Sub(a.top)
	d2 := b.bot.Sub(b.top)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-20 {
		return 0, false
	}
	d := b.top.Sub(a.top)
	t := d.Cross(d2) / denom
	u := d.Cross(d1) / denom
	const eps = 1e-9
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return 0, false
	}
	return a.top.Y + t*d1.Y, true
}
