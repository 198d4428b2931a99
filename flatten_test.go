package hwvg

import (
	"math"
	"testing"
)

func TestFlattenPath_Lines(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)

	contours := flattenPath(p, 0.25)
	if len(contours) != 1 {
		t.Fatalf("len(contours) = %d, want 1", len(contours))
	}
	c := contours[0]
	if c.closed {
		t.Error("contour is closed, want open")
	}
	want := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10)}
	if len(c.points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(c.points), len(want))
	}
	for i, p := range want {
		if c.points[i] != p {
			t.Errorf("points[%d] = %v, want %v", i, c.points[i], p)
		}
	}
}

func TestFlattenPath_ClosedDropsRepeatedStart(t *testing.T) {
	p := NewPath()
	p.Rectangle(0, 0, 10, 10)

	contours := flattenPath(p, 0.25)
	if len(contours) != 1 {
		t.Fatalf("len(contours) = %d, want 1", len(contours))
	}
	c := contours[0]
	if !c.closed {
		t.Error("contour is open, want closed")
	}
	if len(c.points) != 4 {
		t.Errorf("len(points) = %d, want 4", len(c.points))
	}
}

func TestFlattenPath_CurveTolerance(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.QuadraticTo(50, 100, 100, 0)

	coarse := flattenPath(p, 5.0)[0].points
	fine := flattenPath(p, 0.05)[0].points
	if len(fine) <= len(coarse) {
		t.Errorf("fine tolerance produced %d points, coarse %d; want more",
			len(fine), len(coarse))
	}

	// Every flattened point lies on the curve, so the maximum deviation
	// of the control polygon midpoints from the polyline is bounded by
	// the tolerance.
	for i := 1; i < len(fine); i++ {
		mid := fine[i-1].Midpoint(fine[i])
		if d := quadDistance(mid, Pt(0, 0), Pt(50, 100), Pt(100, 0)); d > 0.1 {
			t.Errorf("chord midpoint %v is %v from curve", mid, d)
		}
	}
}

// quadDistance samples the quadratic and returns the closest distance
// from p to any sample.
func quadDistance(p, p0, p1, p2 Point) float64 {
	best := math.Inf(1)
	for i := 0; i <= 256; i++ {
		t := float64(i) / 256
		a := p0.Lerp(p1, t)
		b := p1.Lerp(p2, t)
		q := a.Lerp(b, t)
		if d := p.Distance(q); d < best {
			best = d
		}
	}
	return best
}

func TestFlattenPath_MultipleSubpaths(t *testing.T) {
	p := NewPath()
	p.Rectangle(0, 0, 10, 10)
	p.MoveTo(20, 0)
	p.LineTo(30, 0)

	contours := flattenPath(p, 0.25)
	if len(contours) != 2 {
		t.Fatalf("len(contours) = %d, want 2", len(contours))
	}
	if !contours[0].closed || contours[1].closed {
		t.Errorf("closed flags = %v, %v; want true, false",
			contours[0].closed, contours[1].closed)
	}
}

func TestFillRects(t *testing.T) {
	mesh := FillRects([]TexturedRect{
		{Dst: RectWH(0, 0, 10, 10), Src: RectWH(0, 0, 1, 1)},
		{Dst: RectWH(20, 0, 10, 10), Src: RectWH(0.5, 0, 0.5, 1)},
		{Dst: Rect{}, Src: RectWH(0, 0, 1, 1)}, // empty, skipped
	})
	if got := mesh.TriangleCount(); got != 4 {
		t.Errorf("TriangleCount() = %d, want 4", got)
	}
	if got := len(mesh.Vertices); got != 8 {
		t.Errorf("len(Vertices) = %d, want 8", got)
	}
	if got, want := mesh.Area(), 200.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("Area() = %v, want %v", got, want)
	}
	// UVs carried through.
	if uv := mesh.Vertices[4].UV; uv != [2]float32{0.5, 0} {
		t.Errorf("Vertices[4].UV = %v, want {0.5, 0}", uv)
	}
}

func TestExpandDashes_PhaseAndOffset(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(40, 0)

	out := expandDashes(p, []float64{10, 10}, 5, 0.25)
	contours := flattenPath(out, 0.25)
	if len(contours) != 3 {
		t.Fatalf("len(contours) = %d, want 3", len(contours))
	}
	// Offset 5 starts mid-dash: [0,5), [15,25), [35,40).
	wantSpans := [][2]float64{{0, 5}, {15, 25}, {35, 40}}
	for i, c := range contours {
		x0 := c.points[0].X
		x1 := c.points[len(c.points)-1].X
		if math.Abs(x0-wantSpans[i][0]) > 1e-9 || math.Abs(x1-wantSpans[i][1]) > 1e-9 {
			t.Errorf("dash %d = [%v, %v], want %v", i, x0, x1, wantSpans[i])
		}
	}
}

func TestExpandDashes_NoPattern(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)

	if got := expandDashes(p, nil, 0, 0.25); got != p {
		t.Error("nil pattern should return the path unchanged")
	}
	if got := expandDashes(p, []float64{0, 0}, 0, 0.25); got != p {
		t.Error("all-zero pattern should return the path unchanged")
	}
}
