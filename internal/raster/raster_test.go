package raster

import (
	"math"
	"testing"
)

func square(x0, y0, x1, y1 float64) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func maskSum(mask []byte) float64 {
	var sum float64
	for _, v := range mask {
		sum += float64(v) / 255
	}
	return sum
}

func TestFill_AlignedSquare(t *testing.T) {
	mask := Fill(16, 16, [][]Point{square(4, 4, 12, 12)})

	// Interior pixels are fully covered, exterior fully empty.
	if got := mask[8*16+8]; got != 255 {
		t.Errorf("center alpha = %d, want 255", got)
	}
	if got := mask[0]; got != 0 {
		t.Errorf("corner alpha = %d, want 0", got)
	}
	if got, want := maskSum(mask), 64.0; math.Abs(got-want) > 0.5 {
		t.Errorf("total coverage = %v, want %v", got, want)
	}
}

func TestFill_HalfPixelEdges(t *testing.T) {
	// A square offset by half a pixel: boundary pixels read ~50%.
	mask := Fill(8, 8, [][]Point{square(2.5, 2, 5.5, 6)})

	if got := mask[3*8+2]; got < 100 || got > 155 {
		t.Errorf("left boundary alpha = %d, want about 128", got)
	}
	if got := mask[3*8+3]; got != 255 {
		t.Errorf("interior alpha = %d, want 255", got)
	}
	if got, want := maskSum(mask), 12.0; math.Abs(got-want) > 0.5 {
		t.Errorf("total coverage = %v, want %v", got, want)
	}
}

func TestFill_Triangle(t *testing.T) {
	tri := []Point{{0, 0}, {16, 0}, {0, 16}}
	mask := Fill(16, 16, [][]Point{tri})

	if got, want := maskSum(mask), 128.0; math.Abs(got-want)/want > 0.05 {
		t.Errorf("total coverage = %v, want about %v", got, want)
	}
	// The hypotenuse produces intermediate alphas.
	var partial int
	for _, v := range mask {
		if v > 20 && v < 235 {
			partial++
		}
	}
	if partial == 0 {
		t.Error("no anti-aliased pixels along the diagonal")
	}
}

func TestFill_Hole(t *testing.T) {
	outer := square(2, 2, 14, 14)
	inner := []Point{{6, 6}, {6, 10}, {10, 10}, {10, 6}} // reverse winding
	mask := Fill(16, 16, [][]Point{outer, inner})

	if got := mask[8*16+8]; got != 0 {
		t.Errorf("hole center alpha = %d, want 0", got)
	}
	if got := mask[4*16+4]; got != 255 {
		t.Errorf("ring alpha = %d, want 255", got)
	}
}

func TestFill_ClipsToBounds(t *testing.T) {
	mask := Fill(8, 8, [][]Point{square(-10, -10, 20, 20)})
	for i, v := range mask {
		if v != 255 {
			t.Fatalf("mask[%d] = %d, want 255", i, v)
		}
	}
}

func TestFill_Degenerate(t *testing.T) {
	if got := maskSum(Fill(8, 8, nil)); got != 0 {
		t.Errorf("empty contours coverage = %v, want 0", got)
	}
	line := []Point{{1, 1}, {7, 7}}
	if got := maskSum(Fill(8, 8, [][]Point{line})); got != 0 {
		t.Errorf("two-point contour coverage = %v, want 0", got)
	}
	if got := len(Fill(0, 0, nil)); got != 0 {
		t.Errorf("zero-size mask length = %d, want 0", got)
	}
}
