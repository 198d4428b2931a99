// Package raster is a CPU scanline rasterizer producing 8-bit coverage
// masks. It backs the glyph atlas: outlines are small, so a simple
// supersampled sweep beats GPU round-trips.
package raster

import (
	"math"
	"sort"
)

// Point is a position in mask pixel space.
type Point struct {
	X, Y float64
}

// samplesPerPixel is the vertical supersampling factor. Horizontal
// coverage is exact per span, so 4 vertical samples give 1/4-pixel
// vertical resolution at 256 alpha levels.
const samplesPerPixel = 4

type edge struct {
	topX, topY float64
	botX, botY float64
	dir        float64 // +1 downward, -1 upward
}

func (e *edge) xAt(y float64) float64 {
	t := (y - e.topY) / (e.botY - e.topY)
	return e.topX + t*(e.botX-e.topX)
}

// Fill rasterizes closed contours into a w x h A8 mask using the
// non-zero winding rule. Contours are implicitly closed. Coordinates
// outside the mask clip to its bounds.
func Fill(w, h int, contours [][]Point) []byte {
	mask := make([]byte, w*h)
	if w <= 0 || h <= 0 {
		return mask
	}

	var edges []edge
	for _, c := range contours {
		n := len(c)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			p0 := c[i]
			p1 := c[(i+1)%n]
			if p0.Y == p1.Y {
				continue
			}
			if p0.Y < p1.Y {
				edges = append(edges, edge{p0.X, p0.Y, p1.X, p1.Y, 1})
			} else {
				edges = append(edges, edge{p1.X, p1.Y, p0.X, p0.Y, -1})
			}
		}
	}
	if len(edges) == 0 {
		return mask
	}

	cover := make([]float32, w)
	type crossing struct {
		x   float64
		dir float64
	}
	crossings := make([]crossing, 0, 16)

	for y := 0; y < h; y++ {
		for i := range cover {
			cover[i] = 0
		}
		for s := 0; s < samplesPerPixel; s++ {
			sy := float64(y) + (float64(s)+0.5)/samplesPerPixel

			crossings = crossings[:0]
			for i := range edges {
				e := &edges[i]
				if sy < e.topY || sy >= e.botY {
					continue
				}
				crossings = append(crossings, crossing{x: e.xAt(sy), dir: e.dir})
			}
			if len(crossings) < 2 {
				continue
			}
			sort.Slice(crossings, func(i, j int) bool { return crossings[i].x < crossings[j].x })

			winding := 0.0
			spanStart := 0.0
			for _, cr := range crossings {
				wasInside := winding != 0
				winding += cr.dir
				inside := winding != 0
				switch {
				case inside && !wasInside:
					spanStart = cr.x
				case !inside && wasInside:
					addSpan(cover, spanStart, cr.x, 1.0/samplesPerPixel)
				}
			}
		}
		row := mask[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			v := cover[x]
			if v > 1 {
				v = 1
			}
			row[x] = uint8(v*255 + 0.5)
		}
	}
	return mask
}

// addSpan accumulates weight into cover for the horizontal span
// [x0, x1), with exact partial coverage at the fractional ends.
func addSpan(cover []float32, x0, x1 float64, weight float32) {
	if x1 <= x0 {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > float64(len(cover)) {
		x1 = float64(len(cover))
	}
	if x1 <= x0 {
		return
	}

	ix0 := int(math.Floor(x0))
	ix1 := int(math.Floor(x1))
	if ix0 == ix1 {
		cover[ix0] += weight * float32(x1-x0)
		return
	}
	cover[ix0] += weight * float32(float64(ix0+1)-x0)
	for x := ix0 + 1; x < ix1; x++ {
		cover[x] += weight
	}
	if ix1 < len(cover) {
		cover[ix1] += weight * float32(x1-float64(ix1))
	}
}
