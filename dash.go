package hwvg

import "math"

// dashPattern is a prepared dash array: even length, all entries
// non-negative, with the start offset normalized into one cycle.
type dashPattern struct {
	lengths []float64
	offset  float64
}

func newDashPattern(dashes []float64, offset float64) *dashPattern {
	var positive bool
	for _, d := range dashes {
		if d > 0 {
			positive = true
			break
		}
	}
	if !positive {
		return nil
	}
	lengths := make([]float64, 0, len(dashes)*2)
	for _, d := range dashes {
		lengths = append(lengths, math.Abs(d))
	}
	// An odd-length array repeats to give alternating on/off phases.
	if len(lengths)%2 != 0 {
		lengths = append(lengths, lengths...)
	}
	var total float64
	for _, l := range lengths {
		total += l
	}
	offset = math.Mod(offset, total)
	if offset < 0 {
		offset += total
	}
	return &dashPattern{lengths: lengths, offset: offset}
}

// state returns the phase index and remaining length after consuming the
// start offset. Even phase indices are "on".
func (d *dashPattern) state() (idx int, remaining float64) {
	left := d.offset
	for {
		if left < d.lengths[idx] || d.lengths[idx] == 0 && left == 0 {
			return idx, d.lengths[idx] - left
		}
		left -= d.lengths[idx]
		idx = (idx + 1) % len(d.lengths)
	}
}

// expandDashes converts a path into a new path containing only the "on"
// portions of the dash pattern, walked along the flattened centerline.
// The pattern phase continues across segments within one subpath and
// resets at each subpath start. Paths without a usable pattern are
// returned unchanged.
func expandDashes(path *Path, dashes []float64, offset, tolerance float64) *Path {
	pat := newDashPattern(dashes, offset)
	if pat == nil {
		return path
	}
	out := NewPath()
	for _, c := range flattenPath(path, tolerance) {
		pts := c.points
		if c.closed && len(pts) > 1 {
			pts = append(append([]Point{}, pts...), pts[0])
		}
		dashContour(out, pts, pat)
	}
	return out
}

func dashContour(out *Path, pts []Point, pat *dashPattern) {
	if len(pts) < 2 {
		return
	}
	idx, remaining := pat.state()
	on := idx%2 == 0
	penDown := false

	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		segLen := p0.Distance(p1)
		if segLen < 1e-12 {
			continue
		}
		pos := 0.0
		for pos < segLen {
			take := math.Min(remaining, segLen-pos)
			start := p0.Lerp(p1, pos/segLen)
			end := p0.Lerp(p1, (pos+take)/segLen)
			if on && take > 0 {
				if !penDown {
					out.MoveTo(start.X, start.Y)
					penDown = true
				}
				out.LineTo(end.X, end.Y)
			}
			pos += take
			remaining -= take
			if remaining <= 1e-12 {
				idx = (idx + 1) % len(pat.lengths)
				remaining = pat.lengths[idx]
				on = idx%2 == 0
				if !on {
					penDown = false
				}
			}
		}
	}
}
