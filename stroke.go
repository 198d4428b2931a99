package hwvg

// StrokeStyle defines how a path centerline is expanded into a stroke.
// It follows the tiny-skia/kurbo pattern of a single value type carrying
// every stroke property.
type StrokeStyle struct {
	// Width is the stroke width in user-space units. A zero or negative
	// width strokes nothing (empty mesh, no error).
	Width float64

	// Cap is the shape of open subpath endpoints.
	Cap LineCap

	// Join is the shape of joins between segments.
	Join LineJoin

	// MiterLimit is the ratio limit beyond which miter joins fall back
	// to bevels.
	MiterLimit float64

	// Dashes is the on/off dash pattern in user-space units.
	// Empty means a solid stroke.
	Dashes []float64

	// DashOffset is the distance into the dash pattern at which the
	// stroke starts.
	DashOffset float64
}

// DefaultStrokeStyle returns a solid 1-pixel stroke with butt caps and
// miter joins, matching the SVG defaults.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{
		Width:      1.0,
		Cap:        LineCapButt,
		Join:       LineJoinMiter,
		MiterLimit: 4.0,
	}
}

// WithWidth returns a copy of the style with the given width.
func (s StrokeStyle) WithWidth(w float64) StrokeStyle {
	s.Width = w
	return s
}

// WithCap returns a copy of the style with the given line cap.
func (s StrokeStyle) WithCap(c LineCap) StrokeStyle {
	s.Cap = c
	return s
}

// WithJoin returns a copy of the style with the given line join.
func (s StrokeStyle) WithJoin(j LineJoin) StrokeStyle {
	s.Join = j
	return s
}

// WithDashes returns a copy of the style with the given dash pattern.
func (s StrokeStyle) WithDashes(offset float64, dashes ...float64) StrokeStyle {
	s.DashOffset = offset
	s.Dashes = dashes
	return s
}

// IsDashed reports whether the style has a non-empty dash pattern with
// at least one positive interval.
func (s StrokeStyle) IsDashed() bool {
	for _, d := range s.Dashes {
		if d > 0 {
			return true
		}
	}
	return false
}
