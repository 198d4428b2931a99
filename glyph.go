package hwvg

// GlyphOutliner supplies glyph outlines in pixel units for a given
// pixel size. The text package provides implementations backed by sfnt
// fonts; any source of outlines works. Outlines use the y-down
// convention with the origin at the glyph's baseline origin.
type GlyphOutliner interface {
	// GlyphOutline returns the outline of glyphID scaled to pixelSize
	// pixels per em. A glyph with no contours (e.g. space) returns an
	// empty path and no error.
	GlyphOutline(glyphID uint32, pixelSize float64) (*Path, error)
}

// Glyph is one positioned glyph in a run. Position is the baseline
// origin relative to the run origin, in the run's coordinate space.
type Glyph struct {
	ID       uint32
	Position Point
}

// GlyphRun is a shaped sequence of glyphs sharing one face and size.
// Shaping (character to glyph mapping, positioning) happens upstream;
// the renderer only rasterizes and places the glyphs it is given.
type GlyphRun struct {
	// FaceID identifies the font face for caching. Two faces must not
	// share an ID unless they render identical glyphs.
	FaceID uint64

	// PixelSize is the em size in device pixels before transform.
	PixelSize float64

	// Outliner supplies outlines for rasterizing cache misses.
	Outliner GlyphOutliner

	Glyphs []Glyph
}
