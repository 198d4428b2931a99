package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/hwvg"
)

// Direction is the text layout direction.
type Direction uint8

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

// Shaper converts strings into positioned glyph runs using HarfBuzz
// shaping. Kerning, ligatures, and script-specific substitutions are
// applied per the font's OpenType tables.
//
// A Shaper is safe for concurrent use; the underlying HarfbuzzShaper
// instances are pooled because they carry mutable state.
type Shaper struct {
	pool sync.Pool
}

// NewShaper creates a shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape lays out a string at the given pixel size and returns a glyph
// run positioned relative to origin, with origin on the baseline.
// Mixed-script text should be split into runs before shaping.
func (s *Shaper) Shape(face *Face, str string, pixelSize float64, dir Direction, origin hwvg.Point) hwvg.GlyphRun {
	run := hwvg.GlyphRun{
		FaceID:    face.ID(),
		PixelSize: pixelSize,
		Outliner:  face,
	}
	if str == "" {
		return run
	}

	runes := []rune(str)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: mapDirection(dir),
		Face:      font.NewFace(face.gt),
		Size:      fixed.Int26_6(pixelSize * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	run.Glyphs = make([]hwvg.Glyph, 0, len(output.Glyphs))
	x, y := origin.X, origin.Y
	for _, g := range output.Glyphs {
		run.Glyphs = append(run.Glyphs, hwvg.Glyph{
			ID: uint32(g.GlyphID),
			Position: hwvg.Point{
				X: x + fix26(g.XOffset),
				// Shaping offsets are y-up; rendering is y-down.
				Y: y - fix26(g.YOffset),
			},
		})
		x += fix26(g.XAdvance)
		y -= fix26(g.YAdvance)
	}
	return run
}

// Measure returns the advance width of a string at the given pixel
// size, after shaping.
func (s *Shaper) Measure(face *Face, str string, pixelSize float64) float64 {
	if str == "" {
		return 0
	}
	runes := []rune(str)
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(face.gt),
		Size:      fixed.Int26_6(pixelSize * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	})
	s.pool.Put(hb)
	var width float64
	for _, g := range out.Glyphs {
		width += fix26(g.XAdvance)
	}
	return width
}

func mapDirection(d Direction) di.Direction {
	if d == DirectionRTL {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
