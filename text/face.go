package text

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/hwvg"
)

// faceIDCounter hands out unique face identities for glyph cache keys.
var faceIDCounter atomic.Uint64

// Face is a parsed font ready for shaping and outline extraction.
//
// Outline extraction goes through x/image/font/sfnt; shaping uses the
// same font data parsed by go-text/typesetting. A Face is safe for
// concurrent use.
type Face struct {
	id uint64

	sfnt *sfnt.Font
	gt   *gtfont.Font

	// mu guards buf; sfnt.Buffer is not safe for concurrent use.
	mu  sync.Mutex
	buf sfnt.Buffer
}

// ParseFont parses TTF or OTF font data into a Face.
func ParseFont(data []byte) (*Face, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	gf, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	return &Face{
		id:   faceIDCounter.Add(1),
		sfnt: sf,
		gt:   gf.Font,
	}, nil
}

// ID returns the face's unique identity. It participates in glyph cache
// keys so two faces never collide in the atlas.
func (f *Face) ID() uint64 { return f.id }

// GlyphOutline returns the glyph's vector outline at the given pixel
// size, in a y-down coordinate space with the baseline at y=0. Glyphs
// without an outline (spaces) return an empty path.
func (f *Face) GlyphOutline(glyphID uint32, pixelSize float64) (*hwvg.Path, error) {
	ppem := fixed.Int26_6(pixelSize * 64)

	f.mu.Lock()
	segments, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(glyphID), ppem, nil)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("text: load glyph %d: %w", glyphID, err)
	}

	path := hwvg.NewPath()
	started := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				path.Close()
			}
			started = true
			path.MoveTo(fix26(seg.Args[0].X), fix26(seg.Args[0].Y))
		case sfnt.SegmentOpLineTo:
			path.LineTo(fix26(seg.Args[0].X), fix26(seg.Args[0].Y))
		case sfnt.SegmentOpQuadTo:
			path.QuadraticTo(
				fix26(seg.Args[0].X), fix26(seg.Args[0].Y),
				fix26(seg.Args[1].X), fix26(seg.Args[1].Y),
			)
		case sfnt.SegmentOpCubeTo:
			path.CubicTo(
				fix26(seg.Args[0].X), fix26(seg.Args[0].Y),
				fix26(seg.Args[1].X), fix26(seg.Args[1].Y),
				fix26(seg.Args[2].X), fix26(seg.Args[2].Y),
			)
		}
	}
	if started {
		path.Close()
	}
	return path, nil
}

// GlyphIndex returns the glyph ID for a rune, or 0 (.notdef) if the
// font has no mapping for it.
func (f *Face) GlyphIndex(r rune) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	gid, err := f.sfnt.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return uint32(gid)
}

// Metrics describes vertical font metrics at a pixel size, y-down:
// Ascent is the distance from baseline up to the top (negative y),
// Descent from baseline down to the bottom.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// Metrics returns the face's vertical metrics at the given pixel size.
func (f *Face) Metrics(pixelSize float64) (Metrics, error) {
	ppem := fixed.Int26_6(pixelSize * 64)
	f.mu.Lock()
	m, err := f.sfnt.Metrics(&f.buf, ppem, 0)
	f.mu.Unlock()
	if err != nil {
		return Metrics{}, fmt.Errorf("text: metrics: %w", err)
	}
	return Metrics{
		Ascent:  fix26(m.Ascent),
		Descent: fix26(m.Descent),
		LineGap: fix26(m.Height - m.Ascent - m.Descent),
	}, nil
}

func fix26(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
