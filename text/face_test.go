package text

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/hwvg"
)

func TestParseFont(t *testing.T) {
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	if face.ID() == 0 {
		t.Error("ID() = 0, want non-zero")
	}

	other, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	if face.ID() == other.ID() {
		t.Error("two faces share an ID")
	}
}

func TestParseFont_InvalidData(t *testing.T) {
	if _, err := ParseFont([]byte("not a font")); err == nil {
		t.Error("ParseFont(garbage) error = nil, want error")
	}
}

func TestFace_GlyphIndex(t *testing.T) {
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	if gid := face.GlyphIndex('A'); gid == 0 {
		t.Error("GlyphIndex('A') = 0, want a real glyph")
	}
	// An unmapped rune falls back to .notdef.
	if gid := face.GlyphIndex('\U000E0000'); gid != 0 {
		t.Errorf("GlyphIndex(unmapped) = %d, want 0", gid)
	}
}

func TestFace_GlyphOutline(t *testing.T) {
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}

	gid := face.GlyphIndex('H')
	path, err := face.GlyphOutline(gid, 32)
	if err != nil {
		t.Fatalf("GlyphOutline() error = %v", err)
	}
	if path.IsEmpty() {
		t.Fatal("outline of 'H' is empty")
	}

	// Outline coordinates are y-down with the baseline at 0, so a
	// capital letter sits above the baseline at negative y.
	for _, el := range path.Elements() {
		var p hwvg.Point
		switch e := el.(type) {
		case hwvg.MoveTo:
			p = e.Point
		case hwvg.LineTo:
			p = e.Point
		case hwvg.QuadTo:
			p = e.Point
		case hwvg.CubicTo:
			p = e.Point
		default:
			continue
		}
		if p.Y > 1 {
			t.Errorf("outline point y = %v, want above baseline", p.Y)
			break
		}
	}
}

func TestFace_GlyphOutline_Space(t *testing.T) {
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	path, err := face.GlyphOutline(face.GlyphIndex(' '), 32)
	if err != nil {
		t.Fatalf("GlyphOutline(space) error = %v", err)
	}
	if !path.IsEmpty() {
		t.Error("space glyph should have an empty outline")
	}
}

func TestFace_Metrics(t *testing.T) {
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	m, err := face.Metrics(32)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if m.Ascent <= 0 {
		t.Errorf("Ascent = %v, want positive", m.Ascent)
	}
	if m.Descent <= 0 {
		t.Errorf("Descent = %v, want positive", m.Descent)
	}
}
