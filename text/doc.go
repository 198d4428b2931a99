// Package text turns strings into glyph runs the renderer can draw.
//
// A Face wraps a parsed font and produces glyph outlines for the glyph
// atlas. A Shaper positions glyphs using HarfBuzz shaping via
// go-text/typesetting, so kerning, ligatures, and complex scripts come
// out right. The resulting GlyphRun plugs straight into
// Renderer.DrawText.
package text
