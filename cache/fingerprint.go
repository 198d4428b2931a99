package cache

import (
	"hash/fnv"
	"math"
)

// Fingerprint identifies the CPU-side content of a cacheable resource.
// Equal fingerprints are assumed to describe identical content.
type Fingerprint uint64

// Resource kind tags mixed into fingerprints so different resource
// types never collide on equal payloads.
const (
	kindGlyph uint64 = iota + 1
	kindRamp
	kindImage
)

func hashWords(words ...uint64) Fingerprint {
	h := fnv.New64a()
	var buf [8]byte
	for _, w := range words {
		buf[0] = byte(w)
		buf[1] = byte(w >> 8)
		buf[2] = byte(w >> 16)
		buf[3] = byte(w >> 24)
		buf[4] = byte(w >> 32)
		buf[5] = byte(w >> 40)
		buf[6] = byte(w >> 48)
		buf[7] = byte(w >> 56)
		_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	}
	return Fingerprint(h.Sum64())
}

// GlyphKey fingerprints one rasterized glyph: the face identity, glyph
// index, pixel size in 26.6 fixed point so fractional sizes hash
// distinctly, and a subpixel position bucket so glyphs rendered at
// different fractional offsets get separate masks.
func GlyphKey(faceID uint64, glyphID uint32, pixelSize26_6 uint32, subpixel uint8) Fingerprint {
	return hashWords(kindGlyph, faceID, uint64(glyphID), uint64(pixelSize26_6), uint64(subpixel))
}

// RampKey fingerprints a gradient ramp by its stop content, extend
// mode, and baked tile layout (period count, and the mirror parity of
// the first tile). The gradient geometry (start, end, radius) is not part
// of the key: geometry maps to texture coordinates, not texels.
func RampKey(extend uint8, tiles int, parity uint8, stops []Stop) Fingerprint {
	words := make([]uint64, 0, 2*len(stops)+3)
	words = append(words, kindRamp, uint64(extend)|uint64(tiles)<<8|uint64(parity)<<40)
	for _, s := range stops {
		words = append(words, math.Float64bits(s.Offset))
		words = append(words, uint64(s.R)|uint64(s.G)<<8|uint64(s.B)<<16|uint64(s.A)<<24)
	}
	return hashWords(words...)
}

// ImageKey fingerprints an image by identity and version, so mutating
// an image (MarkDirty) re-uploads it on next use.
func ImageKey(imageID, version uint64) Fingerprint {
	return hashWords(kindImage, imageID, version)
}
