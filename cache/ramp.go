package cache

// Stop is one gradient color stop with a non-premultiplied sRGB color.
type Stop struct {
	Offset     float64 // position in [0, 1]
	R, G, B, A uint8
}

// BakeRamp renders a gradient stop sequence into an N x 1 RGBA strip.
// Texels are premultiplied to match the blend state vertex colors use.
// Offsets outside [0, 1] are clamped; texels before the first stop and
// after the last take that stop's color.
func BakeRamp(stops []Stop, size int) []byte {
	return BakeRampTiles(stops, size, 1, false, false)
}

// BakeRampTiles renders count side-by-side copies of the ramp into a
// (tileSize*count) x 1 strip, one copy per gradient period. With mirror
// set every other copy runs backwards, starting with a reversed copy
// when startReversed is set, which bakes the reflect extend; without it
// the copies tile the repeat extend. A draw spanning several periods
// maps its unwrapped gradient parameter linearly across the strip.
func BakeRampTiles(stops []Stop, tileSize, count int, mirror, startReversed bool) []byte {
	if count < 1 {
		count = 1
	}
	pix := make([]byte, tileSize*count*4)
	if len(stops) == 0 {
		return pix
	}
	for tile := 0; tile < count; tile++ {
		reversed := startReversed
		if tile%2 == 1 {
			reversed = !reversed
		}
		if !mirror {
			reversed = false
		}
		base := tile * tileSize * 4
		for i := 0; i < tileSize; i++ {
			t := float64(i) / float64(tileSize-1)
			if reversed {
				t = 1 - t
			}
			r, g, b, a := sampleStops(stops, t)
			// Premultiply.
			off := base + i*4
			pix[off+0] = uint8((uint32(r)*uint32(a) + 127) / 255)
			pix[off+1] = uint8((uint32(g)*uint32(a) + 127) / 255)
			pix[off+2] = uint8((uint32(b)*uint32(a) + 127) / 255)
			pix[off+3] = a
		}
	}
	return pix
}

func sampleStops(stops []Stop, t float64) (r, g, b, a uint8) {
	first := stops[0]
	if t <= first.Offset {
		return first.R, first.G, first.B, first.A
	}
	for i := 1; i < len(stops); i++ {
		s0, s1 := stops[i-1], stops[i]
		if t > s1.Offset {
			continue
		}
		span := s1.Offset - s0.Offset
		if span <= 0 {
			return s1.R, s1.G, s1.B, s1.A
		}
		f := (t - s0.Offset) / span
		return lerp8(s0.R, s1.R, f), lerp8(s0.G, s1.G, f),
			lerp8(s0.B, s1.B, f), lerp8(s0.A, s1.A, f)
	}
	last := stops[len(stops)-1]
	return last.R, last.G, last.B, last.A
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
