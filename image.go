package hwvg

import (
	"image"
	"image/draw"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// imageIDCounter hands out unique image identities for cache fingerprints.
var imageIDCounter atomic.Uint64

// Image is CPU-side pixel data consumed by draw calls. The renderer
// uploads it to a texture on first use and caches the texture by the
// image's identity and version.
type Image struct {
	id      uint64
	version uint64

	// Pix is tightly packed RGBA pixel data, non-premultiplied,
	// 4 bytes per pixel, row-major.
	Pix []byte

	// Width and Height are the image dimensions in pixels.
	Width  int
	Height int
}

// NewImage creates an image from raw RGBA pixel data. The data must be
// Width*Height*4 bytes; NewImage takes ownership of the slice.
func NewImage(pix []byte, width, height int) *Image {
	return &Image{
		id:     imageIDCounter.Add(1),
		Pix:    pix,
		Width:  width,
		Height: height,
	}
}

// FromGoImage converts a standard library image, straightening it into
// tightly packed RGBA via golang.org/x/image/draw.
func FromGoImage(src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return NewImage(dst.Pix, b.Dx(), b.Dy())
}

// ID returns the image's unique identity. It participates in texture
// cache fingerprints together with the version.
func (im *Image) ID() uint64 { return im.id }

// Version returns the image's modification counter.
func (im *Image) Version() uint64 { return im.version }

// MarkDirty bumps the image version. The next draw using this image
// uploads a fresh texture instead of reusing the cached one.
func (im *Image) MarkDirty() {
	im.version++
}
