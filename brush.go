package hwvg

// Brush describes the paint applied by a fill or stroke.
//
// Solid brushes never allocate GPU resources. Gradient brushes resolve to
// a ramp lookup texture and image brushes to an image texture, both
// through the resource cache.
type Brush interface {
	isBrush()
}

// SolidBrush fills with a single color.
type SolidBrush struct {
	Color RGBA
}

func (SolidBrush) isBrush() {}

// Solid creates a solid color brush.
func Solid(c RGBA) SolidBrush {
	return SolidBrush{Color: c}
}

// ColorStop is a single stop in a gradient.
type ColorStop struct {
	// Offset is the position of the stop along the gradient, in [0, 1].
	Offset float64

	// Color is the color at this offset.
	Color RGBA
}

// ExtendMode controls how a gradient behaves outside its defined range.
type ExtendMode int

const (
	// ExtendPad repeats the edge colors beyond the gradient range.
	ExtendPad ExtendMode = iota
	// ExtendRepeat tiles the gradient.
	ExtendRepeat
	// ExtendReflect tiles the gradient, mirroring every other repetition.
	ExtendReflect
)

// LinearGradientBrush fills with a gradient along the line from Start
// to End.
type LinearGradientBrush struct {
	Start  Point
	End    Point
	Stops  []ColorStop
	Extend ExtendMode
}

func (LinearGradientBrush) isBrush() {}

// LinearGradient creates a linear gradient brush.
func LinearGradient(start, end Point, stops ...ColorStop) LinearGradientBrush {
	return LinearGradientBrush{Start: start, End: end, Stops: stops}
}

// RadialGradientBrush fills with a gradient radiating from Center out
// to Radius.
type RadialGradientBrush struct {
	Center Point
	Radius float64
	Stops  []ColorStop
	Extend ExtendMode
}

func (RadialGradientBrush) isBrush() {}

// RadialGradient creates a radial gradient brush.
func RadialGradient(center Point, radius float64, stops ...ColorStop) RadialGradientBrush {
	return RadialGradientBrush{Center: center, Radius: radius, Stops: stops}
}

// ImageBrush fills with an image pattern. Origin places the image's
// top-left corner in user space; the image is sampled in its natural
// size unless the draw transform scales it.
type ImageBrush struct {
	Image  *Image
	Origin Point
}

func (ImageBrush) isBrush() {}

// ImagePattern creates an image pattern brush.
func ImagePattern(img *Image, origin Point) ImageBrush {
	return ImageBrush{Image: img, Origin: origin}
}
