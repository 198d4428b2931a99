package hwvg

import "math"

// Point represents a 2D position in user space.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the point displaced by the vector v.
func (p Point) Add(v Vec2) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Vec2 {
	return Vec2{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Lerp linearly interpolates between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Midpoint returns the point halfway between p and q.
func (p Point) Midpoint(q Point) Point {
	return p.Lerp(q, 0.5)
}

// IsFinite reports whether both coordinates are finite numbers.
// NaN or infinite coordinates mark degenerate geometry that the
// tessellator drops rather than propagates.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Vec2 represents a 2D displacement vector.
// Unlike Point which represents a position, Vec2 represents a direction
// and magnitude. The distinction keeps curve and stroke geometry readable.
type Vec2 struct {
	X, Y float64
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns the vector scaled by a scalar.
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Neg returns the negation of the vector.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the 2D cross product (the z-component of the 3D cross
// product with z=0). Its sign gives the turn direction between vectors.
func (v Vec2) Cross(w Vec2) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the length (magnitude) of the vector.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// LengthSquared returns the squared length of the vector.
// Faster than Length when only comparing magnitudes.
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction.
// The zero vector normalizes to the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Perp returns the vector rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectWH constructs a rectangle from origin and size.
func RectWH(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Intersect returns the intersection of two rectangles.
// The result may be empty.
func (r Rect) Intersect(s Rect) Rect {
	out := Rect{
		MinX: math.Max(r.MinX, s.MinX),
		MinY: math.Max(r.MinY, s.MinY),
		MaxX: math.Min(r.MaxX, s.MaxX),
		MaxY: math.Min(r.MaxY, s.MaxY),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	if r.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, s.MinX),
		MinY: math.Min(r.MinY, s.MinY),
		MaxX: math.Max(r.MaxX, s.MaxX),
		MaxY: math.Max(r.MaxY, s.MaxY),
	}
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}
