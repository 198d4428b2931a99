package hwvg

import "math"

// StrokePath tessellates the stroked outline of a path into a triangle
// mesh. The centerline is dashed if the style carries a dash pattern,
// expanded to the stroke outline, then filled with the non-zero rule so
// self-overlapping joins render solid. Paths with fewer than two
// distinct points, or a non-positive width, produce an empty mesh and
// no error.
func StrokePath(path *Path, style StrokeStyle, opts TessellateOptions) (*Mesh, error) {
	if path == nil || path.IsEmpty() || style.Width <= 0 {
		return &Mesh{}, nil
	}
	p := path
	if style.IsDashed() {
		p = expandDashes(p, style.Dashes, style.DashOffset, opts.Tolerance)
	}
	outline := expandStroke(p, style, opts.Tolerance)
	return FillPath(outline, FillRuleNonZero, opts)
}

// strokeExpander converts a stroked centerline into the outline of the
// stroked region, which is then filled with the non-zero rule. It tracks
// a forward path (the left side of travel) and a backward path (the
// right side); finishing a subpath stitches the two together with caps.
type strokeExpander struct {
	style     StrokeStyle
	tolerance float64

	forward  *Path
	backward *Path
	output   *Path

	startPt   Point
	startNorm Vec2
	startTan  Vec2
	lastPt    Point
	lastTan   Vec2
	lastNorm  Vec2

	// Joins with an angle change below this threshold collapse to a
	// plain line, keeping the outline free of micro-wedges.
	joinThresh float64
}

// expandStroke returns the fill outline of stroking path with style.
// Dash patterns must already be applied. A nil or empty path, or a
// non-positive width, yields an empty outline.
func expandStroke(path *Path, style StrokeStyle, tolerance float64) *Path {
	if path == nil || path.IsEmpty() || style.Width <= 0 {
		return NewPath()
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	e := &strokeExpander{
		style:      style,
		tolerance:  tolerance,
		forward:    NewPath(),
		backward:   NewPath(),
		output:     NewPath(),
		joinThresh: 2.0 * tolerance / style.Width,
	}
	e.expand(path.Elements())
	return e.output
}

func (e *strokeExpander) expand(elements []PathElement) {
	for _, el := range elements {
		switch elem := el.(type) {
		case MoveTo:
			e.finish()
			e.startPt = elem.Point
			e.lastPt = elem.Point
		case LineTo:
			if elem.Point != e.lastPt {
				tangent := elem.Point.Sub(e.lastPt)
				e.doJoin(tangent)
				e.lastTan = tangent
				e.doLine(tangent, elem.Point)
			}
		case QuadTo:
			if elem.Control != e.lastPt || elem.Point != e.lastPt {
				e.doFlattened(func(emit func(Point)) {
					flattenQuad(e.lastPt, elem.Control, elem.Point, e.tolerance, emit)
				})
			}
		case CubicTo:
			if elem.Control1 != e.lastPt || elem.Control2 != e.lastPt || elem.Point != e.lastPt {
				e.doFlattened(func(emit func(Point)) {
					flattenCubic(e.lastPt, elem.Control1, elem.Control2, elem.Point, e.tolerance, emit)
				})
			}
		case Close:
			if e.lastPt != e.startPt {
				tangent := e.startPt.Sub(e.lastPt)
				e.doJoin(tangent)
				e.lastTan = tangent
				e.doLine(tangent, e.startPt)
			}
			e.finishClosed()
		}
	}
	e.finish()
}

// doFlattened feeds a flattened curve through the line machinery one
// segment at a time. Zero-length segments are dropped.
func (e *strokeExpander) doFlattened(flatten func(emit func(Point))) {
	prev := e.lastPt
	flatten(func(p Point) {
		tangent := p.Sub(prev)
		if tangent.LengthSquared() > 1e-20 {
			e.doJoin(tangent)
			e.lastTan = tangent
			e.doLine(tangent, p)
			prev = p
		}
	})
}

func (e *strokeExpander) doJoin(tan0 Vec2) {
	scale := 0.5 * e.style.Width / tan0.Length()
	norm := tan0.Perp().Mul(scale)
	p0 := e.lastPt

	if e.forward.IsEmpty() {
		e.forward.MoveTo(p0.Add(norm.Neg()).X, p0.Add(norm.Neg()).Y)
		e.backward.MoveTo(p0.Add(norm).X, p0.Add(norm).Y)
		e.startTan = tan0
		e.startNorm = norm
		return
	}

	ab := e.lastTan
	cd := tan0
	cross := ab.Cross(cd)
	dot := ab.Dot(cd)
	hypot := math.Hypot(cross, dot)

	if dot > 0 && math.Abs(cross) < hypot*e.joinThresh {
		lineToPt(e.forward, p0.Add(norm.Neg()))
		lineToPt(e.backward, p0.Add(norm))
		return
	}

	switch e.style.Join {
	case LineJoinBevel:
		lineToPt(e.forward, p0.Add(norm.Neg()))
		lineToPt(e.backward, p0.Add(norm))
	case LineJoinMiter:
		e.miterJoin(p0, norm, ab, cd, cross, dot, hypot)
	case LineJoinRound:
		e.roundJoinAt(p0, norm, cross, dot)
	}
}

func (e *strokeExpander) miterJoin(p0 Point, norm, ab, cd Vec2, cross, dot, hypot float64) {
	limitSq := e.style.MiterLimit * e.style.MiterLimit
	if 2.0*hypot < (hypot+dot)*limitSq {
		lastNorm := ab.Perp().Mul(0.5 * e.style.Width / ab.Length())
		if cross > 0 {
			fpLast := p0.Add(lastNorm.Neg())
			fpThis := p0.Add(norm.Neg())
			h := ab.Cross(fpThis.Sub(fpLast)) / cross
			lineToPt(e.forward, fpThis.Add(cd.Mul(-h)))
			lineToPt(e.backward, p0)
		} else if cross < 0 {
			fpLast := p0.Add(lastNorm)
			fpThis := p0.Add(norm)
			h := ab.Cross(fpThis.Sub(fpLast)) / cross
			lineToPt(e.backward, fpThis.Add(cd.Mul(-h)))
			lineToPt(e.forward, p0)
		}
	}
	lineToPt(e.forward, p0.Add(norm.Neg()))
	lineToPt(e.backward, p0.Add(norm))
}

// roundJoinAt inserts an arc on the outer side of the turn. The arc runs
// from the previous segment's offset point to the new one.
func (e *strokeExpander) roundJoinAt(p0 Point, norm Vec2, cross, dot float64) {
	lastNorm := e.lastTan.Perp().Mul(0.5 * e.style.Width / e.lastTan.Length())
	angle := math.Atan2(cross, dot)
	if angle > 0 {
		lineToPt(e.backward, p0.Add(norm))
		e.arcTo(e.forward, p0, lastNorm.Neg(), angle)
	} else {
		lineToPt(e.forward, p0.Add(norm.Neg()))
		e.arcTo(e.backward, p0, lastNorm.Neg(), -angle)
	}
}

func (e *strokeExpander) doLine(tangent Vec2, p1 Point) {
	norm := tangent.Perp().Mul(0.5 * e.style.Width / tangent.Length())
	lineToPt(e.forward, p1.Add(norm.Neg()))
	lineToPt(e.backward, p1.Add(norm))
	e.lastPt = p1
	e.lastNorm = norm
}

// finish completes an open subpath, capping both ends.
func (e *strokeExpander) finish() {
	if e.forward.IsEmpty() {
		return
	}
	appendElements(e.output, e.forward.Elements())
	if !e.backward.IsEmpty() {
		e.applyCap(e.lastPt, e.lastNorm.Neg(), false)
	}
	e.appendReversed(e.backward)
	e.applyCap(e.startPt, e.startNorm, true)
	e.forward = NewPath()
	e.backward = NewPath()
}

// finishClosed completes a closed subpath. The two offset rings become
// separate contours; the non-zero rule keeps the area between them.
func (e *strokeExpander) finishClosed() {
	if e.forward.IsEmpty() {
		return
	}
	e.doJoin(e.startTan)
	appendElements(e.output, e.forward.Elements())
	e.output.Close()
	if elems := e.backward.Elements(); len(elems) > 0 {
		last := elementEnd(elems[len(elems)-1])
		e.output.MoveTo(last.X, last.Y)
	}
	e.appendReversed(e.backward)
	e.output.Close()
	e.forward = NewPath()
	e.backward = NewPath()
}

func (e *strokeExpander) applyCap(center Point, norm Vec2, closePath bool) {
	switch e.style.Cap {
	case LineCapButt:
		if closePath {
			e.output.Close()
		} else {
			lineToPt(e.output, center.Add(norm.Neg()))
		}
	case LineCapRound:
		e.arcTo(e.output, center, norm, math.Pi)
		if closePath {
			e.output.Close()
		}
	case LineCapSquare:
		e.squareCap(center, norm, closePath)
	}
}

// arcTo approximates an arc around center with cubic segments of at most
// a quarter turn each. norm gives the start radius vector.
func (e *strokeExpander) arcTo(out *Path, center Point, norm Vec2, angle float64) {
	segments := int(math.Ceil(math.Abs(angle) / (math.Pi / 2)))
	if segments < 1 {
		segments = 1
	}
	step := angle / float64(segments)
	a := math.Atan2(norm.Y, norm.X)
	radius := norm.Length()
	for i := 0; i < segments; i++ {
		arcSegment(out, center, radius, a, a+step)
		a += step
	}
}

// arcSegment appends one cubic approximating the arc from angle a0 to a1.
func arcSegment(out *Path, center Point, radius, a0, a1 float64) {
	da := a1 - a0
	alpha := math.Sin(da) * (math.Sqrt(4+3*math.Tan(da/2)*math.Tan(da/2)) - 1) / 3

	cos0, sin0 := math.Cos(a0), math.Sin(a0)
	cos1, sin1 := math.Cos(a1), math.Sin(a1)

	p1 := Pt(center.X+radius*cos0, center.Y+radius*sin0)
	p2 := Pt(center.X+radius*cos1, center.Y+radius*sin1)
	c1 := Pt(p1.X-alpha*radius*sin0, p1.Y+alpha*radius*cos0)
	c2 := Pt(p2.X+alpha*radius*sin1, p2.Y-alpha*radius*cos1)

	out.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p2.X, p2.Y)
}

func (e *strokeExpander) squareCap(center Point, norm Vec2, closePath bool) {
	// Map the unit square corners through [norm.X, norm.Y; -norm.Y,
	// norm.X] + center, extending the stroke by half a width.
	mapPt := func(x, y float64) Point {
		return Pt(norm.X*x-norm.Y*y+center.X, norm.Y*x+norm.X*y+center.Y)
	}
	lineToPt(e.output, mapPt(1, 1))
	lineToPt(e.output, mapPt(-1, 1))
	if closePath {
		e.output.Close()
	} else {
		lineToPt(e.output, mapPt(-1, 0))
	}
}

// appendReversed walks a side path backwards, emitting it onto the
// output so the outline winds consistently.
func (e *strokeExpander) appendReversed(side *Path) {
	elems := side.Elements()
	for i := len(elems) - 1; i >= 1; i-- {
		endPt := elementEnd(elems[i-1])
		switch el := elems[i].(type) {
		case LineTo:
			lineToPt(e.output, endPt)
		case QuadTo:
			e.output.QuadraticTo(el.Control.X, el.Control.Y, endPt.X, endPt.Y)
		case CubicTo:
			e.output.CubicTo(el.Control2.X, el.Control2.Y, el.Control1.X, el.Control1.Y, endPt.X, endPt.Y)
		}
	}
}

func lineToPt(p *Path, pt Point) {
	p.LineTo(pt.X, pt.Y)
}

func appendElements(dst *Path, elems []PathElement) {
	for _, el := range elems {
		switch e := el.(type) {
		case MoveTo:
			dst.MoveTo(e.Point.X, e.Point.Y)
		case LineTo:
			dst.LineTo(e.Point.X, e.Point.Y)
		case QuadTo:
			dst.QuadraticTo(e.Control.X, e.Control.Y, e.Point.X, e.Point.Y)
		case CubicTo:
			dst.CubicTo(e.Control1.X, e.Control1.Y, e.Control2.X, e.Control2.Y, e.Point.X, e.Point.Y)
		case Close:
			dst.Close()
		}
	}
}

func elementEnd(el PathElement) Point {
	switch e := el.(type) {
	case MoveTo:
		return e.Point
	case LineTo:
		return e.Point
	case QuadTo:
		return e.Point
	case CubicTo:
		return e.Point
	}
	return Point{}
}
