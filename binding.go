package bunraku

// BindingProperty is the closed discriminant naming which node property a
// binding drives.
type BindingProperty uint8

const (
	// BindTranslation drives the node's local translation (Vec cells).
	BindTranslation BindingProperty = iota
	// BindRotation drives the node's local rotation (Scalar cells, radians).
	BindRotation
	// BindScale drives the node's local scale (Vec cells).
	BindScale
	// BindOpacity drives the node's opacity (Scalar cells).
	BindOpacity
	// BindVertexDeform drives per-vertex displacement (Deform cells, one
	// displacement per mesh vertex).
	BindVertexDeform
)

// String returns the property name for diagnostics.
func (b BindingProperty) String() string {
	switch b {
	case BindTranslation:
		return "translation"
	case BindRotation:
		return "rotation"
	case BindScale:
		return "scale"
	case BindOpacity:
		return "opacity"
	case BindVertexDeform:
		return "deform"
	}
	return "unknown"
}

// BindingValue is one grid cell of a binding. Which field is meaningful
// depends on the binding's property; the others stay zero.
type BindingValue struct {
	Vec    Vec2
	Scalar float64
	Deform []Vec2
}

// Binding maps its owning parameter's position to one property of one node,
// with exact values stored at the parameter's breakpoints and interpolation
// between them. Values is indexed [x][y] over AxisPoints[0] × AxisPoints[1];
// 1D parameters have inner length 1.
//
// Multiple bindings may target the same node/property pair; their
// interpolated contributions sum.
type Binding struct {
	Node     int // arena index
	Property BindingProperty
	Values   [][]BindingValue
}

// propertyOffsets accumulates the summed binding contributions for one node
// during a frame. Reset to zero at the start of every Update.
type propertyOffsets struct {
	Translate Vec2
	Rotate    float64
	Scale     Vec2
	Opacity   float64
}

// findSpan locates the breakpoint interval containing t. It returns the
// lower breakpoint index and the fractional position inside the interval.
// Positions at or past an edge clamp to the nearest edge interval, and an
// exact hit on a breakpoint yields fraction 0 (or 1 at the top edge) so
// lerp passes the stored value through bit-for-bit.
//
// Breakpoint lists are short (rarely more than a handful), so a linear scan
// beats binary search here.
func findSpan(pts []float64, t float64) (int, float64) {
	if len(pts) < 2 {
		return 0, 0
	}
	last := len(pts) - 1
	if t <= pts[0] {
		return 0, 0
	}
	if t >= pts[last] {
		return last - 1, 1
	}
	i := last - 1
	for ; i > 0; i-- {
		if t >= pts[i] {
			break
		}
	}
	span := pts[i+1] - pts[i]
	if span <= 0 {
		return i, 0
	}
	return i, (t - pts[i]) / span
}

// lerp interpolates a→b. The early-outs are load-bearing: they guarantee
// that positions landing exactly on a breakpoint return the stored value
// with no floating-point drift from the general formula.
func lerp(a, b, t float64) float64 {
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}
	return a + (b-a)*t
}

// bilerp interpolates across the four corners of a grid cell.
// c00/c10 share the lower y breakpoint; tx runs along axis 0, ty along axis 1.
func bilerp(c00, c10, c01, c11, tx, ty float64) float64 {
	return lerp(lerp(c00, c10, tx), lerp(c01, c11, tx), ty)
}

func bilerpVec(c00, c10, c01, c11 Vec2, tx, ty float64) Vec2 {
	return Vec2{
		X: bilerp(c00.X, c10.X, c01.X, c11.X, tx, ty),
		Y: bilerp(c00.Y, c10.Y, c01.Y, c11.Y, tx, ty),
	}
}

// evalBindings interpolates every binding at its parameter's current
// normalized position and accumulates the results into the frame scratch:
// transform/opacity contributions into propertyOffsets, deform contributions
// per vertex into the node's deform buffer.
func (p *Puppet) evalBindings() {
	for pi := range p.params {
		param := &p.params[pi]
		pos := param.normalized()

		xi, tx := findSpan(param.AxisPoints[0], pos.X)
		yi, ty := 0, 0.0
		if param.IsVec2 {
			yi, ty = findSpan(param.AxisPoints[1], pos.Y)
		}

		for bi := range param.Bindings {
			p.evalBinding(&param.Bindings[bi], xi, yi, tx, ty)
		}
	}
}

func (p *Puppet) evalBinding(b *Binding, xi, yi int, tx, ty float64) {
	// Clamp the upper corner indices for single-point axes; the fraction is
	// 0 there so the duplicated corner never contributes.
	x1 := xi
	if xi+1 < len(b.Values) {
		x1 = xi + 1
	}
	y1 := yi
	if yi+1 < len(b.Values[xi]) {
		y1 = yi + 1
	}

	c00 := &b.Values[xi][yi]
	c10 := &b.Values[x1][yi]
	c01 := &b.Values[xi][y1]
	c11 := &b.Values[x1][y1]

	off := &p.scratch.offsets[b.Node]
	switch b.Property {
	case BindTranslation:
		v := bilerpVec(c00.Vec, c10.Vec, c01.Vec, c11.Vec, tx, ty)
		off.Translate = off.Translate.Add(v)
	case BindRotation:
		off.Rotate += bilerp(c00.Scalar, c10.Scalar, c01.Scalar, c11.Scalar, tx, ty)
	case BindScale:
		v := bilerpVec(c00.Vec, c10.Vec, c01.Vec, c11.Vec, tx, ty)
		off.Scale = off.Scale.Add(v)
	case BindOpacity:
		off.Opacity += bilerp(c00.Scalar, c10.Scalar, c01.Scalar, c11.Scalar, tx, ty)
	case BindVertexDeform:
		dst := p.scratch.deform[b.Node]
		for v := range dst {
			dst[v] = dst[v].Add(bilerpVec(c00.Deform[v], c10.Deform[v], c01.Deform[v], c11.Deform[v], tx, ty))
		}
	}
}
