package bunraku

import "fmt"

// Parameter is a named control axis (1D) or axis pair (2D) driving bindings.
// The current value is the only field that changes after construction, and
// only through Puppet.SetParameter, which clamps each axis into range.
//
// AxisPoints are the normalized breakpoint positions at which bindings store
// exact values, sorted ascending within [0, 1]. A 1D parameter uses axis 0;
// axis 1 holds the single point 0 so binding grids are always K×M.
type Parameter struct {
	UUID     uint32
	Name     string
	IsVec2   bool
	Min, Max Vec2
	Defaults Vec2

	AxisPoints [2][]float64
	Bindings   []Binding

	value Vec2
}

// Value returns the current (clamped) parameter value. For 1D parameters
// only X is meaningful.
func (p *Parameter) Value() Vec2 {
	return p.value
}

// set stores v clamped per axis into the declared range. Out-of-range input
// is never an error.
func (p *Parameter) set(v Vec2) {
	p.value.X = clamp(v.X, p.Min.X, p.Max.X)
	if p.IsVec2 {
		p.value.Y = clamp(v.Y, p.Min.Y, p.Max.Y)
	}
}

// normalized maps the current value into [0, 1] per axis using the declared
// range. A degenerate axis (min == max) maps to 0.
func (p *Parameter) normalized() Vec2 {
	var out Vec2
	if p.Max.X > p.Min.X {
		out.X = (p.value.X - p.Min.X) / (p.Max.X - p.Min.X)
	}
	if p.IsVec2 && p.Max.Y > p.Min.Y {
		out.Y = (p.value.Y - p.Min.Y) / (p.Max.Y - p.Min.Y)
	}
	return out
}

// Parameter returns the parameter with the given name, or nil if none exists.
func (p *Puppet) Parameter(name string) *Parameter {
	for i := range p.params {
		if p.params[i].Name == name {
			return &p.params[i]
		}
	}
	return nil
}

// Parameters returns the puppet's parameter list. The returned slice MUST
// NOT be mutated; use SetParameter to change values.
func (p *Puppet) Parameters() []Parameter {
	return p.params
}

// SetParameter sets a parameter's current value by name, clamping each axis
// into its declared range. 1D parameters take one value; 2D parameters take
// two (a missing second value leaves that axis unchanged).
//
// The new value takes effect on the next Update; it is never read mid-frame.
func (p *Puppet) SetParameter(name string, values ...float64) error {
	param := p.Parameter(name)
	if param == nil {
		return fmt.Errorf("bunraku: unknown parameter %q", name)
	}
	if len(values) == 0 {
		return fmt.Errorf("bunraku: SetParameter(%q) requires at least one value", name)
	}
	next := param.value
	next.X = values[0]
	if param.IsVec2 && len(values) > 1 {
		next.Y = values[1]
	}
	param.set(next)
	return nil
}

// SetParameterAt is SetParameter addressing the parameter by list index,
// for callers iterating Parameters().
func (p *Puppet) SetParameterAt(index int, values ...float64) error {
	if index < 0 || index >= len(p.params) {
		return fmt.Errorf("bunraku: parameter index %d out of range", index)
	}
	return p.SetParameter(p.params[index].Name, values...)
}
