package bunraku

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ParamTween animates one parameter's value (both axes for 2D parameters)
// toward a target over time. Create one via TweenParameter and call
// Update(dt) each frame before Puppet.Update; values are applied through
// SetParameter so they clamp like any other write.
//
// There is no global animation manager. Callers drive their tweens
// themselves and drop them when Done.
type ParamTween struct {
	tweens [2]*gween.Tween
	count  int
	puppet *Puppet
	param  string
	Done   bool
}

// TweenParameter creates a ParamTween easing the named parameter from its
// current value to the given target over duration seconds. For 1D
// parameters only toX is used.
func TweenParameter(p *Puppet, name string, toX, toY float64, duration float32, fn ease.TweenFunc) (*ParamTween, error) {
	param := p.Parameter(name)
	if param == nil {
		return nil, fmt.Errorf("bunraku: unknown parameter %q", name)
	}
	g := &ParamTween{puppet: p, param: name, count: 1}
	cur := param.Value()
	g.tweens[0] = gween.New(float32(cur.X), float32(toX), duration, fn)
	if param.IsVec2 {
		g.count = 2
		g.tweens[1] = gween.New(float32(cur.Y), float32(toY), duration, fn)
	}
	return g, nil
}

// Update advances the tween by dt seconds and writes the eased value to the
// parameter. Sets Done when every axis has finished.
func (g *ParamTween) Update(dt float32) {
	if g.Done {
		return
	}

	var values [2]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	_ = g.puppet.SetParameter(g.param, values[:g.count]...)
}
