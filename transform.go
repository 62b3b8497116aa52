package bunraku

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// localTransform computes a node's local affine matrix from its static
// transform fields plus the frame's accumulated binding offsets.
// Returns [a, b, c, d, tx, ty].
//
// Composition order is fixed: Scale -> Rotate -> Translate, so the matrix is
// T(x, y) * R(rotation) * S(sx, sy).
func localTransform(n *Node, off *propertyOffsets) [6]float64 {
	sx := n.ScaleX + off.Scale.X
	sy := n.ScaleY + off.Scale.Y
	sin, cos := math.Sincos(n.Rotation + off.Rotate)

	return [6]float64{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		n.X + off.Translate.X,
		n.Y + off.Translate.Y,
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// propagateTransforms recomputes worldTransform and worldOpacity for every
// node, pre-order (parent before children). The walk is iterative with an
// explicit stack so deeply nested rigs cannot exhaust goroutine stack space.
// Children are pushed in reverse so they pop in authoring order.
func (p *Puppet) propagateTransforms() {
	stack := p.scratch.stack[:0]
	stack = append(stack, p.root)

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &p.nodes[idx]
		local := localTransform(n, &p.scratch.offsets[idx])
		opacity := clamp(n.Opacity+p.scratch.offsets[idx].Opacity, 0, 1)

		if n.Parent < 0 {
			n.worldTransform = local
			n.worldOpacity = opacity
		} else {
			parent := &p.nodes[n.Parent]
			n.worldTransform = multiplyAffine(parent.worldTransform, local)
			n.worldOpacity = parent.worldOpacity * opacity
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	p.scratch.stack = stack[:0]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
