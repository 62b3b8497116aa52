package bunraku

import "sort"

// drawEntry is one sortable compositing unit: a part or a mask source.
type drawEntry struct {
	node     int
	zsort    float64
	preorder int
}

// drawLess is the strict total order over compositing units: effective zsort
// ascending, then pre-order position in the authored tree. Both keys are
// fixed per frame, so two resolutions over identical state are bit-identical.
func drawLess(a, b drawEntry) bool {
	if a.zsort != b.zsort {
		return a.zsort < b.zsort
	}
	return a.preorder < b.preorder
}

// drawGroup is one resolved compositing step: either a plain part, or a mask
// source plus the parts it clips. Indices are arena indices.
type drawGroup struct {
	part   int   // plain part; -1 for mask groups
	mask   int   // mask source; -1 for plain groups
	masked []int // parts clipped by mask, in draw order
}

// effectiveZSorts fills scratch.effZ with each node's cumulative zsort (own
// key plus every ancestor's), walking pre-order with an explicit stack.
// Accumulation means nudging a branch's root re-sorts the whole branch, which
// is how rigs are authored.
func (p *Puppet) effectiveZSorts() {
	effZ := p.scratch.effZ
	stack := p.scratch.stack[:0]
	stack = append(stack, p.root)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &p.nodes[idx]
		z := n.ZSort
		if n.Parent >= 0 {
			z += effZ[n.Parent]
		}
		effZ[idx] = z
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	p.scratch.stack = stack[:0]
}

// resolveDrawOrder produces the frame's ordered draw groups. Parts claimed
// by a mask's target list are emitted inside that mask's group (ordered by
// the same total order) and suppressed as plain entries; everything else is
// a single-part group. The group itself sorts at the mask source's position.
func (p *Puppet) resolveDrawOrder() []drawGroup {
	p.effectiveZSorts()

	entries := p.scratch.entries[:0]
	for i := range p.nodes {
		t := p.nodes[i].Type
		if t != NodeTypePart && t != NodeTypeMask {
			continue
		}
		entries = append(entries, drawEntry{
			node:     i,
			zsort:    p.scratch.effZ[i],
			preorder: p.preorder[i],
		})
	}
	sort.SliceStable(entries, func(a, b int) bool { return drawLess(entries[a], entries[b]) })
	p.scratch.entries = entries

	groups := p.scratch.groups[:0]
	for _, e := range entries {
		n := &p.nodes[e.node]
		switch n.Type {
		case NodeTypePart:
			if p.maskedParts[e.node] {
				continue
			}
			groups = append(groups, drawGroup{part: e.node, mask: -1})
		case NodeTypeMask:
			masked := make([]int, len(n.MaskTargets))
			copy(masked, n.MaskTargets)
			sort.SliceStable(masked, func(a, b int) bool {
				return drawLess(
					drawEntry{zsort: p.scratch.effZ[masked[a]], preorder: p.preorder[masked[a]]},
					drawEntry{zsort: p.scratch.effZ[masked[b]], preorder: p.preorder[masked[b]]},
				)
			})
			groups = append(groups, drawGroup{part: -1, mask: e.node, masked: masked})
		}
	}
	p.scratch.groups = groups
	return groups
}
