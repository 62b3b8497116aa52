package bunraku

import "fmt"

// ErrorKind classifies a construction-time validation failure.
type ErrorKind uint8

const (
	// ErrMalformedStructure covers a missing or duplicated root, a cycle
	// in parent links, inconsistent parent/child references, and binding
	// grids whose dimensions disagree with their parameter's breakpoints.
	ErrMalformedStructure ErrorKind = iota
	// ErrDanglingReference covers a binding or mask target referencing a
	// node outside the arena, or a mask target that is not a part.
	ErrDanglingReference
	// ErrVertexCountMismatch covers a vertex-deform grid cell whose
	// displacement count differs from the target mesh's vertex count.
	ErrVertexCountMismatch
	// ErrUnknownNodeVariant covers a node whose type discriminant is
	// outside the recognized set.
	ErrUnknownNodeVariant
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedStructure:
		return "malformed structure"
	case ErrDanglingReference:
		return "dangling reference"
	case ErrVertexCountMismatch:
		return "vertex count mismatch"
	case ErrUnknownNodeVariant:
		return "unknown node variant"
	}
	return "unknown error"
}

// ValidationError is returned by NewPuppet when the handed-over aggregate is
// internally inconsistent. Any validation failure rejects the whole puppet;
// a partially constructed Puppet is never returned.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bunraku: %s: %s", e.Kind, e.Detail)
}

func validationErrorf(kind ErrorKind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// validate checks the aggregate the loader handed over. Order matters only
// for error reporting; every check is structural, nothing about runtime
// values is validated here (out-of-range parameter values clamp silently).
func validate(nodes []Node, params []Parameter) error {
	if len(nodes) == 0 {
		return validationErrorf(ErrMalformedStructure, "puppet has no nodes")
	}

	root := -1
	for i := range nodes {
		n := &nodes[i]
		if n.Type >= nodeTypeCount {
			return validationErrorf(ErrUnknownNodeVariant, "node %q has variant %d", n.Name, n.Type)
		}
		if n.Parent < 0 {
			if root >= 0 {
				return validationErrorf(ErrMalformedStructure, "multiple roots: nodes %d and %d", root, i)
			}
			root = i
		} else if n.Parent >= len(nodes) {
			return validationErrorf(ErrMalformedStructure, "node %q parent index %d out of range", n.Name, n.Parent)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(nodes) {
				return validationErrorf(ErrMalformedStructure, "node %q child index %d out of range", n.Name, c)
			}
			if nodes[c].Parent != i {
				return validationErrorf(ErrMalformedStructure, "node %q lists child %q whose parent is node %d", n.Name, nodes[c].Name, nodes[c].Parent)
			}
		}
	}
	if root < 0 {
		return validationErrorf(ErrMalformedStructure, "puppet has no root node")
	}

	// Reachability from the root. Combined with the single-parent checks
	// above, full coverage proves the graph is a tree: a cycle or orphaned
	// branch leaves some node unvisited.
	seen := make([]bool, len(nodes))
	stack := []int{root}
	visited := 0
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[idx] {
			return validationErrorf(ErrMalformedStructure, "node %q visited twice; parent links form a cycle", nodes[idx].Name)
		}
		seen[idx] = true
		visited++
		stack = append(stack, nodes[idx].Children...)
	}
	if visited != len(nodes) {
		return validationErrorf(ErrMalformedStructure, "%d of %d nodes unreachable from root", len(nodes)-visited, len(nodes))
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Type != NodeTypeMask && len(n.MaskTargets) > 0 {
			return validationErrorf(ErrMalformedStructure, "node %q has mask targets but is not a mask", n.Name)
		}
		for _, t := range n.MaskTargets {
			if t < 0 || t >= len(nodes) {
				return validationErrorf(ErrDanglingReference, "mask %q targets node index %d out of range", n.Name, t)
			}
			if nodes[t].Type != NodeTypePart {
				return validationErrorf(ErrDanglingReference, "mask %q targets %q which is not a part", n.Name, nodes[t].Name)
			}
		}
	}

	for pi := range params {
		param := &params[pi]
		cols := len(param.AxisPoints[0])
		rows := len(param.AxisPoints[1])
		if cols == 0 {
			return validationErrorf(ErrMalformedStructure, "parameter %q has no breakpoints", param.Name)
		}
		if rows == 0 {
			rows = 1
		}
		for bi := range param.Bindings {
			b := &param.Bindings[bi]
			if b.Node < 0 || b.Node >= len(nodes) {
				return validationErrorf(ErrDanglingReference, "parameter %q binding %d targets node index %d out of range", param.Name, bi, b.Node)
			}
			if len(b.Values) != cols {
				return validationErrorf(ErrMalformedStructure, "parameter %q binding %d has %d columns, want %d", param.Name, bi, len(b.Values), cols)
			}
			for x := range b.Values {
				if len(b.Values[x]) != rows {
					return validationErrorf(ErrMalformedStructure, "parameter %q binding %d column %d has %d rows, want %d", param.Name, bi, x, len(b.Values[x]), rows)
				}
				if b.Property != BindVertexDeform {
					continue
				}
				want := nodes[b.Node].Mesh.VertexCount()
				for y := range b.Values[x] {
					if got := len(b.Values[x][y].Deform); got != want {
						return validationErrorf(ErrVertexCountMismatch,
							"parameter %q binding %d cell (%d,%d) has %d displacements, node %q mesh has %d vertices",
							param.Name, bi, x, y, got, nodes[b.Node].Name, want)
					}
				}
			}
		}
	}

	return nil
}
