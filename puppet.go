package bunraku

// Meta carries the puppet document's descriptive fields. Informational only;
// nothing in the pipeline reads it.
type Meta struct {
	Name      string
	Version   string
	Artist    string
	Rigger    string
	Copyright string
}

// evalScratch is the reusable per-frame working memory. Allocated once at
// construction so Update stays allocation-free except for FrameResult's
// output buffers, which are fresh by contract.
type evalScratch struct {
	offsets []propertyOffsets // summed binding contributions per node
	deform  [][]Vec2          // summed vertex displacements per mesh node
	local   [][]Vec2          // composed local-space positions per mesh node
	effZ    []float64         // cumulative zsort per node
	stack   []int             // traversal stack, reused across walks
	entries []drawEntry
	groups  []drawGroup
}

// Puppet is the complete rigged character: node arena, parameters, physics
// state, and evaluation scratch. Constructed once by a loader via NewPuppet;
// structurally immutable afterwards. Parameter values (via SetParameter) and
// physics state (via Update's tick) are the only fields that change.
//
// A Puppet is not safe for concurrent use. Evaluation is strictly
// single-threaded; see the package documentation.
type Puppet struct {
	Meta Meta

	nodes    []Node
	params   []Parameter
	root     int
	preorder []int // node index -> pre-order rank in the authored tree

	maskedParts []bool // node index -> claimed by some mask's target list
	physics     physicsSolver
	scratch     evalScratch
}

// NewPuppet validates the loader-assembled aggregate and builds a Puppet
// around it. The nodes and params slices are taken over by the Puppet and
// must not be retained or mutated by the caller.
//
// Validation rejects the whole aggregate on the first inconsistency; a
// partially constructed Puppet is never returned. Parameters start at their
// defaults, clamped into range like any other value.
func NewPuppet(nodes []Node, params []Parameter) (*Puppet, error) {
	if err := validate(nodes, params); err != nil {
		return nil, err
	}

	p := &Puppet{
		nodes:  nodes,
		params: params,
	}
	for i := range nodes {
		if nodes[i].Parent < 0 {
			p.root = i
			break
		}
	}

	// Pre-order ranks are fixed at construction; they are the stable
	// tie-break for draw ordering.
	p.preorder = make([]int, len(nodes))
	stack := []int{p.root}
	rank := 0
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.preorder[idx] = rank
		rank++
		for i := len(nodes[idx].Children) - 1; i >= 0; i-- {
			stack = append(stack, nodes[idx].Children[i])
		}
	}

	p.maskedParts = make([]bool, len(nodes))
	for i := range nodes {
		for _, t := range nodes[i].MaskTargets {
			p.maskedParts[t] = true
		}
	}

	p.scratch = evalScratch{
		offsets: make([]propertyOffsets, len(nodes)),
		deform:  make([][]Vec2, len(nodes)),
		local:   make([][]Vec2, len(nodes)),
		effZ:    make([]float64, len(nodes)),
		stack:   make([]int, 0, len(nodes)),
	}
	for i := range nodes {
		if nodes[i].HasMesh() {
			p.scratch.deform[i] = make([]Vec2, nodes[i].Mesh.VertexCount())
			p.scratch.local[i] = make([]Vec2, nodes[i].Mesh.VertexCount())
		}
	}

	for i := range p.params {
		p.params[i].value = Vec2{}
		p.params[i].set(p.params[i].Defaults)
	}

	// Propagate the static pose once so world transforms are valid before
	// the first Update and physics anchors seed from real positions.
	p.propagateTransforms()
	p.physics = newPhysicsSolver(nodes)

	return p, nil
}

// Node returns the node at the given arena index. Read-only access for
// renderers and tools; mutating the returned node is a programming error.
func (p *Puppet) Node(index int) *Node {
	return &p.nodes[index]
}

// NodeCount returns the number of nodes in the arena.
func (p *Puppet) NodeCount() int {
	return len(p.nodes)
}

// Root returns the arena index of the root node.
func (p *Puppet) Root() int {
	return p.root
}

// FindNode returns the arena index of the node with the given UUID, or -1.
func (p *Puppet) FindNode(uuid uint32) int {
	for i := range p.nodes {
		if p.nodes[i].UUID == uuid {
			return i
		}
	}
	return -1
}

// RenderMesh is one part's frame output: world-space positions, UVs, and the
// triangle list, plus the compositing metadata a renderer needs. All slices
// are freshly allocated per frame.
type RenderMesh struct {
	Node    uint32 // source node UUID
	Name    string
	Texture int
	Opacity float64
	ZSort   float64 // effective (cumulative) zsort

	Positions []Vec2
	UVs       []Vec2
	Indices   []uint16
}

// RenderGroup is one compositing step: a plain part (Mask nil, one entry in
// Parts), or a mask source with the parts it clips.
type RenderGroup struct {
	Mask     *RenderMesh
	MaskMode MaskMode
	Parts    []RenderMesh
}

// FrameResult is the output of one Update: draw groups in resolved
// compositing order. It is a value; nothing in it aliases puppet state.
type FrameResult struct {
	Groups []RenderGroup
}

// Update evaluates one frame and returns its output. dt is the elapsed time
// in seconds since the previous Update; it only drives the physics solver,
// everything else is a pure function of current parameter state.
//
// The pipeline order is fixed: binding interpolation, physics tick,
// deformation composition, transform propagation, draw-order resolution.
// The deformation pass consumes the physics displacement computed on the
// PREVIOUS tick; do not "fix" this into same-frame feedback.
func (p *Puppet) Update(dt float64) FrameResult {
	p.resetScratch()
	p.evalBindings()
	p.physics.tick(dt, p.nodes)
	p.composeDeform()
	p.propagateTransforms()
	groups := p.resolveDrawOrder()
	return p.buildFrame(groups)
}

func (p *Puppet) resetScratch() {
	for i := range p.scratch.offsets {
		p.scratch.offsets[i] = propertyOffsets{}
	}
	for _, d := range p.scratch.deform {
		for v := range d {
			d[v] = Vec2{}
		}
	}
}

func (p *Puppet) renderMesh(idx int) RenderMesh {
	n := &p.nodes[idx]
	uvs := make([]Vec2, len(n.Mesh.UVs))
	copy(uvs, n.Mesh.UVs)
	indices := make([]uint16, len(n.Mesh.Indices))
	copy(indices, n.Mesh.Indices)
	return RenderMesh{
		Node:      n.UUID,
		Name:      n.Name,
		Texture:   n.Texture,
		Opacity:   n.worldOpacity,
		ZSort:     p.scratch.effZ[idx],
		Positions: p.worldVertices(idx),
		UVs:       uvs,
		Indices:   indices,
	}
}

func (p *Puppet) buildFrame(groups []drawGroup) FrameResult {
	out := FrameResult{Groups: make([]RenderGroup, 0, len(groups))}
	for _, g := range groups {
		if g.mask < 0 {
			out.Groups = append(out.Groups, RenderGroup{
				Parts: []RenderMesh{p.renderMesh(g.part)},
			})
			continue
		}
		mask := p.renderMesh(g.mask)
		parts := make([]RenderMesh, 0, len(g.masked))
		for _, idx := range g.masked {
			parts = append(parts, p.renderMesh(idx))
		}
		out.Groups = append(out.Groups, RenderGroup{
			Mask:     &mask,
			MaskMode: p.nodes[g.mask].MaskMode,
			Parts:    parts,
		})
	}
	return out
}
