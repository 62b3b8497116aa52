package bunraku

// composeDeform writes the final local-space vertex positions for every
// mesh-carrying node into the frame scratch:
//
//	local = (base - origin) + Σ binding deform + physics displacement
//
// The physics displacement is the solver's PREVIOUS tick output, applied
// last as one more deform source. Output length always equals the mesh's
// base vertex count; mismatched stored deform vectors are rejected at
// construction, never here.
func (p *Puppet) composeDeform() {
	for i := range p.nodes {
		n := &p.nodes[i]
		if !n.HasMesh() {
			continue
		}

		phys := p.physics.prevDisplacement(i)
		base := n.Mesh.Vertices
		add := p.scratch.deform[i]
		out := p.scratch.local[i]
		for v := range base {
			out[v] = Vec2{
				X: base[v].X - n.Mesh.Origin.X + add[v].X + phys.X,
				Y: base[v].Y - n.Mesh.Origin.Y + add[v].Y + phys.Y,
			}
		}
	}
}

// worldVertices maps a node's composed local-space positions through its
// world transform into a freshly allocated buffer.
func (p *Puppet) worldVertices(idx int) []Vec2 {
	n := &p.nodes[idx]
	local := p.scratch.local[idx]
	out := make([]Vec2, len(local))
	for v := range local {
		x, y := transformPoint(n.worldTransform, local[v].X, local[v].Y)
		out[v] = Vec2{x, y}
	}
	return out
}
