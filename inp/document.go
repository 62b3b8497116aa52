package inp

import (
	"encoding/json"
	"fmt"

	"github.com/phanxgames/bunraku"
)

// document is the JSON puppet payload. Unknown fields are ignored
// throughout, so newer documents with extra auxiliary data still load.
type document struct {
	Meta   docMeta    `json:"meta"`
	Nodes  docNode    `json:"nodes"`
	Params []docParam `json:"param"`
}

type docMeta struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Artist    string `json:"artist"`
	Rigger    string `json:"rigger"`
	Copyright string `json:"copyright"`
}

type docTransform struct {
	Trans *[3]float64 `json:"trans"`
	Rot   *[3]float64 `json:"rot"`
	Scale *[2]float64 `json:"scale"`
}

type docMesh struct {
	Verts   []float64   `json:"verts"`
	UVs     []float64   `json:"uvs"`
	Indices []uint16    `json:"indices"`
	Origin  *[2]float64 `json:"origin"`
}

type docMask struct {
	Source uint32 `json:"source"`
	Mode   string `json:"mode"`
}

type docNode struct {
	UUID      uint32       `json:"uuid"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	ZSort     float64      `json:"zsort"`
	Transform docTransform `json:"transform"`
	Opacity   *float64     `json:"opacity"`
	Children  []docNode    `json:"children"`

	// Part fields
	Textures []int    `json:"textures"`
	Mesh     *docMesh `json:"mesh"`
	// Masks lists the mask sources clipping this part; the loader inverts
	// these into MaskTargets on the mask node itself.
	Masks []docMask `json:"masks"`

	// Mask fields (direct spelling: the mask declares its targets)
	Targets []uint32 `json:"targets"`
	Mode    string   `json:"mode"`

	// SimplePhysics fields. A SimplePhysics child is not a scene node; it
	// attaches pendulum settings to its parent.
	Length       float64 `json:"length"`
	Gravity      float64 `json:"gravity"`
	AngleDamping float64 `json:"angle_damping"`
	Frequency    float64 `json:"frequency"`
}

type docParam struct {
	UUID       uint32       `json:"uuid"`
	Name       string       `json:"name"`
	IsVec2     bool         `json:"is_vec2"`
	Min        [2]float64   `json:"min"`
	Max        [2]float64   `json:"max"`
	Defaults   [2]float64   `json:"defaults"`
	AxisPoints [2][]float64 `json:"axis_points"`
	Bindings   []docBinding `json:"bindings"`
}

type docBinding struct {
	Node      uint32          `json:"node"`
	ParamName string          `json:"param_name"`
	Values    json.RawMessage `json:"values"`
}

// partMask records a part-declared mask relationship for inversion after
// the whole tree is flattened.
type partMask struct {
	part   int // arena index of the masked part
	source uint32
	mode   string
}

// maskTarget records a mask-declared target for resolution after the whole
// tree is flattened (targets may appear later in the document).
type maskTarget struct {
	mask   int // arena index of the mask node
	target uint32
}

type builder struct {
	nodes       []bunraku.Node
	uuids       map[uint32]int
	partMasks   []partMask
	maskTargets []maskTarget
}

func decodeDocument(payload []byte) (*bunraku.Puppet, error) {
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("inp: parse puppet document: %w", err)
	}

	b := &builder{uuids: make(map[uint32]int)}
	if _, err := b.flatten(&doc.Nodes, -1); err != nil {
		return nil, err
	}

	for _, mt := range b.maskTargets {
		target, ok := b.uuids[mt.target]
		if !ok {
			return nil, &bunraku.ValidationError{
				Kind:   bunraku.ErrDanglingReference,
				Detail: fmt.Sprintf("mask %q targets unknown node %d", b.nodes[mt.mask].Name, mt.target),
			}
		}
		b.nodes[mt.mask].MaskTargets = append(b.nodes[mt.mask].MaskTargets, target)
	}

	// Invert part-declared masks onto their source mask nodes.
	for _, pm := range b.partMasks {
		src, ok := b.uuids[pm.source]
		if !ok {
			return nil, &bunraku.ValidationError{
				Kind:   bunraku.ErrDanglingReference,
				Detail: fmt.Sprintf("part %q masked by unknown node %d", b.nodes[pm.part].Name, pm.source),
			}
		}
		b.nodes[src].MaskTargets = append(b.nodes[src].MaskTargets, pm.part)
		b.nodes[src].MaskMode = maskMode(pm.mode)
	}

	params := make([]bunraku.Parameter, 0, len(doc.Params))
	for i := range doc.Params {
		param, err := b.convertParam(&doc.Params[i])
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}

	puppet, err := bunraku.NewPuppet(b.nodes, params)
	if err != nil {
		return nil, err
	}
	puppet.Meta = bunraku.Meta{
		Name:      doc.Meta.Name,
		Version:   doc.Meta.Version,
		Artist:    doc.Meta.Artist,
		Rigger:    doc.Meta.Rigger,
		Copyright: doc.Meta.Copyright,
	}
	return puppet, nil
}

// flatten appends dn and its descendants to the arena and returns dn's
// arena index. SimplePhysics children attach settings to dn instead of
// becoming nodes.
func (b *builder) flatten(dn *docNode, parent int) (int, error) {
	nodeType, err := nodeType(dn.Type)
	if err != nil {
		return -1, err
	}

	idx := len(b.nodes)
	node := bunraku.Node{
		UUID:    dn.UUID,
		Name:    dn.Name,
		Type:    nodeType,
		Parent:  parent,
		ZSort:   dn.ZSort,
		ScaleX:  1,
		ScaleY:  1,
		Opacity: 1,
		Texture: -1,
	}
	if dn.Transform.Trans != nil {
		node.X = dn.Transform.Trans[0]
		node.Y = dn.Transform.Trans[1]
	}
	if dn.Transform.Rot != nil {
		node.Rotation = dn.Transform.Rot[2]
	}
	if dn.Transform.Scale != nil {
		node.ScaleX = dn.Transform.Scale[0]
		node.ScaleY = dn.Transform.Scale[1]
	}
	if dn.Opacity != nil {
		node.Opacity = *dn.Opacity
	}
	if len(dn.Textures) > 0 {
		node.Texture = dn.Textures[0]
	}
	if dn.Mesh != nil {
		mesh, err := convertMesh(dn.Name, dn.Mesh)
		if err != nil {
			return -1, err
		}
		node.Mesh = mesh
	}
	if nodeType == bunraku.NodeTypeMask {
		node.MaskMode = maskMode(dn.Mode)
	}

	b.nodes = append(b.nodes, node)
	b.uuids[dn.UUID] = idx

	for i := range dn.Children {
		child := &dn.Children[i]
		if child.Type == "SimplePhysics" {
			b.nodes[idx].Physics = &bunraku.PhysicsSettings{
				Length:    child.Length,
				Gravity:   child.Gravity,
				Damping:   child.AngleDamping,
				Stiffness: child.Frequency,
			}
			continue
		}
		childIdx, err := b.flatten(child, idx)
		if err != nil {
			return -1, err
		}
		b.nodes[idx].Children = append(b.nodes[idx].Children, childIdx)
	}

	// Mask relationships resolve after the whole tree exists.
	for _, m := range dn.Masks {
		b.partMasks = append(b.partMasks, partMask{part: idx, source: m.Source, mode: m.Mode})
	}
	for _, t := range dn.Targets {
		b.maskTargets = append(b.maskTargets, maskTarget{mask: idx, target: t})
	}

	return idx, nil
}

func nodeType(s string) (bunraku.NodeType, error) {
	switch s {
	case "Node", "Composite":
		return bunraku.NodeTypeComposite, nil
	case "Part":
		return bunraku.NodeTypePart, nil
	case "Mask":
		return bunraku.NodeTypeMask, nil
	}
	return 0, &bunraku.ValidationError{
		Kind:   bunraku.ErrUnknownNodeVariant,
		Detail: fmt.Sprintf("node type %q", s),
	}
}

func maskMode(s string) bunraku.MaskMode {
	if s == "DodgeMask" {
		return bunraku.MaskInvert
	}
	return bunraku.MaskAlpha
}

func convertMesh(name string, dm *docMesh) (bunraku.Mesh, error) {
	if len(dm.Verts)%2 != 0 {
		return bunraku.Mesh{}, fmt.Errorf("inp: node %q mesh has odd vertex float count %d", name, len(dm.Verts))
	}
	if len(dm.UVs) != len(dm.Verts) {
		return bunraku.Mesh{}, fmt.Errorf("inp: node %q mesh has %d uv floats, want %d", name, len(dm.UVs), len(dm.Verts))
	}
	mesh := bunraku.Mesh{
		Vertices: pairs(dm.Verts),
		UVs:      pairs(dm.UVs),
		Indices:  append([]uint16(nil), dm.Indices...),
	}
	if dm.Origin != nil {
		mesh.Origin = bunraku.Vec2{X: dm.Origin[0], Y: dm.Origin[1]}
	}
	return mesh, nil
}

func pairs(flat []float64) []bunraku.Vec2 {
	out := make([]bunraku.Vec2, len(flat)/2)
	for i := range out {
		out[i] = bunraku.Vec2{X: flat[2*i], Y: flat[2*i+1]}
	}
	return out
}

// convertParam maps a document parameter and its bindings onto the core
// model. Scalar sub-axis bindings (transform.t.x and friends) fold into the
// core's vector-valued properties; binding names the runtime does not drive
// (zSort among them) are skipped for forward compatibility.
func (b *builder) convertParam(dp *docParam) (bunraku.Parameter, error) {
	param := bunraku.Parameter{
		UUID:     dp.UUID,
		Name:     dp.Name,
		IsVec2:   dp.IsVec2,
		Min:      bunraku.Vec2{X: dp.Min[0], Y: dp.Min[1]},
		Max:      bunraku.Vec2{X: dp.Max[0], Y: dp.Max[1]},
		Defaults: bunraku.Vec2{X: dp.Defaults[0], Y: dp.Defaults[1]},
	}
	param.AxisPoints[0] = append([]float64(nil), dp.AxisPoints[0]...)
	param.AxisPoints[1] = append([]float64(nil), dp.AxisPoints[1]...)
	if len(param.AxisPoints[0]) == 0 {
		param.AxisPoints[0] = []float64{0}
	}
	if len(param.AxisPoints[1]) == 0 {
		param.AxisPoints[1] = []float64{0}
	}

	for i := range dp.Bindings {
		db := &dp.Bindings[i]
		node, ok := b.uuids[db.Node]
		if !ok {
			node = -1 // rejected by puppet validation as a dangling reference
		}
		binding, ok, err := convertBinding(db, node, dp.Name)
		if err != nil {
			return bunraku.Parameter{}, err
		}
		if ok {
			param.Bindings = append(param.Bindings, binding)
		}
	}
	return param, nil
}

func convertBinding(db *docBinding, node int, paramName string) (bunraku.Binding, bool, error) {
	binding := bunraku.Binding{Node: node}

	var axis int // which component of a vector property this sub-axis drives
	switch db.ParamName {
	case "deform":
		binding.Property = bunraku.BindVertexDeform
	case "transform.t.x":
		binding.Property = bunraku.BindTranslation
	case "transform.t.y":
		binding.Property = bunraku.BindTranslation
		axis = 1
	case "transform.r.z":
		binding.Property = bunraku.BindRotation
	case "transform.s.x":
		binding.Property = bunraku.BindScale
	case "transform.s.y":
		binding.Property = bunraku.BindScale
		axis = 1
	case "opacity":
		binding.Property = bunraku.BindOpacity
	default:
		return bunraku.Binding{}, false, nil
	}

	if binding.Property == bunraku.BindVertexDeform {
		var grid [][][][2]float64 // [x][y][vertex][2]
		if err := json.Unmarshal(db.Values, &grid); err != nil {
			return bunraku.Binding{}, false, fmt.Errorf("inp: parameter %q deform binding values: %w", paramName, err)
		}
		binding.Values = make([][]bunraku.BindingValue, len(grid))
		for x := range grid {
			binding.Values[x] = make([]bunraku.BindingValue, len(grid[x]))
			for y := range grid[x] {
				deform := make([]bunraku.Vec2, len(grid[x][y]))
				for v := range grid[x][y] {
					deform[v] = bunraku.Vec2{X: grid[x][y][v][0], Y: grid[x][y][v][1]}
				}
				binding.Values[x][y].Deform = deform
			}
		}
		return binding, true, nil
	}

	var grid [][]float64 // [x][y]
	if err := json.Unmarshal(db.Values, &grid); err != nil {
		return bunraku.Binding{}, false, fmt.Errorf("inp: parameter %q binding %q values: %w", paramName, db.ParamName, err)
	}
	binding.Values = make([][]bunraku.BindingValue, len(grid))
	for x := range grid {
		binding.Values[x] = make([]bunraku.BindingValue, len(grid[x]))
		for y := range grid[x] {
			cell := &binding.Values[x][y]
			switch binding.Property {
			case bunraku.BindTranslation, bunraku.BindScale:
				if axis == 0 {
					cell.Vec.X = grid[x][y]
				} else {
					cell.Vec.Y = grid[x][y]
				}
			default:
				cell.Scalar = grid[x][y]
			}
		}
	}
	return binding, true, nil
}
