package bunraku

// NodeType is the closed discriminant selecting a node's variant. Traversal
// and deformation logic switch on it; there is no open registry of node
// behaviors.
type NodeType uint8

const (
	// NodeTypePart is a textured mesh drawn during compositing.
	NodeTypePart NodeType = iota
	// NodeTypeComposite groups children; it has no geometry of its own.
	NodeTypeComposite
	// NodeTypeMask is a clip source: its mesh alpha restricts the parts
	// listed in MaskTargets.
	NodeTypeMask

	nodeTypeCount // sentinel for variant validation
)

// String returns the node type name as it appears in puppet documents.
func (t NodeType) String() string {
	switch t {
	case NodeTypePart:
		return "Part"
	case NodeTypeComposite:
		return "Composite"
	case NodeTypeMask:
		return "Mask"
	}
	return "Unknown"
}

// MaskMode selects how a mask's alpha is applied to its targets.
type MaskMode uint8

const (
	// MaskAlpha keeps target pixels where the mask has coverage.
	MaskAlpha MaskMode = iota
	// MaskInvert keeps target pixels where the mask has no coverage
	// (the original format calls this a dodge mask).
	MaskInvert
)

// Node is one entry in the puppet's scene graph. A single flat struct is
// used for all variants to avoid interface dispatch on the hot path; fields
// that only apply to one variant are documented as such.
//
// Nodes live in the Puppet's arena and reference each other by index.
// The structure is immutable after NewPuppet: there is deliberately no API
// for attaching or detaching nodes at runtime.
type Node struct {
	// Identity
	UUID uint32
	Name string
	Type NodeType

	// Hierarchy (arena indices). Parent is -1 for the root. Children is
	// ordered and defines authoring order for draw-order tie-breaking.
	Parent   int
	Children []int

	// Local transform, composed translation ∘ rotation ∘ scale.
	X, Y     float64
	Rotation float64 // radians
	ScaleX   float64
	ScaleY   float64

	// Opacity in [0, 1], multiplied down the tree like the transform.
	Opacity float64

	// ZSort is the draw-order key. The effective key is the sum of ZSort
	// along the ancestor chain, so moving a branch forward moves all of it.
	ZSort float64

	// Part/Mask fields
	Mesh    Mesh
	Texture int // albedo texture slot (Part only; loader-assigned)

	// Mask fields
	MaskMode    MaskMode
	MaskTargets []int // arena indices of the parts this mask clips

	// Physics, nil unless this node carries secondary motion.
	Physics *PhysicsSettings

	// Computed during Update; world-space transform and accumulated opacity.
	worldTransform [6]float64
	worldOpacity   float64
}

// WorldTransform returns the node's world-space affine transform as computed
// by the most recent Update. Layout: [a, b, c, d, tx, ty].
func (n *Node) WorldTransform() [6]float64 {
	return n.worldTransform
}

// WorldOpacity returns the node's opacity with all ancestor opacities
// multiplied in, as computed by the most recent Update.
func (n *Node) WorldOpacity() float64 {
	return n.worldOpacity
}

// HasMesh reports whether the node variant carries geometry.
func (n *Node) HasMesh() bool {
	return (n.Type == NodeTypePart || n.Type == NodeTypeMask) && len(n.Mesh.Vertices) > 0
}
