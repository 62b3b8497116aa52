package bunraku

import "log"

// Vec2 is a 2D vector used for positions, displacements, UV coordinates,
// and two-axis parameter values throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns the component-wise sum v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns the component-wise difference v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Mesh is the immutable base geometry owned by a Part (or Mask) node.
// Vertices and UVs run in lockstep; Indices is a triangle list into them.
// Origin is subtracted from every base vertex when composing local-space
// positions, so authoring tools can keep vertices centered on the texture.
type Mesh struct {
	Vertices []Vec2
	UVs      []Vec2
	Indices  []uint16
	Origin   Vec2
}

// VertexCount returns the number of base vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// globalDebug gates diagnostic logging from the evaluation pipeline
// (currently physics divergence resets). Plain bool, no atomic; puppet
// evaluation is single-threaded.
var globalDebug bool

// SetDebugMode enables or disables debug diagnostics. When enabled,
// recoverable anomalies such as physics divergence resets are logged
// to the standard logger.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

func debugf(format string, args ...any) {
	if globalDebug {
		log.Printf(format, args...)
	}
}
