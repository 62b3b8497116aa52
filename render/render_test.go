package render

import (
	"testing"

	"github.com/phanxgames/bunraku"
)

func TestMeshVertices(t *testing.T) {
	mesh := &bunraku.RenderMesh{
		Positions: []bunraku.Vec2{{X: 1, Y: 2}, {X: 3, Y: 4}},
		UVs:       []bunraku.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0.5}},
		Indices:   []uint16{0, 1, 0},
	}
	verts := meshVertices(nil, mesh, 64, 32, 0.5)
	if len(verts) != 2 {
		t.Fatalf("vertex count = %d, want 2", len(verts))
	}
	if verts[0].DstX != 1 || verts[0].DstY != 2 {
		t.Errorf("vertex 0 dst = (%v, %v)", verts[0].DstX, verts[0].DstY)
	}
	// UVs scale to texel coordinates.
	if verts[1].SrcX != 64 || verts[1].SrcY != 16 {
		t.Errorf("vertex 1 src = (%v, %v), want (64, 16)", verts[1].SrcX, verts[1].SrcY)
	}
	// Opacity premultiplies into every color channel.
	v := verts[0]
	if v.ColorR != 0.5 || v.ColorG != 0.5 || v.ColorB != 0.5 || v.ColorA != 0.5 {
		t.Errorf("vertex color = (%v, %v, %v, %v), want all 0.5", v.ColorR, v.ColorG, v.ColorB, v.ColorA)
	}
}

func TestMeshVerticesReusesBuffer(t *testing.T) {
	mesh := &bunraku.RenderMesh{
		Positions: []bunraku.Vec2{{X: 1, Y: 1}},
		UVs:       []bunraku.Vec2{{X: 0, Y: 0}},
	}
	buf := meshVertices(nil, mesh, 1, 1, 1)
	again := meshVertices(buf[:0], mesh, 1, 1, 1)
	if &buf[0] != &again[0] {
		t.Error("buffer was reallocated despite sufficient capacity")
	}
}
