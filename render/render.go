// Package render draws bunraku frame output with Ebitengine.
//
// The core runtime has no graphics dependency; this package is the bridge.
// It consumes FrameResult verbatim: one DrawTriangles call per part, with
// mask groups composited through an offscreen buffer so the mask's alpha
// clips its targets.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/bunraku"
	"github.com/phanxgames/bunraku/inp"
)

// Renderer draws FrameResults onto an ebiten image. Not safe for concurrent
// use; create one per puppet and call Draw from the game's Draw callback.
type Renderer struct {
	textures []*ebiten.Image
	white    *ebiten.Image

	// Offscreen buffer for mask groups, grown on demand.
	buffer *ebiten.Image

	verts []ebiten.Vertex
}

// New creates a Renderer over the given decoded textures. Part texture
// indices in the frame output index into this slice; out-of-range indices
// fall back to a 1×1 white pixel so untextured parts still show up.
func New(textures []*ebiten.Image) *Renderer {
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	return &Renderer{textures: textures, white: white}
}

// NewFromModel decodes a loaded model's PNG textures and builds a Renderer.
// TGA and BC7 textures are not supported by this backend.
func NewFromModel(m *inp.Model) (*Renderer, error) {
	textures := make([]*ebiten.Image, len(m.Textures))
	for i, tex := range m.Textures {
		if tex.Format != inp.TexturePNG {
			return nil, fmt.Errorf("render: texture %d has unsupported format %s", i, tex.Format)
		}
		img, _, err := image.Decode(bytes.NewReader(tex.Data))
		if err != nil {
			return nil, fmt.Errorf("render: decode texture %d: %w", i, err)
		}
		textures[i] = ebiten.NewImageFromImage(img)
	}
	return New(textures), nil
}

// Draw composites one frame onto dst in the frame's resolved order.
func (r *Renderer) Draw(dst *ebiten.Image, frame bunraku.FrameResult) {
	for gi := range frame.Groups {
		g := &frame.Groups[gi]
		if g.Mask == nil {
			for pi := range g.Parts {
				r.drawMesh(dst, &g.Parts[pi], ebiten.BlendSourceOver)
			}
			continue
		}
		r.drawMaskGroup(dst, g)
	}
}

// drawMaskGroup renders the group's parts into an offscreen buffer, clips
// the buffer by the mask mesh's alpha, and composites the result onto dst.
func (r *Renderer) drawMaskGroup(dst *ebiten.Image, g *bunraku.RenderGroup) {
	buf := r.ensureBuffer(dst.Bounds().Dx(), dst.Bounds().Dy())
	buf.Clear()

	for pi := range g.Parts {
		r.drawMesh(buf, &g.Parts[pi], ebiten.BlendSourceOver)
	}

	clip := ebiten.BlendDestinationIn
	if g.MaskMode == bunraku.MaskInvert {
		clip = ebiten.BlendDestinationOut
	}
	r.drawMesh(buf, g.Mask, clip)

	var op ebiten.DrawImageOptions
	dst.DrawImage(buf, &op)
}

func (r *Renderer) ensureBuffer(w, h int) *ebiten.Image {
	if r.buffer != nil {
		b := r.buffer.Bounds()
		if b.Dx() >= w && b.Dy() >= h {
			return r.buffer
		}
		r.buffer.Deallocate()
	}
	r.buffer = ebiten.NewImage(w, h)
	return r.buffer
}

// drawMesh issues one DrawTriangles call for a part's world-space mesh.
func (r *Renderer) drawMesh(dst *ebiten.Image, mesh *bunraku.RenderMesh, blend ebiten.Blend) {
	img := r.white
	if mesh.Texture >= 0 && mesh.Texture < len(r.textures) && r.textures[mesh.Texture] != nil {
		img = r.textures[mesh.Texture]
	}
	tw := float32(img.Bounds().Dx())
	th := float32(img.Bounds().Dy())
	alpha := float32(mesh.Opacity)

	r.verts = meshVertices(r.verts[:0], mesh, tw, th, alpha)

	op := &ebiten.DrawTrianglesOptions{}
	op.Blend = blend
	dst.DrawTriangles(r.verts, mesh.Indices, img, op)
}

// meshVertices converts a RenderMesh to ebiten vertices, scaling normalized
// UVs to texel coordinates and premultiplying the part's opacity into the
// vertex color.
func meshVertices(dst []ebiten.Vertex, mesh *bunraku.RenderMesh, texW, texH, alpha float32) []ebiten.Vertex {
	for i := range mesh.Positions {
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(mesh.Positions[i].X),
			DstY:   float32(mesh.Positions[i].Y),
			SrcX:   float32(mesh.UVs[i].X) * texW,
			SrcY:   float32(mesh.UVs[i].Y) * texH,
			ColorR: alpha,
			ColorG: alpha,
			ColorB: alpha,
			ColorA: alpha,
		})
	}
	return dst
}
