package inp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/phanxgames/bunraku"
)

// container assembles a .inp byte stream from a JSON document and textures.
func container(doc string, textures ...Texture) []byte {
	var buf bytes.Buffer
	buf.Write(magicPuppet)
	binary.Write(&buf, binary.BigEndian, uint32(len(doc)))
	buf.WriteString(doc)
	buf.Write(magicTextures)
	binary.Write(&buf, binary.BigEndian, uint32(len(textures)))
	for _, tex := range textures {
		binary.Write(&buf, binary.BigEndian, uint32(len(tex.Data)))
		buf.WriteByte(byte(tex.Format))
		buf.Write(tex.Data)
	}
	return buf.Bytes()
}

const quadMeshJSON = `{
	"verts": [0,0, 10,0, 0,10, 10,10],
	"uvs": [0,0, 1,0, 0,1, 1,1],
	"indices": [0,1,2, 2,1,3]
}`

func partMesh(t *testing.T, p *bunraku.Puppet, name string) *bunraku.RenderMesh {
	t.Helper()
	frame := p.Update(0)
	for gi := range frame.Groups {
		g := &frame.Groups[gi]
		if g.Mask != nil && g.Mask.Name == name {
			return g.Mask
		}
		for pi := range g.Parts {
			if g.Parts[pi].Name == name {
				return &g.Parts[pi]
			}
		}
	}
	t.Fatalf("part %q not in frame output", name)
	return nil
}

func TestParseFullDocument(t *testing.T) {
	doc := `{
		"meta": {"name": "Aka", "version": "1.0", "artist": "rin", "rigger": "rio", "copyright": "rin 2024"},
		"nodes": {
			"uuid": 1, "name": "root", "type": "Node",
			"children": [
				{"uuid": 2, "name": "eye", "type": "Part", "zsort": 1,
				 "transform": {"trans": [3, 4, 0]},
				 "textures": [0], "mesh": ` + quadMeshJSON + `},
				{"uuid": 3, "name": "clip", "type": "Mask", "zsort": 0,
				 "targets": [2], "mode": "DodgeMask",
				 "mesh": ` + quadMeshJSON + `},
				{"uuid": 4, "name": "tail", "type": "Part", "zsort": 2,
				 "mesh": ` + quadMeshJSON + `,
				 "children": [
					{"uuid": 5, "name": "tail-phys", "type": "SimplePhysics",
					 "length": 12, "gravity": 1, "angle_damping": 0.4, "frequency": 3}
				 ]}
			]
		},
		"param": [
			{"uuid": 10, "name": "Slide", "is_vec2": false,
			 "min": [0, 0], "max": [1, 0], "defaults": [0, 0],
			 "axis_points": [[0, 1], []],
			 "bindings": [
				{"node": 2, "param_name": "transform.t.x", "values": [[0], [25]]},
				{"node": 2, "param_name": "deform",
				 "values": [[[[0,0],[0,0],[0,0],[0,0]]], [[[0,-5],[0,0],[0,0],[0,0]]]]},
				{"node": 2, "param_name": "zSort", "values": [[0], [1]]}
			 ]}
		]
	}`
	model, err := Parse(bytes.NewReader(container(doc,
		Texture{Format: TexturePNG, Data: []byte("png-bytes")},
		Texture{Format: TextureTGA, Data: []byte("tga-bytes")},
	)))
	if err != nil {
		t.Fatal(err)
	}
	p := model.Puppet

	if p.Meta.Name != "Aka" || p.Meta.Rigger != "rio" {
		t.Errorf("meta = %+v", p.Meta)
	}
	// SimplePhysics attaches to its parent instead of becoming a node.
	if p.NodeCount() != 4 {
		t.Errorf("node count = %d, want 4", p.NodeCount())
	}
	tailIdx := p.FindNode(4)
	if tailIdx < 0 {
		t.Fatal("tail node missing")
	}
	tail := p.Node(tailIdx)
	if tail.Physics == nil {
		t.Fatal("tail lost its physics settings")
	}
	if tail.Physics.Length != 12 || tail.Physics.Damping != 0.4 || tail.Physics.Stiffness != 3 {
		t.Errorf("physics settings = %+v", *tail.Physics)
	}

	clip := p.Node(p.FindNode(3))
	if clip.Type != bunraku.NodeTypeMask || clip.MaskMode != bunraku.MaskInvert {
		t.Errorf("mask node = type %v mode %v", clip.Type, clip.MaskMode)
	}
	if len(clip.MaskTargets) != 1 {
		t.Fatalf("mask targets = %v", clip.MaskTargets)
	}

	param := p.Parameter("Slide")
	if param == nil {
		t.Fatal("parameter Slide missing")
	}
	// zSort is not a runtime-driven binding and drops out.
	if len(param.Bindings) != 2 {
		t.Errorf("binding count = %d, want 2", len(param.Bindings))
	}

	if err := p.SetParameter("Slide", 1); err != nil {
		t.Fatal(err)
	}
	eye := partMesh(t, p, "eye")
	// trans (3,4) + binding translation 25 + deform (0,-5) on vertex 0.
	if eye.Positions[0].X != 28 || eye.Positions[0].Y != -1 {
		t.Errorf("eye vertex 0 = %v", eye.Positions[0])
	}
	if eye.Texture != 0 {
		t.Errorf("eye texture = %d, want 0", eye.Texture)
	}

	if len(model.Textures) != 2 {
		t.Fatalf("texture count = %d", len(model.Textures))
	}
	if model.Textures[0].Format != TexturePNG || string(model.Textures[0].Data) != "png-bytes" {
		t.Errorf("texture 0 = %v %q", model.Textures[0].Format, model.Textures[0].Data)
	}
	if model.Textures[1].Format != TextureTGA || string(model.Textures[1].Data) != "tga-bytes" {
		t.Errorf("texture 1 = %v %q", model.Textures[1].Format, model.Textures[1].Data)
	}
}

// Part-declared masks invert onto the source mask node.
func TestParsePartDeclaredMasks(t *testing.T) {
	doc := `{
		"nodes": {
			"uuid": 1, "name": "root", "type": "Node",
			"children": [
				{"uuid": 2, "name": "eye", "type": "Part",
				 "mesh": ` + quadMeshJSON + `,
				 "masks": [{"source": 3, "mode": "DodgeMask"}]},
				{"uuid": 3, "name": "clip", "type": "Mask",
				 "mesh": ` + quadMeshJSON + `}
			]
		}
	}`
	model, err := Parse(bytes.NewReader(container(doc)))
	if err != nil {
		t.Fatal(err)
	}
	clip := model.Puppet.Node(model.Puppet.FindNode(3))
	if len(clip.MaskTargets) != 1 {
		t.Fatalf("mask targets = %v", clip.MaskTargets)
	}
	if clip.MaskMode != bunraku.MaskInvert {
		t.Errorf("mask mode = %v, want invert", clip.MaskMode)
	}
}

// Fields this runtime does not know about must not break loading.
func TestParseIgnoresUnknownFields(t *testing.T) {
	doc := `{
		"meta": {"name": "m", "thumbnail_id": 99},
		"automation": [{"name": "breath"}],
		"nodes": {
			"uuid": 1, "name": "root", "type": "Node", "lockToRoot": true,
			"children": [
				{"uuid": 2, "name": "p", "type": "Part", "blend_mode": "Multiply",
				 "mesh": ` + quadMeshJSON + `}
			]
		}
	}`
	if _, err := Parse(bytes.NewReader(container(doc))); err != nil {
		t.Fatal(err)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := container(`{"nodes": {"uuid": 1, "name": "r", "type": "Part", "mesh": ` + quadMeshJSON + `}}`)
	data[0] = 'X'
	if _, err := Parse(bytes.NewReader(data)); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Errorf("bad magic error = %v", err)
	}
}

func TestParseTruncated(t *testing.T) {
	data := container(`{"nodes": {"uuid": 1, "name": "r", "type": "Part", "mesh": ` + quadMeshJSON + `}}`)
	if _, err := Parse(bytes.NewReader(data[:len(data)-6])); err == nil {
		t.Error("truncated container parsed without error")
	}
}

func TestParseUnknownTextureFormat(t *testing.T) {
	doc := `{"nodes": {"uuid": 1, "name": "r", "type": "Part", "mesh": ` + quadMeshJSON + `}}`
	data := container(doc, Texture{Format: TextureFormat(7), Data: []byte("x")})
	if _, err := Parse(bytes.NewReader(data)); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestParseUnknownNodeVariant(t *testing.T) {
	doc := `{"nodes": {"uuid": 1, "name": "r", "type": "MeshGroup"}}`
	_, err := Parse(bytes.NewReader(container(doc)))
	var verr *bunraku.ValidationError
	if !errors.As(err, &verr) || verr.Kind != bunraku.ErrUnknownNodeVariant {
		t.Errorf("error = %v, want unknown node variant", err)
	}
}

func TestParseDanglingMaskTarget(t *testing.T) {
	doc := `{
		"nodes": {
			"uuid": 1, "name": "root", "type": "Node",
			"children": [
				{"uuid": 3, "name": "clip", "type": "Mask", "targets": [42],
				 "mesh": ` + quadMeshJSON + `}
			]
		}
	}`
	_, err := Parse(bytes.NewReader(container(doc)))
	var verr *bunraku.ValidationError
	if !errors.As(err, &verr) || verr.Kind != bunraku.ErrDanglingReference {
		t.Errorf("error = %v, want dangling reference", err)
	}
}

// A structurally broken document never yields a partial model.
func TestParseRejectsInvalidPuppet(t *testing.T) {
	doc := `{
		"nodes": {
			"uuid": 1, "name": "root", "type": "Node",
			"children": [
				{"uuid": 2, "name": "bad", "type": "Part",
				 "mesh": {"verts": [0,0,1], "uvs": [0,0,1], "indices": []}}
			]
		}
	}`
	model, err := Parse(bytes.NewReader(container(doc)))
	if err == nil {
		t.Fatal("odd vertex float count accepted")
	}
	if model != nil {
		t.Error("partial model returned alongside error")
	}
}
