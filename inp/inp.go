// Package inp loads rigged puppets from the .inp container format.
//
// A .inp file is a magic header, a length-prefixed JSON puppet document,
// and a texture section of length-prefixed compressed images:
//
//	"TRNSRTS\0"  u32 length  <JSON payload>
//	"TEX_SECT"   u32 count   count × (u32 length, u8 format, <bytes>)
//
// All integers are big-endian. Unknown trailing sections are ignored for
// forward compatibility. The JSON document is decoded into a validated
// bunraku.Puppet; texture blobs are returned undecoded, image decoding is
// the renderer's concern.
package inp

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/phanxgames/bunraku"
)

var (
	magicPuppet   = []byte("TRNSRTS\x00")
	magicTextures = []byte("TEX_SECT")
)

// TextureFormat identifies a texture blob's compression.
type TextureFormat uint8

const (
	TexturePNG TextureFormat = 0
	TextureTGA TextureFormat = 1
	TextureBC7 TextureFormat = 2
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TexturePNG:
		return "png"
	case TextureTGA:
		return "tga"
	case TextureBC7:
		return "bc7"
	}
	return "unknown"
}

// Texture is one undecoded texture blob from the container's TEX_SECT.
type Texture struct {
	Format TextureFormat
	Data   []byte
}

// Model is a fully loaded .inp file: the validated puppet plus its textures.
// Part nodes reference textures by index into Textures.
type Model struct {
	Puppet   *bunraku.Puppet
	Textures []Texture
}

// LoadFile reads and parses a .inp file from disk.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inp: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a .inp container from r and constructs the Model. Any
// structural inconsistency in the puppet document rejects the whole model;
// a partially constructed puppet is never returned.
func Parse(r io.Reader) (*Model, error) {
	if err := expectMagic(r, magicPuppet); err != nil {
		return nil, err
	}

	payload, err := readBlock(r)
	if err != nil {
		return nil, fmt.Errorf("inp: puppet payload: %w", err)
	}
	puppet, err := decodeDocument(payload)
	if err != nil {
		return nil, err
	}

	if err := expectMagic(r, magicTextures); err != nil {
		return nil, err
	}
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("inp: texture count: %w", err)
	}

	textures := make([]Texture, 0, count)
	for i := uint32(0); i < count; i++ {
		length, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("inp: texture %d length: %w", i, err)
		}
		var format [1]byte
		if _, err := io.ReadFull(r, format[:]); err != nil {
			return nil, fmt.Errorf("inp: texture %d format: %w", i, err)
		}
		if format[0] > uint8(TextureBC7) {
			return nil, fmt.Errorf("inp: texture %d has unknown format %d", i, format[0])
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("inp: texture %d data: %w", i, err)
		}
		textures = append(textures, Texture{Format: TextureFormat(format[0]), Data: data})
	}

	return &Model{Puppet: puppet, Textures: textures}, nil
}

func expectMagic(r io.Reader, want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return fmt.Errorf("inp: reading %q header: %w", want, err)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("inp: bad section magic %q, want %q", got, want)
		}
	}
	return nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readBlock(r io.Reader) ([]byte, error) {
	length, err := readU32(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
