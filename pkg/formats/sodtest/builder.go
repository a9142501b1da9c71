// Package sodtest serialises SOD documents for tests.
package sodtest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/storm3d/pkg/formats"
)

// Material is a material record to serialise.
type Material struct {
	Name             string
	Ambient          [3]float32
	Diffuse          [3]float32
	Specular         [3]float32
	SpecularPower    float32
	LightingModel    uint8
	SelfIllumination bool
}

// Group is a lighting group; each face is v0,uv0,v1,uv1,v2,uv2.
type Group struct {
	Material string
	Faces    [][6]uint16
}

// Mesh is a mesh payload to serialise.
type Mesh struct {
	Surface          string
	Texture          string
	BumpMode         uint32
	BumpTexture      string
	SecondaryTexture string
	Vertices         [][3]float32
	UVs              [][2]float32
	Groups           []Group
	Cull             uint8
}

// Animation is a texture-animation trailer entry.
type Animation struct {
	Type           uint8
	Node           string
	Animation      string
	PlaybackOffset float32
}

// Builder writes a SOD byte stream field by field.
type Builder struct {
	buf      bytes.Buffer
	features formats.SODFeatures
}

// New starts a document with a valid magic and the given version.
func New(version float32) *Builder {
	b := &Builder{features: formats.FeaturesForVersion(version)}
	b.buf.WriteString(formats.SODMagic)
	return b.F32(version)
}

// NewWithFeatures starts an empty stream that lays out node payloads using
// the given feature flags. No header is written.
func NewWithFeatures(features formats.SODFeatures) *Builder {
	return &Builder{features: features}
}

// Bytes returns the serialised document.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Raw appends raw bytes.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// U8 appends a byte.
func (b *Builder) U8(v uint8) *Builder {
	b.buf.WriteByte(v)
	return b
}

// U16 appends a little-endian u16.
func (b *Builder) U16(v uint16) *Builder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

// U32 appends a little-endian u32.
func (b *Builder) U32(v uint32) *Builder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

// F32 appends a little-endian float32.
func (b *Builder) F32(v float32) *Builder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

// Ident appends a u16 length-prefixed identifier.
func (b *Builder) Ident(s string) *Builder {
	b.U16(uint16(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *Builder) vec3(v [3]float32) *Builder {
	return b.F32(v[0]).F32(v[1]).F32(v[2])
}

// Materials appends the material table.
func (b *Builder) Materials(ms ...Material) *Builder {
	b.U16(uint16(len(ms)))
	for _, m := range ms {
		b.Ident(m.Name)
		b.vec3(m.Ambient).vec3(m.Diffuse).vec3(m.Specular)
		b.F32(m.SpecularPower)
		b.U8(m.LightingModel)
		if b.features.HasSelfIllumination {
			var flag uint8
			if m.SelfIllumination {
				flag = 1
			}
			b.U8(flag)
		}
	}
	return b
}

// NodeCount appends the node table count.
func (b *Builder) NodeCount(n int) *Builder {
	return b.U16(uint16(n))
}

func (b *Builder) nodeHeader(t formats.SODNodeType, name, parent string, transform [12]float32) *Builder {
	b.U16(uint16(t)).Ident(name).Ident(parent)
	for _, v := range transform {
		b.F32(v)
	}
	return b
}

// Hardpoint appends a transform-only node.
func (b *Builder) Hardpoint(name, parent string, transform [12]float32) *Builder {
	return b.nodeHeader(formats.SODNodeHardpoint, name, parent, transform)
}

// EffectAttachment appends an effect attachment node.
func (b *Builder) EffectAttachment(name, parent string, transform [12]float32) *Builder {
	return b.nodeHeader(formats.SODNodeEffectAttachment, name, parent, transform)
}

// Emitter appends an emitter node.
func (b *Builder) Emitter(name, parent, emitter string, transform [12]float32) *Builder {
	return b.nodeHeader(formats.SODNodeEmitter, name, parent, transform).Ident(emitter)
}

// Node appends a node header of an arbitrary type with no payload.
func (b *Builder) Node(t formats.SODNodeType, name, parent string, transform [12]float32) *Builder {
	return b.nodeHeader(t, name, parent, transform)
}

// Mesh appends a mesh node using the builder's feature flags.
func (b *Builder) Mesh(name, parent string, transform [12]float32, m Mesh) *Builder {
	b.nodeHeader(formats.SODNodeMesh, name, parent, transform)
	b.Ident(m.Surface)
	if b.features.HasBumpFields {
		b.U32(0).U32(m.BumpMode)
	}
	b.Ident(m.Texture)
	if b.features.HasLegacyTexturePad {
		b.U16(0)
	}
	if b.features.HasBumpFields {
		b.U16(0).U16(0)
		if m.BumpMode == 2 {
			b.Ident(m.BumpTexture).U16(0).U16(0)
		}
		b.Ident(m.SecondaryTexture).U16(0)
	}

	b.U16(uint16(len(m.Vertices))).U16(uint16(len(m.UVs))).U16(uint16(len(m.Groups)))
	for _, v := range m.Vertices {
		b.vec3(v)
	}
	for _, uv := range m.UVs {
		b.F32(uv[0]).F32(uv[1])
	}
	for _, g := range m.Groups {
		b.U16(uint16(len(g.Faces))).Ident(g.Material)
		for _, f := range g.Faces {
			for _, idx := range f {
				b.U16(idx)
			}
		}
	}
	return b.U8(m.Cull).U16(0)
}

// Animations appends the texture-animation trailer.
func (b *Builder) Animations(as ...Animation) *Builder {
	b.U16(uint16(len(as)))
	for _, a := range as {
		b.U8(a.Type).Ident(a.Node).Ident(a.Animation).F32(a.PlaybackOffset)
	}
	return b
}

// Identity returns an identity transform in file layout.
func Identity() [12]float32 {
	return [12]float32{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}
}

// Translation returns a translation-only transform in file layout.
func Translation(x, y, z float32) [12]float32 {
	t := Identity()
	t[9], t[10], t[11] = x, y, z
	return t
}
