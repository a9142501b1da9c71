// Package material resolves SOD lighting groups to renderer materials.
package material

import "strings"

// Shader families known to the renderer.
const (
	ShaderLit      = "lit"
	ShaderUnlit    = "unlit"
	ShaderFlipbook = "flipbook"
)

// DefaultMaterial is used when a group has no material or names one the
// registry does not know.
const DefaultMaterial = "stdhull"

// SkipMaterial names the invisible slot left by an unmatched baked lightmap.
const SkipMaterial = "lightmap_skip"

// BlendMode is the output blending of a material.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAdditive
)

// String returns the blend mode name.
func (b BlendMode) String() string {
	switch b {
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	default:
		return "opaque"
	}
}

// Variant holds the render-state switches that distinguish material keys.
type Variant struct {
	Transparent     bool
	Additive        bool
	BackfaceCulling bool
}

// Opaque is the default variant: no blending, back faces culled.
var Opaque = Variant{BackfaceCulling: true}

// Key appends the variant suffixes to a base material name.
func (v Variant) Key(name string) string {
	var b strings.Builder
	b.WriteString(name)
	if v.Transparent {
		b.WriteString("_alpha")
	}
	if v.Additive {
		b.WriteString("_additive")
	}
	if !v.BackfaceCulling {
		b.WriteString("_culloff")
	}
	return b.String()
}

// Material is a shared renderer material handle.
type Material struct {
	Name   string // Registry key
	Base   string // Name the variant was derived from
	Shader string

	Transparent     bool
	Additive        bool
	BackfaceCulling bool
}

// Blend returns the blend mode. Additive wins over alpha.
func (m *Material) Blend() BlendMode {
	switch {
	case m.Additive:
		return BlendAdditive
	case m.Transparent:
		return BlendAlpha
	default:
		return BlendOpaque
	}
}

// Variant returns the render-state switches of the material.
func (m *Material) Variant() Variant {
	return Variant{
		Transparent:     m.Transparent,
		Additive:        m.Additive,
		BackfaceCulling: m.BackfaceCulling,
	}
}

func newMaterial(name, base, shader string, v Variant) *Material {
	return &Material{
		Name:            name,
		Base:            base,
		Shader:          shader,
		Transparent:     v.Transparent,
		Additive:        v.Additive,
		BackfaceCulling: v.BackfaceCulling,
	}
}
