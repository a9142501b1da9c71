package material

import (
	"github.com/Faultbox/storm3d/pkg/formats"
)

// LightmapThreshold is the ambient channel value above which a document
// material is treated as a baked lightmap.
const LightmapThreshold = 0.5

// IsBakedLightmap classifies a document material by its ambient color.
func IsBakedLightmap(ambient formats.SODColor) bool {
	return ambient.MaxComponent() > LightmapThreshold
}

// MaterialTable is the read side of a parsed document's material table.
type MaterialTable interface {
	GetMaterial(name string) (formats.SODMaterial, bool)
}

// GroupResolution is the resolved material for one lighting group.
type GroupResolution struct {
	Material string
	Skip     bool // Emit an empty slot

	Lightmap         bool   // Group material is a baked lightmap
	Rule             string // Pattern of the matching legacy rule
	Undefined        bool   // Group material is not in the document table
	SelfIllumination bool
}

// ResolveGroup resolves group groupIndex of mesh node nodeName.
// Baked lightmaps go through rules; an unmatched one is skipped.
func ResolveGroup(table MaterialTable, rules *RuleTable, nodeName string, groupIndex int, groupMaterial string) GroupResolution {
	rec, ok := table.GetMaterial(groupMaterial)
	if !ok {
		return GroupResolution{Material: groupMaterial, Undefined: true}
	}
	if !IsBakedLightmap(rec.Ambient) {
		return GroupResolution{Material: groupMaterial, SelfIllumination: rec.SelfIllumination}
	}

	match, ok := rules.MatchLegacyLightmap(nodeName, groupIndex, groupMaterial)
	if !ok {
		return GroupResolution{Material: SkipMaterial, Skip: true, Lightmap: true}
	}
	res := GroupResolution{
		Material:         match.Material,
		Skip:             match.Skip,
		Lightmap:         true,
		Rule:             match.Pattern,
		SelfIllumination: rec.SelfIllumination,
	}
	if res.Skip {
		res.Material = SkipMaterial
	}
	return res
}

// SurfaceVariant derives render-state switches from a mesh payload.
func SurfaceVariant(mesh *formats.SODMesh) Variant {
	return Variant{
		Transparent:     mesh.Surface.Transparent() || mesh.LightmapTexture,
		Additive:        mesh.Surface.Additive(),
		BackfaceCulling: mesh.BackfaceCulled(),
	}
}

// Assignment is the registry material chosen for a lighting group.
type Assignment struct {
	Material *Material
	Base     string // Registry entry the variant was derived from
	Fallback bool   // Requested name was unknown; the registry fallback was used
	Emissive bool
}

// Assign picks the registry material for a resolved group. A non-empty
// glow texture prefers "<name>_glow" when the registry has it. Names the
// registry does not know fall back to Fallback().
func (r *Registry) Assign(res GroupResolution, v Variant, glow bool) Assignment {
	fb := r.Fallback()
	name := res.Material
	if name == "" {
		name = fb
	}

	base := name
	if glow && r.Has(name+"_glow") {
		base = name + "_glow"
	}
	fallback := false
	if !r.Has(base) {
		base = fb
		fallback = true
	}

	return Assignment{
		Material: r.GetOrCreate(base, v),
		Base:     base,
		Fallback: fallback,
		Emissive: res.Lightmap || res.SelfIllumination || glow,
	}
}
