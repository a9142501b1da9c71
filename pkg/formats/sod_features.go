package formats

import "fmt"

// Supported SOD version range (inclusive).
const (
	SODMinVersion float32 = 1.73
	SODMaxVersion float32 = 1.91
)

// SODFeatures lists the optional fields present for a given file version.
// It is computed once from the header so readers branch on named flags.
type SODFeatures struct {
	// HasSelfIllumination adds a trailing self-illumination byte to each material.
	HasSelfIllumination bool
	// HasLegacyTexturePad adds a u16 after the mesh texture name. It is set
	// only when the widened version equals 1.91 exactly, which no float32
	// header does.
	HasLegacyTexturePad bool
	// HasBumpFields adds the reserved/bump words before the texture name and
	// the bump and secondary texture identifiers after it.
	HasBumpFields bool
}

// FeaturesForVersion derives the field layout for a header version.
func FeaturesForVersion(version float32) SODFeatures {
	v := float64(version)
	return SODFeatures{
		HasSelfIllumination: v > 1.801,
		HasLegacyTexturePad: v == 1.91,
		HasBumpFields:       v > 1.9101,
	}
}

// SupportedSODVersion reports whether version lies in the supported range.
func SupportedSODVersion(version float32) bool {
	return version >= SODMinVersion && version <= SODMaxVersion
}

// String lists the enabled flags.
func (f SODFeatures) String() string {
	return fmt.Sprintf("selfIllum=%t texturePad=%t bump=%t",
		f.HasSelfIllumination, f.HasLegacyTexturePad, f.HasBumpFields)
}
