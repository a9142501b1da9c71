// Package formats provides parsers for legacy Storm3D model formats.
// SOD (Storm3D_SW) format parser for 3D models.
package formats

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/storm3d/pkg/encoding"
	"github.com/Faultbox/storm3d/pkg/math"
)

// SODMagic is the header tag of every SOD file.
const SODMagic = "Storm3D_SW"

// SOD format errors. All of them abort the whole load.
var (
	ErrInvalidSODMagic       = errors.New("invalid SOD magic: expected 'Storm3D_SW'")
	ErrUnsupportedSODVersion = errors.New("unsupported SOD version")
	ErrTruncatedSODData      = errors.New("truncated SOD data")
	ErrUnknownNodeType       = errors.New("unknown SOD node type")
	ErrFaceIndexRange        = errors.New("SOD face index out of range")
)

// IsFatalFormat reports whether err carries one of the SOD format errors.
func IsFatalFormat(err error) bool {
	return errors.Is(err, ErrInvalidSODMagic) ||
		errors.Is(err, ErrUnsupportedSODVersion) ||
		errors.Is(err, ErrTruncatedSODData) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrFaceIndexRange)
}

// SODNodeType identifies the payload layout of a node record.
type SODNodeType uint16

const (
	SODNodeHardpoint        SODNodeType = 0  // Transform only
	SODNodeMesh             SODNodeType = 1  // Renderable geometry
	SODNodeEffectAttachment SODNodeType = 3  // Spawns a visual effect
	SODNodeEmitter          SODNodeType = 12 // Names a particle emitter
)

// String returns a human-readable node type name.
func (t SODNodeType) String() string {
	switch t {
	case SODNodeHardpoint:
		return "Hardpoint"
	case SODNodeMesh:
		return "Mesh"
	case SODNodeEffectAttachment:
		return "EffectAttachment"
	case SODNodeEmitter:
		return "Emitter"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// SODSurfaceTag is the symbolic blend class of a mesh.
type SODSurfaceTag string

const (
	SODSurfaceOpaque   SODSurfaceTag = "opaque"
	SODSurfaceAlpha    SODSurfaceTag = "alpha"
	SODSurfaceAdditive SODSurfaceTag = "additive"
	SODSurfaceWormhole SODSurfaceTag = "wormhole"
)

// Transparent reports whether the surface is alpha blended.
func (s SODSurfaceTag) Transparent() bool {
	return s == SODSurfaceAlpha || s == SODSurfaceWormhole
}

// Additive reports whether the surface is additively blended.
func (s SODSurfaceTag) Additive() bool {
	return s == SODSurfaceAdditive
}

// SODColor is an RGB color with channels in 0..1.
type SODColor struct {
	R, G, B float32
}

// MaxComponent returns the brightest channel.
func (c SODColor) MaxComponent() float32 {
	return max(c.R, c.G, c.B)
}

// SODMaterial is one record of the material table.
type SODMaterial struct {
	Name             string
	Ambient          SODColor
	Diffuse          SODColor
	Specular         SODColor
	SpecularPower    float32
	LightingModel    uint8
	SelfIllumination bool // v1.801+; false otherwise
}

// SODCorner references one entry of the mesh vertex array and one of its UV array.
type SODCorner struct {
	Vertex uint16
	UV     uint16
}

// SODFace is a triangle as stored in the file.
type SODFace [3]SODCorner

// SODLightingGroup is a per-material subset of a mesh's faces.
type SODLightingGroup struct {
	Material string
	Faces    []SODFace
}

// FaceCount returns the number of faces in the group.
func (g *SODLightingGroup) FaceCount() int {
	return len(g.Faces)
}

// SODMesh is the payload of a mesh node.
type SODMesh struct {
	Surface          SODSurfaceTag
	Texture          string
	LightmapTexture  bool   // Texture name ends with 'b'
	BumpMode         uint32 // Extended layout only
	BumpTexture      string // Extended layout with BumpMode == 2
	SecondaryTexture string // Extended layout only

	Vertices []math.Vec3
	UVs      []math.Vec2
	Groups   []SODLightingGroup

	CullMode uint8
}

// BackfaceCulled reports whether back faces should be culled.
func (m *SODMesh) BackfaceCulled() bool {
	return m.CullMode == 1
}

// FaceCount returns the total number of faces across all groups.
func (m *SODMesh) FaceCount() int {
	total := 0
	for i := range m.Groups {
		total += m.Groups[i].FaceCount()
	}
	return total
}

// SODNode is one record of the node table.
type SODNode struct {
	Type      SODNodeType
	Name      string
	Parent    string
	Transform math.Mat4 // Local transform; fourth row is [0 0 0 1]

	Mesh    *SODMesh // SODNodeMesh only
	Emitter string   // SODNodeEmitter only
}

// SODTextureAnimation is an entry of the optional texture-animation trailer.
type SODTextureAnimation struct {
	Type           uint8
	Node           string
	Animation      string
	PlaybackOffset float32
}

// SOD represents a parsed SOD (Storm3D_SW) file.
type SOD struct {
	Magic    string
	Version  float32
	Features SODFeatures

	Materials          []SODMaterial // File order, duplicates collapsed
	DuplicateMaterials []string      // Names that overwrote an earlier record
	Nodes              []SODNode     // File order

	Animations          []SODTextureAnimation
	AnimationsTruncated bool // Trailer present but incomplete

	materialIndex map[string]int
}

// SODParseOptions controls decoding details that are not part of the format.
type SODParseOptions struct {
	// Charset decodes identifier bytes.
	Charset encoding.Charset
	// ConvertHandedness mirrors vertex X to convert to a left-handed frame.
	ConvertHandedness bool
}

// DefaultSODParseOptions returns UTF-8 identifiers with handedness conversion.
func DefaultSODParseOptions() SODParseOptions {
	return SODParseOptions{
		Charset:           encoding.CharsetUTF8,
		ConvertHandedness: true,
	}
}

// ParseSOD parses SOD data from a byte slice with default options.
func ParseSOD(data []byte) (*SOD, error) {
	return ParseSODWithOptions(data, DefaultSODParseOptions())
}

// ParseSODWithOptions parses SOD data from a byte slice.
func ParseSODWithOptions(data []byte, opts SODParseOptions) (*SOD, error) {
	r := newSODReader(data, opts.Charset)

	magic := r.readFixedString(len(SODMagic))
	version := r.readFloat32()
	if err := r.err(); err != nil {
		return nil, err
	}
	if magic != SODMagic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSODMagic, magic)
	}
	if !SupportedSODVersion(version) {
		return nil, fmt.Errorf("%w: %.4f (supported %.2f-%.2f)",
			ErrUnsupportedSODVersion, version, SODMinVersion, SODMaxVersion)
	}

	sod := &SOD{
		Magic:         magic,
		Version:       version,
		Features:      FeaturesForVersion(version),
		materialIndex: make(map[string]int),
	}

	if err := sod.readMaterials(r); err != nil {
		return nil, fmt.Errorf("reading materials: %w", err)
	}

	nodeCount := int(r.readU16())
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("reading node count: %w", err)
	}
	sod.Nodes = make([]SODNode, 0, nodeCount)
	for i := 0; i < nodeCount; i++ {
		node, err := parseSODNode(r, sod.Features, opts)
		if err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
		sod.Nodes = append(sod.Nodes, *node)
	}

	// Texture animations (if data remains)
	if r.remaining() >= 2 {
		sod.readAnimations(r)
	}

	return sod, nil
}

// ParseSODFile parses a SOD file from disk.
func ParseSODFile(path string) (*SOD, error) {
	return ParseSODFileWithOptions(path, DefaultSODParseOptions())
}

// ParseSODFileWithOptions parses a SOD file from disk.
func ParseSODFileWithOptions(path string, opts SODParseOptions) (*SOD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SOD file: %w", err)
	}
	return ParseSODWithOptions(data, opts)
}

// readMaterials reads the u16-counted material table.
func (sod *SOD) readMaterials(r *sodReader) error {
	count := int(r.readU16())
	for i := 0; i < count; i++ {
		m := SODMaterial{Name: r.readIdentifier()}
		m.Ambient = r.readColorRGB()
		m.Diffuse = r.readColorRGB()
		m.Specular = r.readColorRGB()
		m.SpecularPower = r.readFloat32()
		m.LightingModel = r.readByte()
		if sod.Features.HasSelfIllumination {
			m.SelfIllumination = r.readByte() == 1
		}
		if err := r.err(); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		sod.addMaterial(m)
	}
	return r.err()
}

func (sod *SOD) addMaterial(m SODMaterial) {
	if idx, ok := sod.materialIndex[m.Name]; ok {
		sod.Materials[idx] = m
		sod.DuplicateMaterials = append(sod.DuplicateMaterials, m.Name)
		return
	}
	sod.materialIndex[m.Name] = len(sod.Materials)
	sod.Materials = append(sod.Materials, m)
}

// readAnimations reads the optional trailer. An incomplete trailer is
// dropped rather than failing the load.
func (sod *SOD) readAnimations(r *sodReader) {
	count := int(r.readU16())
	anims := make([]SODTextureAnimation, 0, count)
	for i := 0; i < count; i++ {
		a := SODTextureAnimation{Type: r.readByte()}
		a.Node = r.readIdentifier()
		a.Animation = r.readIdentifier()
		a.PlaybackOffset = r.readFloat32()
		if r.err() != nil {
			sod.AnimationsTruncated = true
			return
		}
		anims = append(anims, a)
	}
	sod.Animations = anims
}

// GetMaterial returns the material record with the given name.
func (sod *SOD) GetMaterial(name string) (SODMaterial, bool) {
	if sod.materialIndex == nil {
		sod.materialIndex = make(map[string]int, len(sod.Materials))
		for i, m := range sod.Materials {
			sod.materialIndex[m.Name] = i
		}
	}
	idx, ok := sod.materialIndex[name]
	if !ok {
		return SODMaterial{}, false
	}
	return sod.Materials[idx], true
}

// GetNodeByName returns the first node with the given name, or nil.
func (sod *SOD) GetNodeByName(name string) *SODNode {
	for i := range sod.Nodes {
		if sod.Nodes[i].Name == name {
			return &sod.Nodes[i]
		}
	}
	return nil
}

// GetTotalVertexCount returns the number of raw vertices across all meshes.
func (sod *SOD) GetTotalVertexCount() int {
	total := 0
	for _, node := range sod.Nodes {
		if node.Mesh != nil {
			total += len(node.Mesh.Vertices)
		}
	}
	return total
}

// GetTotalFaceCount returns the number of faces across all meshes.
func (sod *SOD) GetTotalFaceCount() int {
	total := 0
	for _, node := range sod.Nodes {
		if node.Mesh != nil {
			total += node.Mesh.FaceCount()
		}
	}
	return total
}

// CountNodes returns the number of nodes of each type.
func (sod *SOD) CountNodes() map[SODNodeType]int {
	counts := make(map[SODNodeType]int)
	for _, node := range sod.Nodes {
		counts[node.Type]++
	}
	return counts
}
