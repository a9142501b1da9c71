package formats

import (
	"fmt"
	"strings"

	"github.com/Faultbox/storm3d/pkg/math"
)

// parseSODNode parses a single node record. The payload layout depends on
// the node type and the file's feature flags; there is no length prefix, so
// any unknown type is fatal.
func parseSODNode(r *sodReader, features SODFeatures, opts SODParseOptions) (*SODNode, error) {
	node := &SODNode{}

	node.Type = SODNodeType(r.readU16())
	node.Name = r.readIdentifier()
	node.Parent = r.readIdentifier()
	node.Transform = r.readTransform()
	if err := r.err(); err != nil {
		return nil, err
	}

	switch node.Type {
	case SODNodeMesh:
		mesh, err := parseSODMesh(r, features, opts)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", node.Name, err)
		}
		node.Mesh = mesh
	case SODNodeEmitter:
		node.Emitter = r.readIdentifier()
	case SODNodeHardpoint, SODNodeEffectAttachment:
		// Transform only
	default:
		return nil, fmt.Errorf("%w: %d (node %q)", ErrUnknownNodeType, uint16(node.Type), node.Name)
	}

	if err := r.err(); err != nil {
		return nil, fmt.Errorf("node %q: %w", node.Name, err)
	}
	return node, nil
}

// parseSODMesh parses the mesh payload in the exact field order of the file.
func parseSODMesh(r *sodReader, features SODFeatures, opts SODParseOptions) (*SODMesh, error) {
	mesh := &SODMesh{}

	mesh.Surface = SODSurfaceTag(r.readIdentifier())

	if features.HasBumpFields {
		_ = r.readU32() // reserved
		mesh.BumpMode = r.readU32()
	}

	mesh.Texture = r.readIdentifier()
	mesh.LightmapTexture = strings.HasSuffix(mesh.Texture, "b")

	if features.HasLegacyTexturePad {
		_ = r.readU16()
	}
	if features.HasBumpFields {
		_ = r.readU16()
		_ = r.readU16()
		if mesh.BumpMode == 2 {
			mesh.BumpTexture = r.readIdentifier()
			_ = r.readU16()
			_ = r.readU16()
		}
		mesh.SecondaryTexture = r.readIdentifier()
		_ = r.readU16()
	}

	vertexCount := int(r.readU16())
	uvCount := int(r.readU16())
	groupCount := int(r.readU16())
	if err := r.err(); err != nil {
		return nil, err
	}

	mesh.Vertices = make([]math.Vec3, vertexCount)
	for i := range mesh.Vertices {
		mesh.Vertices[i] = r.readVec3(opts.ConvertHandedness)
	}
	mesh.UVs = make([]math.Vec2, uvCount)
	for i := range mesh.UVs {
		mesh.UVs[i] = r.readVec2()
	}
	if err := r.err(); err != nil {
		return nil, err
	}

	mesh.Groups = make([]SODLightingGroup, groupCount)
	for g := range mesh.Groups {
		group := &mesh.Groups[g]
		faceCount := int(r.readU16())
		group.Material = r.readIdentifier()
		if err := r.err(); err != nil {
			return nil, fmt.Errorf("lighting group %d: %w", g, err)
		}

		group.Faces = make([]SODFace, faceCount)
		for f := range group.Faces {
			face := &group.Faces[f]
			for c := 0; c < 3; c++ {
				face[c].Vertex = r.readU16()
				face[c].UV = r.readU16()
			}
			if err := r.err(); err != nil {
				return nil, fmt.Errorf("lighting group %d face %d: %w", g, f, err)
			}
			for c := 0; c < 3; c++ {
				if int(face[c].Vertex) >= vertexCount || int(face[c].UV) >= uvCount {
					return nil, fmt.Errorf("%w: group %d face %d corner %d (vertex %d/%d, uv %d/%d)",
						ErrFaceIndexRange, g, f, c, face[c].Vertex, vertexCount, face[c].UV, uvCount)
				}
			}
		}
	}

	mesh.CullMode = r.readByte()
	_ = r.readU16() // padding

	if err := r.err(); err != nil {
		return nil, err
	}
	return mesh, nil
}
