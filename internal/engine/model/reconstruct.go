package model

import (
	"github.com/Faultbox/storm3d/pkg/formats"
	"github.com/Faultbox/storm3d/pkg/math"
)

// cornerKey identifies a unique (position, texcoord) pairing.
type cornerKey struct {
	vertex uint16
	uv     uint16
}

// Reconstruct rebuilds one submesh per lighting group of mesh.
// The result is slot-aligned with mesh.Groups: groups without faces or
// marked Skip in plan still occupy a slot with an empty index list.
// plan may be nil, in which case each group keeps its own material name.
//
// Normals are computed once over the raw vertex table using every face of
// every group (skipped ones included), then copied into each submesh.
func Reconstruct(mesh *formats.SODMesh, plan []GroupPlan, opts BuildOptions) []Submesh {
	if mesh == nil {
		return nil
	}
	order := opts.Winding.order()

	rawNormals := ComputeNormals(mesh.Vertices, flattenTriangles(mesh, order))

	submeshes := make([]Submesh, len(mesh.Groups))
	for g := range mesh.Groups {
		group := &mesh.Groups[g]
		sub := &submeshes[g]
		sub.Material = group.Material
		if g < len(plan) {
			if plan[g].Material != "" {
				sub.Material = plan[g].Material
			}
			sub.Skipped = plan[g].Skip
		}
		if sub.Skipped || len(group.Faces) == 0 {
			continue
		}

		// Each group gets its own table so submeshes never share indices.
		seen := make(map[cornerKey]uint32)
		sub.Indices = make([]uint32, 0, len(group.Faces)*3)
		for _, face := range group.Faces {
			for _, c := range order {
				corner := face[c]
				key := cornerKey{vertex: corner.Vertex, uv: corner.UV}
				idx, ok := seen[key]
				if !ok {
					idx = uint32(len(sub.Vertices))
					seen[key] = idx
					sub.Vertices = append(sub.Vertices, lookupVec3(mesh.Vertices, corner.Vertex))
					sub.UVs = append(sub.UVs, lookupVec2(mesh.UVs, corner.UV))
					sub.Normals = append(sub.Normals, lookupNormal(rawNormals, corner.Vertex))
				}
				sub.Indices = append(sub.Indices, idx)
			}
		}
	}
	return submeshes
}

// flattenTriangles lists the vertex indices of every face in file order.
func flattenTriangles(mesh *formats.SODMesh, order [3]int) []uint32 {
	tris := make([]uint32, 0, mesh.FaceCount()*3)
	for _, group := range mesh.Groups {
		for _, face := range group.Faces {
			for _, c := range order {
				tris = append(tris, uint32(face[c].Vertex))
			}
		}
	}
	return tris
}

func lookupVec3(list []math.Vec3, i uint16) math.Vec3 {
	if int(i) < len(list) {
		return list[i]
	}
	return math.Vec3{}
}

func lookupVec2(list []math.Vec2, i uint16) math.Vec2 {
	if int(i) < len(list) {
		return list[i]
	}
	return math.Vec2{}
}

func lookupNormal(list []math.Vec3, i uint16) math.Vec3 {
	if int(i) < len(list) {
		return list[i]
	}
	return fallbackNormal
}

// TotalTriangles sums the visible triangles over submeshes.
func TotalTriangles(submeshes []Submesh) int {
	n := 0
	for i := range submeshes {
		n += submeshes[i].TriangleCount()
	}
	return n
}

// ComputeBounds returns the bounding box of all submesh vertices.
// An empty input yields a zero box.
func ComputeBounds(submeshes []Submesh) Bounds {
	var b Bounds
	first := true
	for i := range submeshes {
		for _, v := range submeshes[i].Vertices {
			if first {
				b.Min, b.Max = v, v
				first = false
				continue
			}
			b.Min = math.Vec3{X: min(b.Min.X, v.X), Y: min(b.Min.Y, v.Y), Z: min(b.Min.Z, v.Z)}
			b.Max = math.Vec3{X: max(b.Max.X, v.X), Y: max(b.Max.Y, v.Y), Z: max(b.Max.Z, v.Z)}
		}
	}
	return b
}

// Interleave packs submeshes into one vertex/index buffer.
// Indices stay relative to each range's BaseVertex.
func Interleave(submeshes []Submesh) *Mesh {
	m := &Mesh{Bounds: ComputeBounds(submeshes)}
	for i := range submeshes {
		sub := &submeshes[i]
		r := SubmeshRange{
			Material:   sub.Material,
			BaseVertex: uint32(len(m.Vertices)),
			StartIndex: uint32(len(m.Indices)),
			IndexCount: uint32(len(sub.Indices)),
		}
		for v := range sub.Vertices {
			m.Vertices = append(m.Vertices, Vertex{
				Position: sub.Vertices[v],
				Normal:   sub.Normals[v],
				TexCoord: sub.UVs[v],
			})
		}
		m.Indices = append(m.Indices, sub.Indices...)
		m.Ranges = append(m.Ranges, r)
	}
	return m
}
