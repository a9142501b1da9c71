package model

import (
	"github.com/Faultbox/storm3d/pkg/math"
)

// fallbackNormal is used for vertices no triangle touches.
var fallbackNormal = math.Vec3{X: 0, Y: 1, Z: 0}

// ComputeNormals averages face normals over the raw vertex adjacency.
// triangles holds vertex indices, three per face. Each face contributes its
// unnormalized cross product, so larger faces weigh more.
func ComputeNormals(vertices []math.Vec3, triangles []uint32) []math.Vec3 {
	sums := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		v0, v1, v2 := vertices[a], vertices[b], vertices[c]
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		sums[a] = sums[a].Add(n)
		sums[b] = sums[b].Add(n)
		sums[c] = sums[c].Add(n)
	}

	normals := make([]math.Vec3, len(vertices))
	for i, s := range sums {
		if s.Length() < 1e-8 {
			normals[i] = fallbackNormal
			continue
		}
		normals[i] = s.Normalize()
	}
	return normals
}
