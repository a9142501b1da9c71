// Package model rebuilds render-ready submeshes from SOD mesh nodes.
package model

import (
	"fmt"
	"strings"

	"github.com/Faultbox/storm3d/pkg/math"
)

// Winding selects the corner order used when emitting triangles.
type Winding int

const (
	// WindingAsStored emits corners 0,1,2 as read from the file.
	WindingAsStored Winding = iota
	// WindingReversed emits corners 0,2,1, flipping the front face.
	WindingReversed
)

// ParseWinding maps a configuration value to a Winding.
func ParseWinding(s string) (Winding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stored", "0,2,4":
		return WindingAsStored, nil
	case "reversed", "0,4,2":
		return WindingReversed, nil
	default:
		return WindingAsStored, fmt.Errorf("unknown winding policy %q", s)
	}
}

// String returns the configuration name of the policy.
func (w Winding) String() string {
	if w == WindingReversed {
		return "reversed"
	}
	return "stored"
}

// order returns the corner permutation for a face.
func (w Winding) order() [3]int {
	if w == WindingReversed {
		return [3]int{0, 2, 1}
	}
	return [3]int{0, 1, 2}
}

// Submesh is one lighting group rebuilt as a self-contained buffer where
// every (vertex, uv) pair used by the group appears exactly once.
type Submesh struct {
	Material string
	Skipped  bool // Group resolved to an invisible slot

	Vertices []math.Vec3
	UVs      []math.Vec2
	Normals  []math.Vec3
	Indices  []uint32
}

// TriangleCount returns the number of triangles in the submesh.
func (s *Submesh) TriangleCount() int {
	return len(s.Indices) / 3
}

// Empty reports whether the submesh has no triangles.
func (s *Submesh) Empty() bool {
	return len(s.Indices) == 0
}

// GroupPlan carries the resolved material for a lighting group.
type GroupPlan struct {
	Material string
	Skip     bool
}

// BuildOptions contains options for submesh reconstruction.
type BuildOptions struct {
	Winding Winding
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Vertex is an interleaved vertex for renderers that want a single buffer.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec2
}

// SubmeshRange locates one submesh inside an interleaved buffer.
type SubmeshRange struct {
	Material   string
	BaseVertex uint32
	StartIndex uint32
	IndexCount uint32
}

// Mesh is the interleaved form of a node's submeshes.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Ranges   []SubmeshRange
	Bounds   Bounds
}
