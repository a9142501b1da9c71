// Package scene holds the node hierarchy produced by the model loader.
package scene

import (
	"image"
	"strings"

	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/pkg/math"
)

// Kind identifies what a node carries.
type Kind int

const (
	KindGroup Kind = iota // Externally supplied or synthetic grouping node
	KindMesh
	KindHardpoint
	KindEmitter
	KindEffect
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindHardpoint:
		return "hardpoint"
	case KindEmitter:
		return "emitter"
	case KindEffect:
		return "effect"
	default:
		return "group"
	}
}

// Node is a transformable element of the loaded hierarchy.
type Node struct {
	Name       string
	Kind       Kind
	ParentName string // Parent as named in the file
	Detached   bool   // ParentName did not resolve

	Parent   *Node
	Children []*Node

	Local    math.Mat4
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3

	Mesh    *MeshRenderer    // KindMesh with at least one face
	Emitter string           // KindEmitter
	Effect  *effect.Instance // KindEffect when spawned
}

// NewNode creates a node and decomposes local into position, rotation
// and scale.
func NewNode(name string, kind Kind, local math.Mat4) *Node {
	n := &Node{Name: name, Kind: kind}
	n.SetLocal(local)
	return n
}

// NewRoot creates an identity group node to attach a model under.
func NewRoot(name string) *Node {
	return NewNode(name, KindGroup, math.Identity())
}

// SetLocal replaces the local transform.
func (n *Node) SetLocal(local math.Mat4) {
	n.Local = local
	n.Position, n.Rotation, n.Scale = local.Decompose()
}

// AddChild appends c to n's children and sets its parent.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// World returns the transform from node space to the space of the
// topmost ancestor.
func (n *Node) World() math.Mat4 {
	m := n.Local
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Local.Mul(m)
	}
	return m
}

// Path returns the slash-separated names from the topmost ancestor.
func (n *Node) Path() string {
	var parts []string
	for p := n; p != nil; p = p.Parent {
		parts = append(parts, p.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first descendant (or n itself) named name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// MaterialSlot is the material bound to one submesh index.
type MaterialSlot struct {
	Material *material.Material // nil for skipped slots
	Name     string             // Resolved group material before variants
	Emissive bool
	Skipped  bool
}

// MeshRenderer is the renderable component of a mesh node. Submeshes and
// Slots are index-aligned.
type MeshRenderer struct {
	Submeshes []model.Submesh
	Slots     []MaterialSlot
	Bounds    model.Bounds

	Texture     string
	BaseTexture *image.NRGBA
	BumpTexture *image.NRGBA
	GlowTexture *image.NRGBA
}

// TriangleCount returns the number of visible triangles.
func (r *MeshRenderer) TriangleCount() int {
	return model.TotalTriangles(r.Submeshes)
}
