package loader

import (
	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/scene"
	"github.com/Faultbox/storm3d/pkg/formats"
)

// Result is the projection of one document into the scene.
type Result struct {
	Document *formats.SOD

	Root     *scene.Node   // Attachment root, may be nil
	TopLevel []*scene.Node // Nodes with no parent in the tree
	Nodes    []*scene.Node // File order

	Effects     []*effect.Instance
	Diagnostics []Diagnostic
}

// Node returns the last node named name, or nil.
func (r *Result) Node(name string) *scene.Node {
	for i := len(r.Nodes) - 1; i >= 0; i-- {
		if r.Nodes[i].Name == name {
			return r.Nodes[i]
		}
	}
	return nil
}

// DiagnosticsOf returns the diagnostics of kind k.
func (r *Result) DiagnosticsOf(k DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns all diagnostics combined into one error, or nil.
func (r *Result) Warnings() error {
	return combine(r.Diagnostics)
}
