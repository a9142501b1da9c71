package loader

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category groups diagnostics by how the loader recovered.
type Category int

const (
	// RecoverableNode degraded one node or group and continued.
	RecoverableNode Category = iota
	// MissingAsset substituted a placeholder or omitted a spawn.
	MissingAsset
)

// String returns the category name.
func (c Category) String() string {
	if c == MissingAsset {
		return "missing_asset"
	}
	return "recoverable_node"
}

// DiagnosticKind identifies a recoverable condition.
type DiagnosticKind int

const (
	DanglingParent DiagnosticKind = iota
	DuplicateName
	DuplicateMaterial
	UndefinedMaterial
	LightmapSkipped
	MaterialFallback
	EmptyMesh
	TextureMissing
	EffectMissing
	AnimationTruncated
	AnimationUnknownNode
)

var kindNames = map[DiagnosticKind]string{
	DanglingParent:       "dangling_parent",
	DuplicateName:        "duplicate_name",
	DuplicateMaterial:    "duplicate_material",
	UndefinedMaterial:    "undefined_material",
	LightmapSkipped:      "lightmap_skipped",
	MaterialFallback:     "material_fallback",
	EmptyMesh:            "empty_mesh",
	TextureMissing:       "texture_missing",
	EffectMissing:        "effect_missing",
	AnimationTruncated:   "animation_truncated",
	AnimationUnknownNode: "animation_unknown_node",
}

// String returns the kind name.
func (k DiagnosticKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("diagnostic(%d)", int(k))
}

// Category returns how the loader recovers from k.
func (k DiagnosticKind) Category() Category {
	switch k {
	case TextureMissing, EffectMissing:
		return MissingAsset
	default:
		return RecoverableNode
	}
}

// Diagnostic describes one recovered problem.
type Diagnostic struct {
	Kind   DiagnosticKind
	Node   string
	Group  int // Lighting group index, or -1
	Name   string
	Detail string
	Err    error
}

// Error formats the diagnostic so it can be combined as an error.
func (d Diagnostic) Error() string {
	msg := d.Kind.String()
	if d.Node != "" {
		msg += " node=" + d.Node
	}
	if d.Group >= 0 {
		msg += fmt.Sprintf(" group=%d", d.Group)
	}
	if d.Name != "" {
		msg += " name=" + d.Name
	}
	if d.Detail != "" {
		msg += ": " + d.Detail
	}
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

// level is the log level a diagnostic is reported at.
func (d Diagnostic) level() zapcore.Level {
	if d.Kind == EffectMissing {
		return zapcore.DebugLevel
	}
	return zapcore.WarnLevel
}

func (d Diagnostic) fields() []zap.Field {
	fields := []zap.Field{zap.Stringer("kind", d.Kind)}
	if d.Node != "" {
		fields = append(fields, zap.String("node", d.Node))
	}
	if d.Group >= 0 {
		fields = append(fields, zap.Int("group", d.Group))
	}
	if d.Name != "" {
		fields = append(fields, zap.String("name", d.Name))
	}
	if d.Detail != "" {
		fields = append(fields, zap.String("detail", d.Detail))
	}
	if d.Err != nil {
		fields = append(fields, zap.Error(d.Err))
	}
	return fields
}

// combine folds diagnostics into a single error.
func combine(diags []Diagnostic) error {
	errs := make([]error, len(diags))
	for i := range diags {
		errs[i] = diags[i]
	}
	return multierr.Combine(errs...)
}
