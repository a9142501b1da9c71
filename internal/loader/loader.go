// Package loader turns SOD model files into scene hierarchies.
package loader

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/internal/engine/scene"
	"github.com/Faultbox/storm3d/internal/engine/texture"
	"github.com/Faultbox/storm3d/pkg/formats"
)

// TextureDecoder returns decoded images by file name. Missing files are
// reported with an error wrapping texture.ErrNotFound.
type TextureDecoder interface {
	Load(name string) (*image.NRGBA, error)
}

// MaterialResolver maps a resolved lighting group to a shared material.
type MaterialResolver interface {
	Assign(res material.GroupResolution, v material.Variant, glow bool) material.Assignment
}

// Options controls how documents are parsed and projected.
type Options struct {
	Parse   formats.SODParseOptions
	Winding model.Winding

	// RootAliases are parent names that refer to the attachment root.
	RootAliases []string

	// EffectNodes creates a scene node for effect attachments in addition
	// to spawning the effect.
	EffectNodes bool

	// TextureExt is appended to texture names stored in the file.
	TextureExt string
}

// DefaultOptions returns the standard loader options.
func DefaultOptions() Options {
	return Options{
		Parse:       formats.DefaultSODParseOptions(),
		Winding:     model.WindingAsStored,
		RootAliases: scene.DefaultRootAliases,
		EffectNodes: true,
		TextureExt:  ".tga",
	}
}

// Loader loads SOD documents using injected collaborators.
type Loader struct {
	opts      Options
	log       *zap.Logger
	textures  TextureDecoder
	materials MaterialResolver
	effects   effect.Spawner
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithTextures sets the texture decoder. Without one no textures are loaded.
func WithTextures(t TextureDecoder) Option {
	return func(l *Loader) { l.textures = t }
}

// WithMaterials sets the material resolver.
func WithMaterials(m MaterialResolver) Option {
	return func(l *Loader) { l.materials = m }
}

// WithEffects sets the effect spawner. Without one no effects are spawned.
func WithEffects(s effect.Spawner) Option {
	return func(l *Loader) { l.effects = s }
}

// WithOptions replaces the loader options.
func WithOptions(o Options) Option {
	return func(l *Loader) { l.opts = o }
}

// New creates a loader. The material resolver defaults to a registry
// seeded with the legacy shared materials.
func New(opts ...Option) *Loader {
	l := &Loader{
		opts: DefaultOptions(),
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	if l.materials == nil {
		l.materials = material.NewLegacyRegistry()
	}
	return l
}

// LoadModel loads the file at path with a loader built from opts.
func LoadModel(path string, root *scene.Node, rules *material.RuleTable, opts ...Option) (*Result, error) {
	return New(opts...).LoadFile(path, root, rules)
}

// LoadFile parses and projects the file at path.
// root may be nil; rules may be nil, in which case every baked lightmap
// group is skipped.
func (l *Loader) LoadFile(path string, root *scene.Node, rules *material.RuleTable) (*Result, error) {
	doc, err := formats.ParseSODFileWithOptions(path, l.opts.Parse)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	return l.Build(doc, path, root, rules), nil
}

// Load parses and projects an in-memory document.
func (l *Loader) Load(data []byte, name string, root *scene.Node, rules *material.RuleTable) (*Result, error) {
	doc, err := formats.ParseSODWithOptions(data, l.opts.Parse)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", name, err)
	}
	return l.Build(doc, name, root, rules), nil
}

// Build projects a parsed document into a scene hierarchy.
func (l *Loader) Build(doc *formats.SOD, name string, root *scene.Node, rules *material.RuleTable) *Result {
	b := &build{
		Loader: l,
		doc:    doc,
		rules:  rules,
		asm:    scene.NewAssembler(root, l.opts.RootAliases),
		log:    l.log.With(zap.String("model", name)),
		res:    &Result{Document: doc, Root: root},
	}
	b.log.Debug("building model",
		zap.Float32("version", doc.Version),
		zap.Stringer("features", doc.Features),
		zap.Int("materials", len(doc.Materials)),
		zap.Int("nodes", len(doc.Nodes)))

	for _, dup := range doc.DuplicateMaterials {
		b.report(Diagnostic{Kind: DuplicateMaterial, Group: -1, Name: dup})
	}

	for i := range doc.Nodes {
		b.node(&doc.Nodes[i])
	}

	b.animations()

	for _, issue := range b.asm.Issues() {
		kind := DanglingParent
		if issue.Kind == scene.IssueDuplicateName {
			kind = DuplicateName
		}
		b.report(Diagnostic{Kind: kind, Node: issue.Node, Group: -1, Name: issue.Parent})
	}

	b.res.Nodes = b.asm.Nodes()
	b.res.TopLevel = b.asm.TopLevel()

	b.log.Info("model loaded",
		zap.Int("nodes", len(b.res.Nodes)),
		zap.Int("effects", len(b.res.Effects)),
		zap.Int("diagnostics", len(b.res.Diagnostics)))
	return b.res
}

// build holds the state of one Build call.
type build struct {
	*Loader
	doc   *formats.SOD
	rules *material.RuleTable
	asm   *scene.Assembler
	log   *zap.Logger
	res   *Result
}

func (b *build) report(d Diagnostic) {
	b.res.Diagnostics = append(b.res.Diagnostics, d)
	if ce := b.log.Check(d.level(), "model diagnostic"); ce != nil {
		ce.Write(d.fields()...)
	}
}

func (b *build) node(rec *formats.SODNode) {
	if b.asm.Skip(rec.Name) {
		b.log.Debug("skipping root record", zap.String("node", rec.Name))
		return
	}

	switch rec.Type {
	case formats.SODNodeEffectAttachment:
		b.effectNode(rec)
		return
	case formats.SODNodeMesh:
		n := b.attach(rec, scene.KindMesh)
		b.mesh(n, rec)
	case formats.SODNodeEmitter:
		n := b.attach(rec, scene.KindEmitter)
		n.Emitter = rec.Emitter
	default:
		b.attach(rec, scene.KindHardpoint)
	}
}

func (b *build) attach(rec *formats.SODNode, kind scene.Kind) *scene.Node {
	n := scene.NewNode(rec.Name, kind, rec.Transform)
	n.ParentName = rec.Parent
	b.asm.Attach(n)
	b.log.Debug("node",
		zap.String("node", rec.Name),
		zap.Stringer("type", rec.Type),
		zap.String("parent", rec.Parent))
	return n
}

func (b *build) effectNode(rec *formats.SODNode) {
	var (
		n     *scene.Node
		world = rec.Transform
	)
	if b.opts.EffectNodes {
		n = b.attach(rec, scene.KindEffect)
		world = n.World()
	} else if parent, _ := b.asm.ResolveParent(rec.Parent); parent != nil {
		world = parent.World().Mul(rec.Transform)
	}

	if b.effects == nil {
		return
	}
	key := effect.Key(rec.Name)
	inst, err := b.effects.Spawn(key, world)
	if err != nil {
		d := Diagnostic{Kind: EffectMissing, Node: rec.Name, Group: -1, Name: key}
		if !errors.Is(err, effect.ErrNotFound) {
			d.Err = err
		}
		b.report(d)
		return
	}
	if n != nil {
		n.Effect = inst
	}
	b.res.Effects = append(b.res.Effects, inst)
}

func (b *build) mesh(n *scene.Node, rec *formats.SODNode) {
	mesh := rec.Mesh
	if mesh == nil {
		return
	}

	resolved := make([]material.GroupResolution, len(mesh.Groups))
	plan := make([]model.GroupPlan, len(mesh.Groups))
	for g := range mesh.Groups {
		group := &mesh.Groups[g]
		r := material.ResolveGroup(b.doc, b.rules, rec.Name, g, group.Material)
		switch {
		case r.Undefined:
			b.report(Diagnostic{Kind: UndefinedMaterial, Node: rec.Name, Group: g, Name: group.Material})
		case r.Lightmap && r.Skip && r.Rule == "":
			b.report(Diagnostic{Kind: LightmapSkipped, Node: rec.Name, Group: g, Name: group.Material,
				Detail: "no legacy lightmap rule matched"})
		case r.Lightmap:
			b.log.Debug("legacy lightmap",
				zap.String("node", rec.Name),
				zap.Int("group", g),
				zap.String("rule", r.Rule),
				zap.String("material", r.Material),
				zap.Bool("skip", r.Skip))
		}
		resolved[g] = r
		plan[g] = model.GroupPlan{Material: r.Material, Skip: r.Skip}
	}

	subs := model.Reconstruct(mesh, plan, model.BuildOptions{Winding: b.opts.Winding})
	if model.TotalTriangles(subs) == 0 {
		b.report(Diagnostic{Kind: EmptyMesh, Node: rec.Name, Group: -1, Detail: "no visible faces"})
		return
	}

	r := &scene.MeshRenderer{
		Submeshes: subs,
		Slots:     make([]scene.MaterialSlot, len(subs)),
		Bounds:    model.ComputeBounds(subs),
		Texture:   mesh.Texture,
	}
	b.loadTextures(r, rec)

	variant := material.SurfaceVariant(mesh)
	glow := r.GlowTexture != nil
	for g := range subs {
		slot := &r.Slots[g]
		slot.Name = resolved[g].Material
		if plan[g].Skip {
			slot.Skipped = true
			continue
		}
		a := b.materials.Assign(resolved[g], variant, glow)
		if a.Fallback {
			b.report(Diagnostic{Kind: MaterialFallback, Node: rec.Name, Group: g, Name: resolved[g].Material,
				Detail: "using " + a.Base})
		}
		slot.Material = a.Material
		slot.Emissive = a.Emissive
	}
	n.Mesh = r
}

// loadTextures loads the base, bump and glow images for a mesh.
func (b *build) loadTextures(r *scene.MeshRenderer, rec *formats.SODNode) {
	if b.Loader.textures == nil || rec.Mesh.Texture == "" {
		return
	}
	mesh := rec.Mesh
	ext := b.opts.TextureExt

	base := mesh.Texture + ext
	img, err := b.Loader.textures.Load(base)
	if err != nil {
		d := Diagnostic{Kind: TextureMissing, Node: rec.Name, Group: -1, Name: base}
		if !errors.Is(err, texture.ErrNotFound) {
			d.Err = err
		}
		b.report(d)
		img = texture.Placeholder()
	}
	r.BaseTexture = img

	var bump string
	if b.doc.Features.HasBumpFields {
		if mesh.BumpTexture != "" {
			bump = mesh.BumpTexture + ext
		}
	} else {
		bump = mesh.Texture + "_bump" + ext
	}
	if bump != "" {
		r.BumpTexture = b.optional(rec.Name, bump)
	}
	r.GlowTexture = b.optional(rec.Name, mesh.Texture+"_glow"+ext)
}

// optional loads a companion texture, returning nil when absent.
func (b *build) optional(node, name string) *image.NRGBA {
	img, err := b.Loader.textures.Load(name)
	if err != nil {
		b.log.Debug("companion texture unavailable",
			zap.String("node", node),
			zap.String("texture", name),
			zap.Error(err))
		return nil
	}
	return img
}

func (b *build) animations() {
	if b.doc.AnimationsTruncated {
		b.report(Diagnostic{Kind: AnimationTruncated, Group: -1, Detail: "incomplete trailer dropped"})
	}
	for _, anim := range b.doc.Animations {
		if _, ok := b.asm.Lookup(anim.Node); !ok {
			b.report(Diagnostic{Kind: AnimationUnknownNode, Node: anim.Node, Group: -1, Name: anim.Animation})
		}
	}
}
