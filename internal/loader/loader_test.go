package loader

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/internal/engine/scene"
	"github.com/Faultbox/storm3d/internal/engine/texture"
	"github.com/Faultbox/storm3d/pkg/formats"
	"github.com/Faultbox/storm3d/pkg/formats/sodtest"
	"github.com/Faultbox/storm3d/pkg/math"
)

var (
	hullMaterial = sodtest.Material{Name: "hull", Ambient: [3]float32{0.1, 0.1, 0.1}}
	lmapMaterial = sodtest.Material{Name: "lmap", Ambient: [3]float32{1, 1, 1}}
)

// hullMesh has a two-face "hull" group and a one-face "lmap" group.
func hullMesh() sodtest.Mesh {
	return sodtest.Mesh{
		Surface:  "opaque",
		Texture:  "fedhull",
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		UVs:      [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Groups: []sodtest.Group{
			{Material: "hull", Faces: [][6]uint16{{0, 0, 1, 1, 2, 2}, {0, 0, 2, 2, 3, 3}}},
			{Material: "lmap", Faces: [][6]uint16{{0, 0, 1, 1, 3, 3}}},
		},
		Cull: 1,
	}
}

func hullDocument() []byte {
	return sodtest.New(1.8).
		Materials(hullMaterial, lmapMaterial).
		NodeCount(1).
		Mesh("hull", "", sodtest.Identity(), hullMesh()).
		Bytes()
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func TestLoad_SkipsUnmatchedLightmap(t *testing.T) {
	res, err := New().Load(hullDocument(), "hull.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	hull := res.Node("hull")
	if hull == nil || hull.Mesh == nil {
		t.Fatal("expected a mesh node named hull")
	}
	subs := hull.Mesh.Submeshes
	if len(subs) != 2 {
		t.Fatalf("expected 2 submeshes, got %d", len(subs))
	}
	if len(subs[0].Indices) != 6 {
		t.Errorf("submesh[0] indices = %d, want 6", len(subs[0].Indices))
	}
	if len(subs[1].Indices) != 0 {
		t.Errorf("submesh[1] indices = %d, want 0", len(subs[1].Indices))
	}
	if !hull.Mesh.Slots[1].Skipped || hull.Mesh.Slots[1].Material != nil {
		t.Errorf("slot 1 = %+v", hull.Mesh.Slots[1])
	}

	skipped := res.DiagnosticsOf(LightmapSkipped)
	if len(skipped) != 1 || skipped[0].Group != 1 || skipped[0].Node != "hull" {
		t.Errorf("LightmapSkipped = %+v", skipped)
	}
	if skipped[0].Kind.Category() != RecoverableNode {
		t.Error("a skipped lightmap is a recoverable node diagnostic")
	}
}

func TestLoad_LightmapRule(t *testing.T) {
	rules, err := material.CompileRules([]material.Rule{{Pattern: `^hull_1$`, Material: "lightmap"}})
	if err != nil {
		t.Fatal(err)
	}

	res, err := New().Load(hullDocument(), "hull.sod", nil, rules)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh := res.Node("hull").Mesh
	if len(mesh.Submeshes[1].Indices) != 3 {
		t.Errorf("matched lightmap indices = %d, want 3", len(mesh.Submeshes[1].Indices))
	}
	slot := mesh.Slots[1]
	if slot.Skipped || slot.Name != "lmap" || !slot.Emissive {
		t.Errorf("slot = %+v", slot)
	}
	if slot.Material == nil || slot.Material.Shader != material.ShaderUnlit {
		t.Errorf("lmap should resolve to the unlit lightmap material: %+v", slot.Material)
	}
	if len(res.DiagnosticsOf(LightmapSkipped)) != 0 {
		t.Error("matched lightmap should not be reported as skipped")
	}
}

func TestLoad_DanglingParent(t *testing.T) {
	data := sodtest.New(1.8).
		Materials().
		NodeCount(2).
		Hardpoint("hull", "", sodtest.Identity()).
		Hardpoint("barrel", "turret_left", sodtest.Translation(0, 1, 0)).
		Bytes()

	root := scene.NewRoot("ship")
	res, err := New().Load(data, "ship.sod", root, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	barrel := res.Node("barrel")
	if barrel == nil {
		t.Fatal("barrel should still be created")
	}
	if barrel.Parent != nil || !barrel.Detached {
		t.Errorf("barrel should be top-level and detached")
	}
	if len(res.TopLevel) != 1 || res.TopLevel[0] != barrel {
		t.Errorf("TopLevel = %v", res.TopLevel)
	}
	d := res.DiagnosticsOf(DanglingParent)
	if len(d) != 1 || d[0].Name != "turret_left" {
		t.Errorf("DanglingParent = %+v", d)
	}
}

func TestLoad_FatalVersion(t *testing.T) {
	data := sodtest.New(1.95).Materials(hullMaterial).NodeCount(0).Bytes()

	res, err := New().Load(data, "future.sod", nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if res != nil {
		t.Error("no result should be produced on a fatal error")
	}
	if !formats.IsFatalFormat(err) || !errors.Is(err, formats.ErrUnsupportedSODVersion) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_RootRecordsReplacedByAttachRoot(t *testing.T) {
	data := sodtest.New(1.8).
		Materials().
		NodeCount(3).
		Hardpoint("scene_root", "", sodtest.Translation(5, 5, 5)).
		Hardpoint("hull", "scene_root", sodtest.Identity()).
		Hardpoint("gun", "hull", sodtest.Translation(0, 0, 2)).
		Bytes()

	root := scene.NewRoot("ship")
	res, err := New().Load(data, "ship.sod", root, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if res.Node("scene_root") != nil {
		t.Error("scene_root record should be skipped")
	}
	if len(res.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(res.Nodes))
	}
	hull := res.Node("hull")
	if hull.Parent != root || res.Node("gun").Parent != hull {
		t.Error("hierarchy not assembled under the attach root")
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Warnings())
	}
}

func TestLoad_RootRecordsKeptWithoutAttachRoot(t *testing.T) {
	data := sodtest.New(1.8).
		Materials().
		NodeCount(2).
		Hardpoint("root", "", sodtest.Identity()).
		Hardpoint("hull", "root", sodtest.Identity()).
		Bytes()

	res, err := New().Load(data, "ship.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rootNode := res.Node("root")
	if rootNode == nil || res.Node("hull").Parent != rootNode {
		t.Error("hull should attach to the root record")
	}
	if len(res.TopLevel) != 1 {
		t.Errorf("TopLevel = %d, want 1", len(res.TopLevel))
	}
}

func TestLoad_NodeKinds(t *testing.T) {
	data := sodtest.New(1.8).
		Materials().
		NodeCount(2).
		Hardpoint("mount", "", sodtest.Identity()).
		Emitter("exhaust", "mount", "smoke_trail", sodtest.Identity()).
		Bytes()

	res, err := New().Load(data, "ship.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Node("mount").Kind != scene.KindHardpoint {
		t.Error("mount should be a hardpoint")
	}
	exhaust := res.Node("exhaust")
	if exhaust.Kind != scene.KindEmitter || exhaust.Emitter != "smoke_trail" {
		t.Errorf("exhaust = %+v", exhaust)
	}
}

func effectDocument() []byte {
	return sodtest.New(1.8).
		Materials().
		NodeCount(3).
		Hardpoint("hull", "", sodtest.Translation(10, 0, 0)).
		EffectAttachment("engine_glow_01", "hull", sodtest.Translation(0, 2, 0)).
		EffectAttachment("beacon_3", "hull", sodtest.Identity()).
		Bytes()
}

func TestLoad_EffectAttachments(t *testing.T) {
	spawner := effect.NewRegistry(effect.Definition{Name: "engine_glow", Sprite: "glow"})
	log, logs := observed(zapcore.DebugLevel)

	res, err := New(WithEffects(spawner), WithLogger(log)).Load(effectDocument(), "ship.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(res.Effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(res.Effects))
	}
	inst := res.Effects[0]
	if inst.Key != "engine_glow" {
		t.Errorf("Key = %q", inst.Key)
	}
	if !inst.Position.ApproxEqual(math.Vec3{X: 10, Y: 2}, 1e-5) {
		t.Errorf("effect should spawn at the world transform, got %+v", inst.Position)
	}
	glow := res.Node("engine_glow_01")
	if glow == nil || glow.Kind != scene.KindEffect || glow.Effect != inst {
		t.Errorf("effect node = %+v", glow)
	}

	missing := res.DiagnosticsOf(EffectMissing)
	if len(missing) != 1 || missing[0].Name != "beacon" {
		t.Errorf("EffectMissing = %+v", missing)
	}
	if missing[0].Kind.Category() != MissingAsset {
		t.Error("effect lookups are missing-asset diagnostics")
	}
	entries := logs.FilterMessage("model diagnostic").FilterField(zap.String("node", "beacon_3")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.DebugLevel {
		t.Errorf("missing effect should be logged once at debug, got %v", entries)
	}
}

func TestLoad_EffectAttachmentsWithoutNodes(t *testing.T) {
	spawner := effect.NewRegistry(effect.Definition{Name: "engine_glow"})
	opts := DefaultOptions()
	opts.EffectNodes = false

	res, err := New(WithEffects(spawner), WithOptions(opts)).Load(effectDocument(), "ship.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Node("engine_glow_01") != nil {
		t.Error("no node should be created for effect attachments")
	}
	if len(res.Nodes) != 1 {
		t.Errorf("expected only the hull node, got %d", len(res.Nodes))
	}
	if len(res.Effects) != 1 || !res.Effects[0].Position.ApproxEqual(math.Vec3{X: 10, Y: 2}, 1e-5) {
		t.Errorf("Effects = %+v", res.Effects)
	}
}

type textureMap map[string]*image.NRGBA

func (m textureMap) Load(name string) (*image.NRGBA, error) {
	img, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", texture.ErrNotFound, name)
	}
	return img, nil
}

func TestLoad_Textures(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	glow := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	bump := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	textures := textureMap{
		"fedhull.tga":      base,
		"fedhull_glow.tga": glow,
		"fedhull_bump.tga": bump,
	}

	res, err := New(WithTextures(textures)).Load(hullDocument(), "hull.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh := res.Node("hull").Mesh
	if mesh.BaseTexture != base || mesh.GlowTexture != glow || mesh.BumpTexture != bump {
		t.Error("textures not bound")
	}
	if !mesh.Slots[0].Emissive {
		t.Error("a glow texture makes the slot emissive")
	}
	if len(res.DiagnosticsOf(TextureMissing)) != 0 {
		t.Error("no texture should be reported missing")
	}
}

func TestLoad_MissingBaseTextureUsesPlaceholder(t *testing.T) {
	log, logs := observed(zapcore.WarnLevel)

	res, err := New(WithTextures(textureMap{}), WithLogger(log)).Load(hullDocument(), "hull.sod", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh := res.Node("hull").Mesh
	if mesh.BaseTexture == nil || mesh.BaseTexture.Bounds().Dx() != 2 {
		t.Errorf("expected 2x2 placeholder, got %v", mesh.BaseTexture)
	}
	if mesh.GlowTexture != nil || mesh.BumpTexture != nil {
		t.Error("missing companion textures should stay nil")
	}
	d := res.DiagnosticsOf(TextureMissing)
	if len(d) != 1 || d[0].Name != "fedhull.tga" || d[0].Err != nil {
		t.Errorf("TextureMissing = %+v", d)
	}
	if logs.FilterField(zap.String("name", "fedhull.tga")).Len() != 1 {
		t.Error("missing base texture should be logged as a warning")
	}
}

func TestLoad_MaterialFallback(t *testing.T) {
	res, err := New().Load(hullDocument(), "hull.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	slot := res.Node("hull").Mesh.Slots[0]
	if slot.Material == nil || slot.Material.Name != material.DefaultMaterial {
		t.Errorf("slot material = %+v", slot.Material)
	}
	d := res.DiagnosticsOf(MaterialFallback)
	if len(d) != 1 || d[0].Name != "hull" {
		t.Errorf("MaterialFallback = %+v", d)
	}
}

func TestLoad_RegistryVariant(t *testing.T) {
	reg := material.NewLegacyRegistry()
	reg.Seed([]material.Seed{{Name: "hull", Shader: material.ShaderLit}})

	mesh := hullMesh()
	mesh.Surface = "alpha"
	mesh.Cull = 0
	data := sodtest.New(1.8).
		Materials(hullMaterial, lmapMaterial).
		NodeCount(1).
		Mesh("hull", "", sodtest.Identity(), mesh).
		Bytes()

	res, err := New(WithMaterials(reg)).Load(data, "hull.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := res.Node("hull").Mesh.Slots[0].Material
	if m.Name != "hull_alpha_culloff" || !m.Transparent || m.BackfaceCulling {
		t.Errorf("material = %+v", m)
	}
	if !reg.Has("hull_alpha_culloff") {
		t.Error("variant should be inserted into the registry")
	}
}

func TestLoad_EmptyMesh(t *testing.T) {
	mesh := hullMesh()
	mesh.Groups = []sodtest.Group{mesh.Groups[1]}
	data := sodtest.New(1.8).
		Materials(lmapMaterial).
		NodeCount(1).
		Mesh("panel", "", sodtest.Identity(), mesh).
		Bytes()

	res, err := New().Load(data, "panel.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	panel := res.Node("panel")
	if panel == nil || panel.Mesh != nil {
		t.Errorf("panel should exist without a mesh component: %+v", panel)
	}
	if len(res.DiagnosticsOf(EmptyMesh)) != 1 {
		t.Error("expected an EmptyMesh diagnostic")
	}
}

func TestLoad_UndefinedGroupMaterial(t *testing.T) {
	data := sodtest.New(1.8).
		Materials().
		NodeCount(1).
		Mesh("hull", "", sodtest.Identity(), hullMesh()).
		Bytes()

	res, err := New().Load(data, "hull.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DiagnosticsOf(UndefinedMaterial)) != 2 {
		t.Errorf("UndefinedMaterial = %+v", res.DiagnosticsOf(UndefinedMaterial))
	}
	// Undefined materials are not lightmaps, so both groups keep their faces.
	if got := res.Node("hull").Mesh.TriangleCount(); got != 3 {
		t.Errorf("TriangleCount = %d, want 3", got)
	}
}

func TestLoad_Winding(t *testing.T) {
	opts := DefaultOptions()
	opts.Winding = model.WindingReversed

	stored, _ := New().Load(hullDocument(), "hull.sod", nil, nil)
	reversed, _ := New(WithOptions(opts)).Load(hullDocument(), "hull.sod", nil, nil)

	s := stored.Node("hull").Mesh.Submeshes[0]
	r := reversed.Node("hull").Mesh.Submeshes[0]
	corner := func(sub model.Submesh, i int) math.Vec3 {
		return sub.Vertices[sub.Indices[i]]
	}
	if corner(s, 0) != corner(r, 0) || corner(s, 1) != corner(r, 2) || corner(s, 2) != corner(r, 1) {
		t.Errorf("reversed winding should swap the last two corners")
	}
}

func TestLoad_DuplicatesAndAnimations(t *testing.T) {
	data := sodtest.New(1.8).
		Materials(hullMaterial, hullMaterial).
		NodeCount(2).
		Hardpoint("light", "", sodtest.Identity()).
		Hardpoint("light", "", sodtest.Identity()).
		Animations(
			sodtest.Animation{Type: 1, Node: "light", Animation: "blink"},
			sodtest.Animation{Type: 1, Node: "ghost", Animation: "scroll"},
		).
		Bytes()

	res, err := New().Load(data, "lights.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DiagnosticsOf(DuplicateMaterial)) != 1 {
		t.Error("expected a DuplicateMaterial diagnostic")
	}
	if len(res.DiagnosticsOf(DuplicateName)) != 1 {
		t.Error("expected a DuplicateName diagnostic")
	}
	unknown := res.DiagnosticsOf(AnimationUnknownNode)
	if len(unknown) != 1 || unknown[0].Node != "ghost" {
		t.Errorf("AnimationUnknownNode = %+v", unknown)
	}
	if len(res.Nodes) != 2 {
		t.Errorf("every record should produce a node, got %d", len(res.Nodes))
	}
}

func TestResult_Warnings(t *testing.T) {
	res, err := New().Load(hullDocument(), "hull.sod", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	errs := multierr.Errors(res.Warnings())
	if len(errs) != len(res.Diagnostics) {
		t.Errorf("Warnings has %d errors, want %d", len(errs), len(res.Diagnostics))
	}

	empty := &Result{}
	if empty.Warnings() != nil {
		t.Error("no diagnostics should give a nil error")
	}
}

func TestLoadModel_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hull.sod")
	if err := os.WriteFile(path, hullDocument(), 0644); err != nil {
		t.Fatal(err)
	}

	log, logs := observed(zapcore.InfoLevel)
	res, err := LoadModel(path, nil, nil, WithLogger(log))
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if res.Document.Version != 1.8 || res.Node("hull") == nil {
		t.Errorf("unexpected result: %+v", res)
	}
	if logs.FilterMessage("model loaded").Len() != 1 {
		t.Error("expected a load summary log entry")
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.sod"), nil, nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{Kind: LightmapSkipped, Node: "hull", Group: 1, Name: "lmap", Detail: "no rule"}
	want := "lightmap_skipped node=hull group=1 name=lmap: no rule"
	if d.Error() != want {
		t.Errorf("Error() = %q, want %q", d.Error(), want)
	}

	wrapped := Diagnostic{Kind: TextureMissing, Group: -1, Err: texture.ErrNotFound}
	if !errors.Is(wrapped, texture.ErrNotFound) {
		t.Error("Diagnostic should unwrap to its error")
	}
}
