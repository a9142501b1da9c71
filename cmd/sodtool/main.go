// sodtool is a CLI utility for inspecting and loading Storm3D_SW SOD models.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/storm3d/internal/config"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/internal/engine/scene"
	"github.com/Faultbox/storm3d/internal/loader"
	"github.com/Faultbox/storm3d/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		os.Exit(cmdInfo(args))
	case "materials", "mat":
		os.Exit(cmdMaterials(args))
	case "tree":
		os.Exit(cmdTree(args))
	case "mesh":
		os.Exit(cmdMesh(args))
	case "load":
		os.Exit(cmdLoad(args))
	case "config":
		os.Exit(cmdConfig(args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sodtool - Storm3D_SW SOD model utility

Usage:
  sodtool <command> [options]

Commands:
  info <file.sod>          Show header, feature set and counts
  materials <file.sod>     List the material table
  tree <file.sod>          Load the model and print its node hierarchy
  mesh <file.sod> [node]   Show reconstructed submeshes per mesh node
  load <file.sod>...       Load models with textures and report diagnostics
  config [output.yaml]     Print or write the effective configuration

Common options:
  -config <path>           Config file (default ./sodtool.yaml)
  -textures <dirs>         Comma-separated texture directories
  -winding stored|reversed Triangle winding
  -rules <file.yaml>       Legacy lightmap rules (replaces config)
  -debug                   Debug logging

Examples:
  sodtool info fed_cruiser.sod
  sodtool tree -root scene_root fed_cruiser.sod
  sodtool load -textures base,mods fed_cruiser.sod kli_bop.sod`)
}

// parse parses args with the shared flags registered on fs and loads the config.
func parse(fs *flag.FlagSet, args []string) *config.Config {
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfg := parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sodtool info <file.sod>")
		return 1
	}

	env := mustEnv(cfg)
	defer env.Close()

	path := env.modelPath(fs.Arg(0))
	doc, err := formats.ParseSODFileWithOptions(path, env.opts.Parse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Version:   %.3f\n", doc.Version)
	fmt.Printf("Features:  %s\n", doc.Features)
	fmt.Printf("Materials: %d\n", len(doc.Materials))
	fmt.Printf("Nodes:     %d\n", len(doc.Nodes))
	fmt.Printf("Vertices:  %d\n", doc.GetTotalVertexCount())
	fmt.Printf("Faces:     %d\n", doc.GetTotalFaceCount())
	fmt.Printf("Anims:     %d", len(doc.Animations))
	if doc.AnimationsTruncated {
		fmt.Print(" (truncated trailer)")
	}
	fmt.Println()
	fmt.Println()
	fmt.Println("Nodes by type:")

	counts := doc.CountNodes()
	types := make([]formats.SODNodeType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, counts[t])
	}

	if len(doc.DuplicateMaterials) > 0 {
		fmt.Printf("\nDuplicate materials: %s\n", strings.Join(doc.DuplicateMaterials, ", "))
	}
	return 0
}

func cmdMaterials(args []string) int {
	fs := flag.NewFlagSet("materials", flag.ExitOnError)
	cfg := parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sodtool materials <file.sod>")
		return 1
	}

	env := mustEnv(cfg)
	defer env.Close()

	doc, err := formats.ParseSODFileWithOptions(env.modelPath(fs.Arg(0)), env.opts.Parse)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("%-24s %-8s %-8s %-6s %s\n", "NAME", "AMBIENT", "SPECPOW", "MODEL", "FLAGS")
	for _, m := range doc.Materials {
		var flags []string
		if material.IsBakedLightmap(m.Ambient) {
			flags = append(flags, "lightmap")
		}
		if m.SelfIllumination {
			flags = append(flags, "self-illum")
		}
		fmt.Printf("%-24s %-8.3f %-8.2f %-6d %s\n",
			m.Name, m.Ambient.MaxComponent(), m.SpecularPower, m.LightingModel, strings.Join(flags, ","))
	}
	return 0
}

func cmdTree(args []string) int {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	rootName := fs.String("root", "", "Attach under a root node with this name")
	cfg := parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sodtool tree [-root name] <file.sod>")
		return 1
	}

	env := mustEnv(cfg)
	defer env.Close()

	var root *scene.Node
	if *rootName != "" {
		root = scene.NewRoot(*rootName)
	}

	res, err := env.loader(false).LoadFile(env.modelPath(fs.Arg(0)), root, env.rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	tops := res.TopLevel
	if root != nil {
		tops = append([]*scene.Node{root}, tops...)
	}
	for _, top := range tops {
		top.Walk(func(n *scene.Node, depth int) bool {
			fmt.Printf("%s%s [%s]%s\n", strings.Repeat("  ", depth), n.Name, n.Kind, nodeSummary(n))
			return true
		})
	}
	return 0
}

func nodeSummary(n *scene.Node) string {
	switch {
	case n.Mesh != nil:
		var mats []string
		for _, s := range n.Mesh.Slots {
			switch {
			case s.Skipped:
				mats = append(mats, material.SkipMaterial)
			case s.Material != nil:
				mats = append(mats, s.Material.Name)
			}
		}
		return fmt.Sprintf(" %d tris {%s}", n.Mesh.TriangleCount(), strings.Join(mats, " "))
	case n.Emitter != "":
		return " emitter=" + n.Emitter
	case n.Effect != nil:
		return " effect=" + n.Effect.Definition.Name
	case n.Detached:
		return " (detached from " + n.ParentName + ")"
	}
	return ""
}

func cmdMesh(args []string) int {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	cfg := parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sodtool mesh <file.sod> [node]")
		return 1
	}

	env := mustEnv(cfg)
	defer env.Close()

	res, err := env.loader(false).LoadFile(env.modelPath(fs.Arg(0)), nil, env.rules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	only := fs.Arg(1)
	shown := 0
	for _, n := range res.Nodes {
		if n.Mesh == nil || (only != "" && n.Name != only) {
			continue
		}
		shown++

		b := n.Mesh.Bounds
		fmt.Printf("%s (texture %q)\n", n.Path(), n.Mesh.Texture)
		fmt.Printf("  bounds (%.2f %.2f %.2f) - (%.2f %.2f %.2f)\n",
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		for i, sm := range n.Mesh.Submeshes {
			slot := n.Mesh.Slots[i]
			name := material.SkipMaterial
			if slot.Material != nil {
				name = slot.Material.Name
			}
			emissive := ""
			if slot.Emissive {
				emissive = " emissive"
			}
			fmt.Printf("  [%d] %-28s %5d verts %5d tris%s\n",
				i, name, len(sm.Vertices), sm.TriangleCount(), emissive)
		}
		packed := model.Interleave(n.Mesh.Submeshes)
		fmt.Printf("  packed: %d vertices, %d indices, %d ranges\n",
			len(packed.Vertices), len(packed.Indices), len(packed.Ranges))
	}

	if shown == 0 {
		fmt.Fprintln(os.Stderr, "No mesh nodes found")
	}
	return 0
}

func cmdLoad(args []string) int {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print every diagnostic")
	cfg := parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sodtool load [-v] <file.sod>...")
		return 1
	}

	env := mustEnv(cfg)
	defer env.Close()

	l := env.loader(true)
	failed := 0
	for _, name := range fs.Args() {
		res, err := l.LoadFile(env.modelPath(name), nil, env.rules)
		if err != nil {
			env.log.Error("model load failed", zap.String("file", name), zap.Error(err))
			if formats.IsFatalFormat(err) {
				fmt.Fprintf(os.Stderr, "Invalid model: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			failed++
			continue
		}

		tris := 0
		for _, n := range res.Nodes {
			if n.Mesh != nil {
				tris += n.Mesh.TriangleCount()
			}
		}
		fmt.Printf("%s: %d nodes, %d triangles, %d effects, %d diagnostics\n",
			name, len(res.Nodes), tris, len(res.Effects), len(res.Diagnostics))

		byKind := make(map[loader.DiagnosticKind]int)
		for _, d := range res.Diagnostics {
			byKind[d.Kind]++
			if *verbose {
				fmt.Printf("  %s\n", d.Error())
			}
		}
		if !*verbose {
			kinds := make([]loader.DiagnosticKind, 0, len(byKind))
			for k := range byKind {
				kinds = append(kinds, k)
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			for _, k := range kinds {
				fmt.Printf("  %-22s %d\n", k, byKind[k])
			}
		}
	}

	hits, misses := env.textures.Stats()
	fmt.Fprintf(os.Stderr, "\n(%d textures, %d hits, %d misses, %d materials)\n",
		env.textures.Len(), hits, misses, env.materials.Len())

	if failed > 0 {
		return 1
	}
	return 0
}

func cmdConfig(args []string) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfg := parse(fs, args)

	if fs.NArg() > 0 {
		if err := cfg.SaveTo(fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Wrote: %s\n", fs.Arg(0))
		return 0
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("# user config dir: %s\n", config.ConfigDir())
	os.Stdout.Write(data)
	return 0
}
