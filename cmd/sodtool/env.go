package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/storm3d/internal/assets"
	"github.com/Faultbox/storm3d/internal/config"
	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/internal/engine/texture"
	"github.com/Faultbox/storm3d/internal/loader"
	"github.com/Faultbox/storm3d/internal/logger"
	"github.com/Faultbox/storm3d/pkg/encoding"
)

// env holds the collaborators shared by every model loaded in one run.
type env struct {
	cfg       *config.Config
	log       *zap.Logger
	assets    *assets.Manager
	textures  *texture.Cache
	materials *material.Registry
	effects   *effect.Registry
	rules     *material.RuleTable
	opts      loader.Options
}

func mustEnv(cfg *config.Config) *env {
	e, err := newEnv(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return e
}

func newEnv(cfg *config.Config) (*env, error) {
	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		File:    logFile(cfg.Logging.LogFile),
		Console: os.Stderr,
	})

	winding, err := model.ParseWinding(cfg.Loader.Winding)
	if err != nil {
		return nil, err
	}
	charset, err := encoding.ParseCharset(cfg.Loader.Charset)
	if err != nil {
		return nil, err
	}
	rules, err := material.CompileRules(cfg.LegacyLightmaps)
	if err != nil {
		return nil, err
	}

	manager := assets.NewManager()
	for _, dir := range cfg.Assets.TextureDirs {
		if err := manager.AddDir(dir); err != nil {
			log.Debug("skipping texture dir", zap.String("dir", dir), zap.Error(err))
		}
	}

	materials := material.NewLegacyRegistry()
	for _, name := range materials.Seed(cfg.Materials) {
		log.Warn("material seed ignored", zap.String("name", name))
	}
	if !materials.Has(cfg.Loader.DefaultMaterial) {
		return nil, fmt.Errorf("default material %q is not registered", cfg.Loader.DefaultMaterial)
	}
	materials.SetFallback(cfg.Loader.DefaultMaterial)

	opts := loader.DefaultOptions()
	opts.Parse.Charset = charset
	opts.Parse.ConvertHandedness = cfg.Loader.ConvertHandedness
	opts.Winding = winding
	opts.EffectNodes = cfg.Loader.EffectNodes
	opts.TextureExt = cfg.Assets.TextureExt
	if len(cfg.Loader.RootAliases) > 0 {
		opts.RootAliases = cfg.Loader.RootAliases
	}

	log.Debug("environment ready",
		zap.Strings("texture_dirs", manager.Dirs()),
		zap.Int("rules", rules.Len()),
		zap.Int("materials", materials.Len()),
		zap.Int("effects", len(cfg.Effects)))

	return &env{
		cfg:       cfg,
		log:       log,
		assets:    manager,
		textures:  texture.NewCache(manager),
		materials: materials,
		effects:   effect.NewRegistry(cfg.Effects...),
		rules:     rules,
		opts:      opts,
	}, nil
}

func logFile(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

// loader returns a loader over the shared collaborators. Textures are
// decoded only when withTextures is set.
func (e *env) loader(withTextures bool) *loader.Loader {
	opts := []loader.Option{
		loader.WithLogger(e.log.Named("loader")),
		loader.WithOptions(e.opts),
		loader.WithMaterials(e.materials),
		loader.WithEffects(e.effects),
	}
	if withTextures {
		opts = append(opts, loader.WithTextures(e.textures))
	}
	return loader.New(opts...)
}

// modelPath returns name as given when it exists, else joined with the
// configured model directory.
func (e *env) modelPath(name string) string {
	if _, err := os.Stat(name); err == nil || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.cfg.Assets.ModelDir, name)
}

func (e *env) Close() {
	e.assets.Close()
	logger.Sync(e.log)
}
