// Package config handles tool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/storm3d/internal/engine/effect"
	"github.com/Faultbox/storm3d/internal/engine/material"
	"github.com/Faultbox/storm3d/internal/engine/model"
	"github.com/Faultbox/storm3d/pkg/encoding"
)

// Config holds all loader settings.
type Config struct {
	Assets          AssetsConfig        `yaml:"assets"`
	Loader          LoaderConfig        `yaml:"loader"`
	LegacyLightmaps []material.Rule     `yaml:"legacy_lightmaps"`
	Materials       []material.Seed     `yaml:"materials"`
	Effects         []effect.Definition `yaml:"effects"`
	Logging         LoggingConfig       `yaml:"logging"`
}

// AssetsConfig holds model and texture search paths.
type AssetsConfig struct {
	ModelDir    string   `yaml:"model_dir"`
	TextureDirs []string `yaml:"texture_dirs"` // Later entries win
	TextureExt  string   `yaml:"texture_ext"`
}

// LoaderConfig holds parsing and projection settings.
type LoaderConfig struct {
	Winding           string   `yaml:"winding"` // "stored" or "reversed"
	Charset           string   `yaml:"charset"`
	ConvertHandedness bool     `yaml:"convert_handedness"`
	DefaultMaterial   string   `yaml:"default_material"` // Registry entry for unknown names
	EffectNodes       bool     `yaml:"effect_nodes"`
	RootAliases       []string `yaml:"root_aliases"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			ModelDir:    ".",
			TextureDirs: []string{"textures"},
			TextureExt:  ".tga",
		},
		Loader: LoaderConfig{
			Winding:           model.WindingAsStored.String(),
			Charset:           string(encoding.CharsetUTF8),
			ConvertHandedness: true,
			DefaultMaterial:   material.DefaultMaterial,
			EffectNodes:       true,
			RootAliases:       []string{"root", "scene_root"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that are parsed later, reporting every problem.
func (c *Config) Validate() error {
	var err error
	if _, e := model.ParseWinding(c.Loader.Winding); e != nil {
		err = multierr.Append(err, fmt.Errorf("loader.winding: %w", e))
	}
	if _, e := encoding.ParseCharset(c.Loader.Charset); e != nil {
		err = multierr.Append(err, fmt.Errorf("loader.charset: %w", e))
	}
	if _, e := material.CompileRules(c.LegacyLightmaps); e != nil {
		err = multierr.Append(err, fmt.Errorf("legacy_lightmaps: %w", e))
	}
	if c.Loader.DefaultMaterial == "" {
		err = multierr.Append(err, fmt.Errorf("loader.default_material: empty"))
	}
	for i, s := range c.Materials {
		if s.Name == "" {
			err = multierr.Append(err, fmt.Errorf("materials[%d]: missing name", i))
		}
	}
	for i, d := range c.Effects {
		if d.Name == "" {
			err = multierr.Append(err, fmt.Errorf("effects[%d]: missing name", i))
		}
	}
	return err
}
