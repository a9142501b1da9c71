package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides.
type Flags struct {
	Config   string
	Debug    bool
	Textures string
	Winding  string
	Rules    string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Textures, "textures", "", "Comma-separated texture directories (highest priority last)")
	fs.StringVar(&f.Winding, "winding", "", "Triangle winding: stored or reversed")
	fs.StringVar(&f.Rules, "rules", "", "YAML file replacing legacy_lightmaps")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Textures != "" {
		var dirs []string
		for _, d := range strings.Split(f.Textures, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		cfg.Assets.TextureDirs = dirs
	}
	if f.Winding != "" {
		cfg.Loader.Winding = f.Winding
	}
}
