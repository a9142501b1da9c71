package material

import (
	"sort"
	"sync"
)

// Seed describes a material to preload into a registry.
type Seed struct {
	Name            string `yaml:"name"`
	Shader          string `yaml:"shader"`
	Transparent     bool   `yaml:"transparent"`
	Additive        bool   `yaml:"additive"`
	BackfaceCulling *bool  `yaml:"backface_culling"` // nil means culled
	Alias           string `yaml:"alias"`            // Share another entry instead
}

// Registry maps material keys to shared materials.
// Entries are only ever added; an existing key is never replaced.
type Registry struct {
	materials map[string]*Material
	fallback  string
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		materials: make(map[string]*Material),
		fallback:  DefaultMaterial,
	}
}

// SetFallback sets the entry Assign uses for unknown names.
// An empty name restores DefaultMaterial.
func (r *Registry) SetFallback(name string) {
	if name == "" {
		name = DefaultMaterial
	}
	r.mu.Lock()
	r.fallback = name
	r.mu.Unlock()
}

// Fallback returns the entry Assign uses for unknown names.
func (r *Registry) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// NewLegacyRegistry creates a registry holding the shared materials that
// legacy content refers to by name.
func NewLegacyRegistry() *Registry {
	r := NewRegistry()
	noCull := false
	r.Seed(LegacySeeds(&noCull))
	return r
}

// LegacySeeds returns the built-in shared material set.
func LegacySeeds(noCull *bool) []Seed {
	return []Seed{
		{Name: "stdhull", Shader: ShaderLit},
		{Name: "stdhull_additive", Shader: ShaderLit, Additive: true},
		{Name: "lightmap", Shader: ShaderUnlit},
		{Name: "lightmap_alpha", Shader: ShaderUnlit, Transparent: true},
		{Name: "lightmap_additive", Shader: ShaderUnlit, Additive: true},
		{Name: "lightmap_alpha_nocull", Shader: ShaderUnlit, Transparent: true, BackfaceCulling: noCull},
		{Name: "sprite_additive", Shader: ShaderFlipbook, Additive: true},
		{Name: "sprite_alpha", Shader: ShaderFlipbook, Transparent: true},
		{Name: "sprite", Shader: ShaderFlipbook, BackfaceCulling: noCull},
		{Name: "nospec", Alias: "stdhull"},
		{Name: "lmap", Alias: "lightmap"},
	}
}

// Seed inserts seeds in order. Aliases must follow their target.
// It returns the names that were skipped because they already existed or
// pointed at an unknown alias target.
func (r *Registry) Seed(seeds []Seed) []string {
	var skipped []string
	for _, s := range seeds {
		if s.Alias != "" {
			target, ok := r.Get(s.Alias)
			if !ok || !r.Add(s.Name, target) {
				skipped = append(skipped, s.Name)
			}
			continue
		}
		shader := s.Shader
		if shader == "" {
			shader = ShaderLit
		}
		v := Variant{Transparent: s.Transparent, Additive: s.Additive, BackfaceCulling: true}
		if s.BackfaceCulling != nil {
			v.BackfaceCulling = *s.BackfaceCulling
		}
		if !r.Add(s.Name, newMaterial(s.Name, s.Name, shader, v)) {
			skipped = append(skipped, s.Name)
		}
	}
	return skipped
}

// Get returns the material registered under key.
func (r *Registry) Get(key string) (*Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.materials[key]
	return m, ok
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Add registers m under key unless key is already present.
func (r *Registry) Add(key string, m *Material) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.materials[key]; exists {
		return false
	}
	r.materials[key] = m
	return true
}

// GetOrCreate returns the variant of base for v, creating it from the base
// entry's shader on first request. An unknown base uses the lit shader.
func (r *Registry) GetOrCreate(base string, v Variant) *Material {
	key := v.Key(base)

	r.mu.RLock()
	m, ok := r.materials[key]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if m, ok := r.materials[key]; ok {
		return m
	}
	shader := ShaderLit
	if parent, ok := r.materials[base]; ok {
		shader = parent.Shader
	}
	m = newMaterial(key, base, shader, v)
	r.materials[key] = m
	return m
}

// Names returns all registered keys, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.materials))
	for name := range r.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.materials)
}
