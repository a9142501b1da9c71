// Package effect spawns visual effects for SOD effect-attachment nodes.
package effect

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/Faultbox/storm3d/pkg/math"
)

// ErrNotFound is returned when no effect is registered under a key.
var ErrNotFound = errors.New("effect not found")

var instanceSuffix = regexp.MustCompile(`_\d+$`)

// Key strips a trailing "_<digits>" instance suffix from a node name.
func Key(nodeName string) string {
	return instanceSuffix.ReplaceAllString(nodeName, "")
}

// Spawner creates an effect instance at a world transform.
type Spawner interface {
	Spawn(key string, world math.Mat4) (*Instance, error)
}

// Definition describes a spawnable effect.
type Definition struct {
	Name     string  `yaml:"name"`
	Sprite   string  `yaml:"sprite"`
	Duration float32 `yaml:"duration"` // Seconds; 0 loops
}

// Instance is a spawned effect.
type Instance struct {
	Definition *Definition
	Key        string
	Position   math.Vec3
	Rotation   math.Quat
	Scale      math.Vec3
}

// Registry is an in-process Spawner backed by named definitions.
type Registry struct {
	defs map[string]*Definition
	mu   sync.RWMutex
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a definition.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := def
	r.defs[def.Name] = &d
}

// Lookup returns the definition registered under key.
func (r *Registry) Lookup(key string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[key]
	return d, ok
}

// Names returns the registered keys, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spawn creates an instance of key positioned by world.
func (r *Registry) Spawn(key string, world math.Mat4) (*Instance, error) {
	def, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	pos, rot, scale := world.Decompose()
	return &Instance{
		Definition: def,
		Key:        key,
		Position:   pos,
		Rotation:   rot,
		Scale:      scale,
	}, nil
}
