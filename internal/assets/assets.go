// Package assets locates model and texture files on disk.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager resolves asset names against a list of search directories.
// Directories are searched in reverse order (last added = highest priority).
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager(dirs ...string) *Manager {
	m := &Manager{
		cache: NewCache(),
	}
	for _, d := range dirs {
		m.dirs = append(m.dirs, filepath.Clean(d))
	}
	return m
}

// AddDir adds a search directory.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding search dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding search dir %s: not a directory", dir)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, filepath.Clean(dir))
	m.mu.Unlock()
	return nil
}

// Dirs returns the search directories in priority order.
func (m *Manager) Dirs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dirs))
	for i := len(m.dirs) - 1; i >= 0; i-- {
		out = append(out, m.dirs[i])
	}
	return out
}

// Resolve returns the on-disk path for name. Backslash separators are
// accepted, and a lower-cased name is tried when the exact one is absent.
func (m *Manager) Resolve(name string) (string, error) {
	rel := NormalizePath(name)
	candidates := []string{rel}
	if lower := strings.ToLower(rel); lower != rel {
		candidates = append(candidates, lower)
	}

	for _, dir := range m.Dirs() {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("file not found: %s: %w", name, fs.ErrNotExist)
}

// Load reads a file from the search directories.
func (m *Manager) Load(name string) ([]byte, error) {
	key := NormalizePath(name)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m.cache.Set(key, data)
	return data, nil
}

// Exists reports whether name resolves to a file.
func (m *Manager) Exists(name string) bool {
	_, err := m.Resolve(name)
	return err == nil
}

// Close drops cached data and search directories.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = nil
	m.cache.Clear()
}

// Cache returns the manager's byte cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// IsNotFound reports whether err is a missing-asset error.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// NormalizePath converts a stored asset name to a slash-separated
// relative path.
func NormalizePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	return filepath.FromSlash(name)
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
