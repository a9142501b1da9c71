package texture

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"
)

// ErrNotFound is returned when a texture cannot be located.
var ErrNotFound = errors.New("texture not found")

// Source supplies raw texture bytes by name. A missing file must be
// reported with an error that wraps fs.ErrNotExist or ErrNotFound.
type Source interface {
	Load(name string) ([]byte, error)
}

// Cache decodes textures on first request and keeps the result,
// including failed lookups, for the lifetime of the cache.
type Cache struct {
	source Source
	items  map[string]*cacheEntry
	mu     sync.RWMutex

	hits   int
	misses int
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a texture cache reading from source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		items:  make(map[string]*cacheEntry),
	}
}

// Load returns the decoded texture for name. Missing files yield an error
// wrapping ErrNotFound.
func (c *Cache) Load(name string) (*image.NRGBA, error) {
	c.mu.RLock()
	if entry, ok := c.items[name]; ok {
		c.mu.RUnlock()
		c.count(true)
		return entry.img, entry.err
	}
	c.mu.RUnlock()
	c.count(false)

	entry := c.decode(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[name]; ok {
		return existing.img, existing.err
	}
	c.items[name] = entry
	return entry.img, entry.err
}

func (c *Cache) decode(name string) *cacheEntry {
	if c.source == nil {
		return &cacheEntry{err: fmt.Errorf("%w: %s", ErrNotFound, name)}
	}
	data, err := c.source.Load(name)
	if err != nil {
		if isNotFound(err) {
			return &cacheEntry{err: fmt.Errorf("%w: %s", ErrNotFound, name)}
		}
		return &cacheEntry{err: fmt.Errorf("loading %s: %w", name, err)}
	}
	img, err := Decode(name, data)
	if err != nil {
		return &cacheEntry{err: err}
	}
	return &cacheEntry{img: img}
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear drops all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheEntry)
	c.hits = 0
	c.misses = 0
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
