// Package assets prepares generated capsule meshes for output, writes and
// reads them, and caches meshes that are requested more than once.
package assets

import (
	"fmt"
	gomath "math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/capsulemaker/internal/logger"
	"github.com/Faultbox/capsulemaker/pkg/capsule"
	"github.com/Faultbox/capsulemaker/pkg/formats"
)

// Key identifies one generated and post-processed mesh.
type Key struct {
	Params  capsule.Params
	Options Options
}

// Manager generates meshes on demand and caches the results. It is safe for
// concurrent use.
type Manager struct {
	meshes *Cache[Key, *Prepared]
	files  *Cache[string, *formats.Mesh]
	log    *zap.Logger

	builds singleflight.Group
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		meshes: NewCache[Key, *Prepared](),
		files:  NewCache[string, *formats.Mesh](),
		log:    logger.Named("assets"),
	}
}

// Mesh returns the capsule for p after the post-processing in opts.
// Concurrent requests for the same key generate it once. Callers must not
// modify the returned buffers.
func (m *Manager) Mesh(p capsule.Params, opts Options) (*Prepared, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := Key{Params: p.Normalize(), Options: opts}

	if prepared, ok := m.meshes.Get(key); ok {
		return prepared, nil
	}

	v, err, _ := m.builds.Do(keyString(key), func() (any, error) {
		// The build may have finished between the Get above and Do.
		if prepared, ok := m.meshes.peek(key); ok {
			return prepared, nil
		}
		prepared, err := m.build(key)
		if err != nil {
			return nil, err
		}
		m.meshes.Set(key, prepared)
		return prepared, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Prepared), nil
}

// keyString encodes key for singleflight, which groups calls by string.
func keyString(key Key) string {
	p, o := key.Params, key.Options
	return fmt.Sprintf("%d/%d/%d/%x/%x/%d/%t/%t/%t/%t",
		p.Longitudes, p.Latitudes, p.Rings,
		gomath.Float32bits(p.Depth), gomath.Float32bits(p.Radius), int(p.Profile),
		o.Flat, o.Smooth, o.ReverseWinding, o.Tangents)
}

func (m *Manager) build(key Key) (*Prepared, error) {
	start := time.Now()

	buf, err := capsule.Generate(key.Params)
	if err != nil {
		return nil, err
	}
	prepared, err := Prepare(buf, key.Options)
	if err != nil {
		return nil, err
	}

	p := key.Params
	m.log.Debug("capsule generated",
		zap.Int("longitudes", p.Longitudes),
		zap.Int("latitudes", p.Latitudes),
		zap.Int("rings", p.Rings),
		zap.Stringer("profile", p.Profile),
		zap.Float32("ratio", p.Profile.Ratio(p)),
		zap.Bool("flat", key.Options.Flat),
		zap.Int("vertices", prepared.Buffers.VertexCount()),
		zap.Int("triangles", prepared.Buffers.TriangleCount()),
		logger.Elapsed(start))
	return prepared, nil
}

// LoadFile loads a CMSH file, caching it by path.
func (m *Manager) LoadFile(path string) (*formats.Mesh, error) {
	if mesh, ok := m.files.Get(path); ok {
		return mesh, nil
	}

	mesh, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	m.files.Set(path, mesh)
	return mesh, nil
}

// Stats returns the combined cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	mh, mm := m.meshes.Stats()
	fh, fm := m.files.Stats()
	return mh + fh, mm + fm
}

// Close drops every cached mesh.
func (m *Manager) Close() {
	m.meshes.Clear()
	m.files.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache[K comparable, V any] struct {
	data map[K]V
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		data: make(map[K]V),
	}
}

// Get retrieves an item from cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// peek is Get without touching the statistics.
func (c *Cache[K, V]) peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[K, V]) Set(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Len returns the number of cached items.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]V)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
