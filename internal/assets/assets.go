// Package assets loads animated models from disk and caches them by path.
package assets

import (
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/model"
	"github.com/Faultbox/midgard-anim/internal/loader"
	"github.com/Faultbox/midgard-anim/internal/logger"
)

// Manager loads and bakes models once per path and shares the result.
// It is safe for concurrent use.
type Manager struct {
	cfg    config.AnimationConfig
	cache  *Cache
	flight singleflight.Group
}

// NewManager creates a manager that bakes with cfg.
func NewManager(cfg config.AnimationConfig) *Manager {
	return &Manager{
		cfg:   cfg,
		cache: NewCache(),
	}
}

// Load returns the model at path, loading and baking it on first use.
// Concurrent loads of the same path share one bake.
func (m *Manager) Load(path string) (*model.Model, error) {
	if mdl, ok := m.cache.Get(path); ok {
		return mdl, nil
	}

	v, err, shared := m.flight.Do(path, func() (any, error) {
		asset, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}
		mdl, err := model.New(ModelName(path), asset.Armature, asset.Clips, m.cfg)
		if err != nil {
			return nil, err
		}
		m.cache.Set(path, mdl)
		return mdl, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Named("assets").Debug("shared in-flight load", zap.String("path", path))
	}
	return v.(*model.Model), nil
}

// Close drops every cached model.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// ModelName derives a model name from its file name.
func ModelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Cache is an in-memory model cache.
type Cache struct {
	data map[string]*model.Model
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*model.Model),
	}
}

// Get retrieves a model from cache.
func (c *Cache) Get(key string) (*model.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mdl, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return mdl, ok
}

// Set stores a model in cache.
func (c *Cache) Set(key string, mdl *model.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = mdl
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*model.Model)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
