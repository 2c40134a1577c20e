package solver

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/microdog/wechat-automated-jump-game/internal/core/observability"
	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

const DefaultCacheSize = 10

// TemplateCache maps a frame scale to the template prepared for it.
// One mutex covers every operation; building a template happens outside it.
type TemplateCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[float64, *vision.Template]
}

func NewTemplateCache(size int) *TemplateCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := simplelru.NewLRU[float64, *vision.Template](size, nil)
	return &TemplateCache{lru: c}
}

// Get returns the template for scale and marks it most recently used.
func (c *TemplateCache) Get(scale float64) (*vision.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lru.Get(scale)
	if ok {
		observability.IncTemplateCacheHit()
	} else {
		observability.IncTemplateCacheMiss()
	}
	return t, ok
}

// Put inserts or replaces the entry for scale, evicting the least recently
// used entry when full.
func (c *TemplateCache) Put(scale float64, t *vision.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(scale, t)
	observability.SetTemplateCacheEntries(c.lru.Len())
}

func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
