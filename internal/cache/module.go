package cache

import (
	"sync"

	"zzc/internal/diag"
	"zzc/internal/flatten"
	"zzc/internal/project"
)

// cached is the in-memory record for one module, reused across the
// multiple times a single Driver run consults the cache for the same
// module path (e.g. once per artifact that imports it).
type cached struct {
	content project.Digest
	flat    *flatten.FlatModule
	broken  bool
	first   *diag.Diagnostic
}

// ModuleCache is a process-wide, run-scoped cache of flattened modules,
// keyed by module path plus the content hash that produced them.
type ModuleCache struct {
	mu    sync.RWMutex
	byMod map[string]cached
}

// NewModuleCache returns an empty cache sized for capHint modules.
func NewModuleCache(capHint int) *ModuleCache {
	return &ModuleCache{byMod: make(map[string]cached, capHint)}
}

// Get returns the cached flattened module for path if its content hash
// still matches content.
func (c *ModuleCache) Get(path string, content project.Digest) (*flatten.FlatModule, bool, *diag.Diagnostic, bool) {
	c.mu.RLock()
	rec, ok := c.byMod[path]
	c.mu.RUnlock()
	if !ok || rec.content != content {
		return nil, false, nil, false
	}
	return rec.flat, rec.broken, rec.first, true
}

// Put records or replaces path's cached entry.
func (c *ModuleCache) Put(path string, content project.Digest, flat *flatten.FlatModule, broken bool, first *diag.Diagnostic) {
	c.mu.Lock()
	c.byMod[path] = cached{content: content, flat: flat, broken: broken, first: first}
	c.mu.Unlock()
}
