package cache

import (
	"sort"
	"strconv"
	"sync"
)

// NameCache maps bridge ids to display names for lights and groups.
// Lookups by name return the first match in ascending id order.
type NameCache struct {
	mu     sync.RWMutex
	lights []entry
	groups []entry
}

type entry struct {
	id   string
	name string
}

// NewNameCache creates a new NameCache
func NewNameCache() *NameCache {
	return &NameCache{}
}

// SetLights replaces all cached lights.
func (c *NameCache) SetLights(names map[string]string) {
	sorted := sortEntries(names)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lights = sorted
}

// SetGroups replaces all cached groups.
func (c *NameCache) SetGroups(names map[string]string) {
	sorted := sortEntries(names)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = sorted
}

// LightID resolves a light name to its bridge id.
func (c *NameCache) LightID(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return find(c.lights, name)
}

// GroupID resolves a group name to its bridge id.
func (c *NameCache) GroupID(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return find(c.groups, name)
}

// LightNames returns the cached light names in id order.
func (c *NameCache) LightNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return names(c.lights)
}

// GroupNames returns the cached group names in id order.
func (c *NameCache) GroupNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return names(c.groups)
}

// Reset clears the cache
func (c *NameCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lights = nil
	c.groups = nil
}

func sortEntries(m map[string]string) []entry {
	out := make([]entry, 0, len(m))
	for id, name := range m {
		out = append(out, entry{id: id, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].id, out[j].id) })
	return out
}

// bridge ids are decimal strings; fall back to lexical order otherwise
func idLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func find(entries []entry, name string) (string, bool) {
	for _, e := range entries {
		if e.name == name {
			return e.id, true
		}
	}
	return "", false
}

func names(entries []entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}
