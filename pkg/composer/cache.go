package composer

import "sort"

// Cache holds one rendered snippet per selected file plus the tree entry.
// It is not safe for concurrent use; the session guards it and swaps in
// clones built outside its lock.
type Cache struct {
	entries map[string]Snippet
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Snippet)}
}

// Add inserts or overwrites snippets by key. Indices are left untouched.
func (c *Cache) Add(snippets ...Snippet) {
	for _, s := range snippets {
		c.entries[s.Key] = s
	}
}

// Remove deletes exactly the given keys
func (c *Cache) Remove(keys ...string) {
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Clear drops every entry, the tree included
func (c *Cache) Clear() {
	c.entries = make(map[string]Snippet)
}

// Clone returns an independent copy
func (c *Cache) Clone() *Cache {
	clone := &Cache{entries: make(map[string]Snippet, len(c.entries))}
	for k, v := range c.entries {
		clone.entries[k] = v
	}
	return clone
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) Get(key string) (Snippet, bool) {
	s, ok := c.entries[key]
	return s, ok
}

// Keys returns every key in lexical order. The tree key sorts first.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Files returns the non-tree snippets ordered by key
func (c *Cache) Files() []Snippet {
	out := make([]Snippet, 0, len(c.entries))
	for _, k := range c.Keys() {
		if k == TreeKey {
			continue
		}
		out = append(out, c.entries[k])
	}
	return out
}
