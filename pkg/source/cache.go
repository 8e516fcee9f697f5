package source

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries is the default number of source contents kept in memory.
const DefaultCacheEntries = 512

// Cache keeps recently read source contents so that the attribution rescan
// does not read every file from disk a second time. Entries are keyed by
// Text.ID. Read errors are not cached.
type Cache struct {
	entries *lru.Cache[string, string]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding up to size contents. A non-positive size
// falls back to DefaultCacheEntries.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheEntries
	}

	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[string, string](size)

	return &Cache{entries: entries}
}

// Wrap returns sources whose Content goes through the cache. Order is kept.
func (c *Cache) Wrap(sources []Text) []Text {
	out := make([]Text, len(sources))
	for i, s := range sources {
		out[i] = cached{inner: s, cache: c}
	}

	return out
}

// Hits returns the number of cache hits.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Misses returns the number of cache misses.
func (c *Cache) Misses() int64 {
	return c.misses.Load()
}

// Len returns the number of cached contents.
func (c *Cache) Len() int {
	return c.entries.Len()
}

type cached struct {
	inner Text
	cache *Cache
}

func (c cached) ID() string {
	return c.inner.ID()
}

func (c cached) Content() (string, error) {
	key := c.inner.ID()

	if text, ok := c.cache.entries.Get(key); ok {
		c.cache.hits.Add(1)

		return text, nil
	}

	c.cache.misses.Add(1)

	text, err := c.inner.Content()
	if err != nil {
		return "", err
	}

	c.cache.entries.Add(key, text)

	return text, nil
}
