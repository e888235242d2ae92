package cas

import (
	"os"
	"sync/atomic"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/internal/logging"
)

// DefaultMemoryEntries is the in-memory LRU size used by Open.
const DefaultMemoryEntries = 256

// Stats describes the cache contents and activity. Hits count lookups
// answered from memory or disk; Misses count keys found in neither.
type Stats struct {
	Entries         int
	CompressedBytes int64
	MemoryEntries   int
	Hits            int64
	Misses          int64
	Evictions       int64
}

// Cache is a two-level translation cache. It is safe for concurrent use.
type Cache struct {
	disk *store
	mem  *lru

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates a cache rooted at dir.
func Open(dir string) (*Cache, error) {
	return OpenSize(dir, DefaultMemoryEntries)
}

// OpenSize is Open with an explicit in-memory LRU size; 0 disables it.
func OpenSize(dir string, memoryEntries int) (*Cache, error) {
	if dir == "" {
		return nil, errors.NewConfiguration("cache dir", "empty path")
	}
	disk, err := newStore(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{disk: disk, mem: newLRU(memoryEntries)}, nil
}

// Get returns the cached translation for key.
func (c *Cache) Get(key string) (string, bool, error) {
	if !ValidKey(key) {
		return "", false, errors.NewValidation("key", "not a BLAKE3 hex digest")
	}
	if text, ok := c.mem.get(key); ok {
		c.hits.Add(1)
		logging.CacheEvent("hit", key, "level", "memory")
		return text, true, nil
	}
	text, err := c.disk.get(key)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			c.misses.Add(1)
			logging.CacheEvent("miss", key)
			return "", false, nil
		}
		return "", false, err
	}
	c.hits.Add(1)
	c.mem.put(key, text)
	logging.CacheEvent("hit", key, "level", "disk")
	return text, true, nil
}

// Put stores the translation for key.
func (c *Cache) Put(key, text string) error {
	if !ValidKey(key) {
		return errors.NewValidation("key", "not a BLAKE3 hex digest")
	}
	size, err := c.disk.put(key, text)
	if err != nil {
		return err
	}
	c.mem.put(key, text)
	logging.CacheEvent("store", key, "compressed_bytes", size)
	return nil
}

// Stats walks the disk store and reports its size together with the
// in-memory counters.
func (c *Cache) Stats() (Stats, error) {
	var st Stats
	err := c.disk.walk(func(_ string, size int64) error {
		st.Entries++
		st.CompressedBytes += size
		return nil
	})
	if err != nil {
		return Stats{}, errors.NewIO("scan", c.disk.root, err)
	}
	st.Hits, st.Misses = c.hits.Load(), c.misses.Load()
	st.MemoryEntries, st.Evictions = c.mem.len()
	return st, nil
}

// Clear removes every entry and returns how many blobs were deleted.
func (c *Cache) Clear() (int, error) {
	var paths []string
	err := c.disk.walk(func(path string, _ int64) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, errors.NewIO("scan", c.disk.root, err)
	}
	for i, p := range paths {
		if err := os.Remove(p); err != nil {
			return i, errors.NewIO("remove", p, err)
		}
	}
	c.mem.clear()
	logging.CacheEvent("clear", "", "removed", len(paths))
	return len(paths), nil
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.disk.root }
