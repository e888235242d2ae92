package cas

import (
	"container/list"
	"sync"
)

// entry is one cached translation.
type entry struct {
	key  string
	text string
}

// lru is a thread-safe in-memory LRU bounded by entry count.
type lru struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[string]*list.Element
	evictList *list.List
	evictions int64
}

func newLRU(maxSize int) *lru {
	if maxSize < 0 {
		maxSize = 0
	}
	return &lru{
		maxSize:   maxSize,
		entries:   make(map[string]*list.Element),
		evictList: list.New(),
	}
}

func (c *lru) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.evictList.MoveToFront(ent)
	return ent.Value.(*entry).text, true
}

func (c *lru) put(key, text string) {
	if c.maxSize == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry).text = text
		return
	}
	c.entries[key] = c.evictList.PushFront(&entry{key: key, text: text})
	if c.evictList.Len() > c.maxSize {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
		c.evictions++
	}
}

func (c *lru) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.evictList.Init()
}

// len reports the entry count and the evictions so far.
func (c *lru) len() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len(), c.evictions
}
