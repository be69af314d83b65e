package buffer

import "container/list"

// lineCache is a bounded LRU cache of materialized line text, keyed by line
// index. Reads bump recency through get; peek leaves the order untouched so
// the pure read path stays non-mutating.
type lineCache struct {
	capacity int
	order    *list.List
	entries  map[int]*list.Element
}

type cacheEntry struct {
	line int
	text string
}

func newLineCache(capacity int) *lineCache {
	return &lineCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[int]*list.Element),
	}
}

// get returns the cached text and marks the line most recently used.
func (c *lineCache) get(line int) (string, bool) {
	elem, ok := c.entries[line]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).text, true
}

// peek returns the cached text without touching recency.
func (c *lineCache) peek(line int) (string, bool) {
	elem, ok := c.entries[line]
	if !ok {
		return "", false
	}
	return elem.Value.(*cacheEntry).text, true
}

// put stores the text, evicting the least recently used entry when full.
func (c *lineCache) put(line int, text string) {
	if elem, ok := c.entries[line]; ok {
		elem.Value.(*cacheEntry).text = text
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).line)
		}
	}
	c.entries[line] = c.order.PushFront(&cacheEntry{line: line, text: text})
}

func (c *lineCache) len() int {
	return c.order.Len()
}

func (c *lineCache) clear() {
	c.order.Init()
	c.entries = make(map[int]*list.Element)
}
