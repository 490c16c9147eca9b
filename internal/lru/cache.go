package lru

import (
	"container/list"
	"sync"
)

type listEntry[V any] struct {
	key   string
	value V
}

// Cache is a thread-safe, fixed-capacity cache evicting the least
// recently used entry.
type Cache[V any] struct {
	capacity int
	onEvict  func(key string, value V)

	mu    sync.Mutex
	order *list.List
	index map[string]*list.Element
}

// NewCache returns a cache holding at most capacity entries. A capacity
// below one is raised to one.
func NewCache[V any](capacity int) *Cache[V] {
	return &Cache[V]{
		capacity: max(capacity, 1),
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

// OnEvict registers fn to be called for entries dropped to make room.
func (c *Cache[V]) OnEvict(fn func(key string, value V)) *Cache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
	return c
}

// Add inserts or replaces the value for key and marks it most recently
// used.
func (c *Cache[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.index[key]; ok {
		element.Value.(*listEntry[V]).value = value
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}
	c.index[key] = c.order.PushFront(&listEntry[V]{key: key, value: value})
}

func (c *Cache[V]) evictUnsafe() {
	element := c.order.Back()
	if element == nil {
		return
	}
	entry := c.order.Remove(element).(*listEntry[V])
	delete(c.index, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*listEntry[V]).value, true
}

func (c *Cache[V]) Delete(key string) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.Remove(element)
	delete(c.index, key)
	return true
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for element := c.order.Back(); element != nil; element = element.Prev() {
		keys = append(keys, element.Value.(*listEntry[V]).key)
	}
	return keys
}

func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.index)
}
