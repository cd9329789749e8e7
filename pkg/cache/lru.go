package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/c360/ontosim/errors"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache evicts the least recently used entry once maxSize is exceeded.
type lruCache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[K]*list.Element
	order   *list.List
	stats   *Statistics
	metrics *cacheMetrics
	evictFn EvictCallback[K, V]
}

// NewLRU creates an LRU cache holding at most maxSize entries.
func NewLRU[K comparable, V any](maxSize int, options ...Option[K, V]) (Cache[K, V], error) {
	if maxSize <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: max size must be positive, got %d", errors.ErrInvalidConfig, maxSize),
			"cache", "NewLRU", "validate size")
	}
	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "cache", "NewLRU", "metrics registration")
		}
	}

	return &lruCache[K, V]{
		maxSize: maxSize,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		stats:   NewStatistics(),
		metrics: metrics,
		evictFn: opts.evictCallback,
	}, nil
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	element, ok := c.items[key]
	if ok {
		c.order.MoveToFront(element)
	}
	c.mu.Unlock()

	if !ok {
		c.stats.miss()
		c.metrics.recordMiss()
		var zero V
		return zero, false
	}
	c.stats.hit()
	c.metrics.recordHit()
	return element.Value.(*lruEntry[K, V]).value, true
}

func (c *lruCache[K, V]) Set(key K, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	c.stats.set()
	if element, ok := c.items[key]; ok {
		element.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(element)
		c.mu.Unlock()
		return false, nil
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})

	var evicted *lruEntry[K, V]
	if len(c.items) > c.maxSize {
		evicted = c.removeUnsafe(c.order.Back())
		c.stats.eviction()
		c.metrics.recordEviction()
	}
	size := len(c.items)
	c.mu.Unlock()

	c.stats.updateSize(size)
	c.metrics.updateSize(size)
	if evicted != nil && c.evictFn != nil {
		c.evictFn(evicted.key, evicted.value)
	}
	return true, nil
}

func (c *lruCache[K, V]) Delete(key K) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	element, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return false, nil
	}
	removed := c.removeUnsafe(element)
	size := len(c.items)
	c.mu.Unlock()

	c.stats.delete()
	c.stats.updateSize(size)
	c.metrics.updateSize(size)
	if c.evictFn != nil {
		c.evictFn(removed.key, removed.value)
	}
	return true, nil
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	var removed []*lruEntry[K, V]
	if c.evictFn != nil {
		removed = make([]*lruEntry[K, V], 0, len(c.items))
		for element := c.order.Back(); element != nil; element = element.Prev() {
			removed = append(removed, element.Value.(*lruEntry[K, V]))
		}
	}
	c.items = make(map[K]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	c.stats.updateSize(0)
	c.metrics.updateSize(0)
	for _, entry := range removed {
		c.evictFn(entry.key, entry.value)
	}
}

func (c *lruCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *lruCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

func (c *lruCache[K, V]) Stats() *Statistics {
	return c.stats
}

// removeUnsafe unlinks element. Callers hold c.mu.
func (c *lruCache[K, V]) removeUnsafe(element *list.Element) *lruEntry[K, V] {
	entry := element.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	c.order.Remove(element)
	return entry
}
