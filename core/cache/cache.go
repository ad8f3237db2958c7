// Package cache provides a small thread-safe generic LRU, used to keep
// compiled schemas and loaded dictionaries across requests.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic LRU cache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	Remove(key K)
	Clear()
	Len() int
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called with the key and value of every entry dropped by
	// capacity, expiry or Remove.
	OnEvict func(key, value any)
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{MaxSize: 32}
}

// now is swapped in tests.
var now = time.Now

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

type lru[K comparable, V any] struct {
	mu      sync.Mutex
	config  Config
	entries map[K]*list.Element
	order   *list.List // front is most recently used
	stats   Stats
}

// New creates an LRU cache with the given configuration.
func New[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lru[K, V]{
		config:  config,
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
}

func (c *lru[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.remove(el)
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

func (c *lru[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = c.deadline()
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: c.deadline()})
	if c.config.MaxSize > 0 && c.order.Len() > c.config.MaxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
			c.stats.Evictions++
		}
	}
}

func (c *lru[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Clear drops every entry without calling OnEvict.
func (c *lru[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

func (c *lru[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *lru[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lru[K, V]) deadline() time.Time {
	if c.config.TTL <= 0 {
		return time.Time{}
	}
	return now().Add(c.config.TTL)
}

func (c *lru[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && now().After(e.expiresAt)
}

func (c *lru[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	e := el.Value.(*entry[K, V])
	delete(c.entries, e.key)
	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss. Only
// successful loads are stored.
func GetOrLoad[K comparable, V any](c Cache[K, V], key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}
