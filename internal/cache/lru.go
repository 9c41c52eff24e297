package cache

import (
	"container/list"
	"sync"
	"time"
)

var _ Cache[int] = (*LRU[int])(nil)

// LRU evicts the least recently used entry once maxSize is exceeded and
// treats entries older than ttl as absent. A zero ttl never expires.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	onEvict func(key string, data T)
	now     func() time.Time
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

type Option[T any] func(*LRU[T])

// WithEvictHook registers fn to run for every entry that leaves the cache
// through eviction, expiry or Delete. fn runs without the cache lock held.
func WithEvictHook[T any](fn func(key string, data T)) Option[T] {
	return func(c *LRU[T]) { c.onEvict = fn }
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRU[T]) { c.now = now }
}

func NewLRU[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	var zero T
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.expired(e) {
		c.remove(elem)
		c.mu.Unlock()
		c.evicted(e)
		return zero, false
	}
	e.expiresAt = c.deadline()
	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return e.data, true
}

func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[T])
		e.data = data
		e.expiresAt = c.deadline()
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	c.items[key] = c.order.PushFront(&entry[T]{key: key, data: data, expiresAt: c.deadline()})

	var dropped *entry[T]
	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		dropped = oldest.Value.(*entry[T])
		c.remove(oldest)
	}
	c.mu.Unlock()

	if dropped != nil {
		c.evicted(dropped)
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e := elem.Value.(*entry[T])
	c.remove(elem)
	c.mu.Unlock()
	c.evicted(e)
}

// CleanExpired drops every expired entry and reports how many it removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	var gone []*entry[T]
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		e := elem.Value.(*entry[T])
		if c.expired(e) {
			c.remove(elem)
			gone = append(gone, e)
		}
		elem = prev
	}
	c.mu.Unlock()

	for _, e := range gone {
		c.evicted(e)
	}
	return len(gone)
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

func (c *LRU[T]) expired(e *entry[T]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *LRU[T]) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *LRU[T]) evicted(e *entry[T]) {
	if c.onEvict != nil {
		c.onEvict(e.key, e.data)
	}
}
