package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrKeyExists is returned when inserting a key that is already cached
var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a weight-budgeted LRU cache
type Cache[V any] interface {
	// SetVerbose controls eviction logging
	SetVerbose(verbose bool)

	// GetWeight returns the current total weight of cached items
	GetWeight() int

	// GetBudget returns the weight budget
	GetBudget() int

	// Insert adds a new item, evicting least recently used items to stay
	// within budget
	Insert(key string, value V, weight int) error

	// Retrieve fetches an item and marks it as most recently used
	Retrieve(key string) (V, bool)

	// Remove drops an item, if present
	Remove(key string)

	// Clear removes all items
	Clear()
}

type node[V any] struct {
	next   *node[V]
	prev   *node[V]
	key    string
	value  V
	weight int
}

type cache[V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	head    *node[V]
	tail    *node[V]
	lookup  map[string]*node[V]
	weight  int
	budget  int
	verbose bool
}

// NewCache returns a new cache with the given weight budget
func NewCache[V any](budget int) Cache[V] {
	return &cache[V]{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		lookup: make(map[string]*node[V]),
		budget: budget,
	}
}

func (c *cache[V]) SetVerbose(verbose bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verbose = verbose
}

func (c *cache[V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

func (c *cache[V]) GetBudget() int {
	return c.budget
}

func (c *cache[V]) Insert(key string, value V, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	n := &node[V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		c.weight -= evicted.weight
		delete(c.lookup, evicted.key)

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

func (c *cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, found := c.lookup[key]
	if !found {
		var zero V
		return zero, false
	}

	if n != c.head {
		c.unlink(n)
		c.pushFront(n)
	}

	return n.value, true
}

func (c *cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, found := c.lookup[key]
	if !found {
		return
	}

	c.unlink(n)
	c.weight -= n.weight
	delete(c.lookup, key)
}

func (c *cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*node[V])
	c.weight = 0
}

func (c *cache[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *cache[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}
