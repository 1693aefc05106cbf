package collection

import (
	"errors"
	"hash/maphash"
)

// ErrCapacityExhausted is returned when an insert finds no free slot.
// The pre-insert resize keeps at least one slot free, so this signals a bug.
var ErrCapacityExhausted = errors.New("keyed cache: capacity exhausted")

const (
	defaultCapacity = 16
	maxLoadFactor   = 0.75
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot[K comparable, V any] struct {
	key   K
	value V
	state slotState
}

// Hasher maps a key to a 64-bit hash.
type Hasher[K comparable] func(K) uint64

// KeyedCache is an open-addressing hash map with linear probing and
// tombstone deletion. It is not safe for concurrent use.
type KeyedCache[K comparable, V any] struct {
	slots []slot[K, V]
	size  int
	hash  Hasher[K]
}

// NewKeyedCache creates a cache with at least the given capacity.
func NewKeyedCache[K comparable, V any](capacity int) *KeyedCache[K, V] {
	seed := maphash.MakeSeed()
	return NewKeyedCacheWithHasher[K, V](capacity, func(k K) uint64 {
		return maphash.Comparable(seed, k)
	})
}

// NewKeyedCacheWithHasher creates a cache that hashes keys with h.
func NewKeyedCacheWithHasher[K comparable, V any](capacity int, h Hasher[K]) *KeyedCache[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &KeyedCache[K, V]{
		slots: make([]slot[K, V], capacity),
		hash:  h,
	}
}

// Put inserts or overwrites the value stored under key.
func (c *KeyedCache[K, V]) Put(key K, value V) error {
	if i, ok := c.find(key); ok {
		c.slots[i].value = value
		return nil
	}

	if float64(c.size+1)/float64(len(c.slots)) >= maxLoadFactor {
		c.resize(len(c.slots) * 2)
	}

	i, ok := c.freeSlot(key)
	if !ok {
		return ErrCapacityExhausted
	}
	c.slots[i] = slot[K, V]{key: key, value: value, state: slotOccupied}
	c.size++
	return nil
}

// Get returns the value stored under key and whether it was present.
func (c *KeyedCache[K, V]) Get(key K) (V, bool) {
	if i, ok := c.find(key); ok {
		return c.slots[i].value, true
	}
	var zero V
	return zero, false
}

// Remove tombstones the entry for key. It reports whether a live entry existed.
func (c *KeyedCache[K, V]) Remove(key K) bool {
	i, ok := c.find(key)
	if !ok {
		return false
	}
	var zero slot[K, V]
	c.slots[i] = zero
	c.slots[i].state = slotTombstone
	c.size--
	return true
}

// Contains reports whether key has a live entry.
func (c *KeyedCache[K, V]) Contains(key K) bool {
	_, ok := c.find(key)
	return ok
}

// Len returns the number of live entries.
func (c *KeyedCache[K, V]) Len() int { return c.size }

// Capacity returns the number of slots.
func (c *KeyedCache[K, V]) Capacity() int { return len(c.slots) }

// LoadFactor returns Len()/Capacity().
func (c *KeyedCache[K, V]) LoadFactor() float64 {
	return float64(c.size) / float64(len(c.slots))
}

// Range calls fn for every live entry in slot order until fn returns false.
func (c *KeyedCache[K, V]) Range(fn func(K, V) bool) {
	for i := range c.slots {
		if c.slots[i].state != slotOccupied {
			continue
		}
		if !fn(c.slots[i].key, c.slots[i].value) {
			return
		}
	}
}

// Clear drops every entry but keeps the current capacity.
func (c *KeyedCache[K, V]) Clear() {
	clear(c.slots)
	c.size = 0
}

func (c *KeyedCache[K, V]) home(key K) int {
	return int(c.hash(key) % uint64(len(c.slots)))
}

// find probes until a never-occupied slot; tombstones are skipped.
func (c *KeyedCache[K, V]) find(key K) (int, bool) {
	n := len(c.slots)
	start := c.home(key)
	for step := 0; step < n; step++ {
		i := (start + step) % n
		switch c.slots[i].state {
		case slotEmpty:
			return 0, false
		case slotOccupied:
			if c.slots[i].key == key {
				return i, true
			}
		}
	}
	return 0, false
}

// freeSlot returns the first empty or tombstoned slot on key's probe path.
func (c *KeyedCache[K, V]) freeSlot(key K) (int, bool) {
	n := len(c.slots)
	start := c.home(key)
	for step := 0; step < n; step++ {
		i := (start + step) % n
		if c.slots[i].state != slotOccupied {
			return i, true
		}
	}
	return 0, false
}

func (c *KeyedCache[K, V]) resize(capacity int) {
	old := c.slots
	c.slots = make([]slot[K, V], capacity)
	c.size = 0
	for i := range old {
		if old[i].state != slotOccupied {
			continue
		}
		j, _ := c.freeSlot(old[i].key)
		c.slots[j] = slot[K, V]{key: old[i].key, value: old[i].value, state: slotOccupied}
		c.size++
	}
}
