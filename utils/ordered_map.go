package utils

import (
	"iter"
	"slices"
)

// OrderedMap is a map that remembers the order in which keys were first inserted.
// Iteration (All, Keys, Values) follows insertion order; updating an existing key keeps its position.
// Like a Go map, copies of a non-empty OrderedMap share their entries; use Clone for an
// independent copy. The zero value is an empty map ready to use. It is not safe for concurrent
// mutation.
type OrderedMap[K comparable, V any] struct {
	s *orderedMapState[K, V]
}

type orderedMapState[K comparable, V any] struct {
	index  map[K]int // position of the key in keys/values
	keys   []K
	values []V
}

// NewOrderedMap returns an empty map with room for capacity entries.
func NewOrderedMap[K comparable, V any](capacity int) *OrderedMap[K, V] {
	m := new(OrderedMap[K, V])
	if capacity > 0 {
		m.s = &orderedMapState[K, V]{
			index:  make(map[K]int, capacity),
			keys:   make([]K, 0, capacity),
			values: make([]V, 0, capacity),
		}
	}
	return m
}

func (m *OrderedMap[K, V]) Put(key K, value V) {
	if m.s == nil {
		m.s = &orderedMapState[K, V]{index: make(map[K]int)}
	}
	if pos, exists := m.s.index[key]; exists {
		m.s.values[pos] = value
		return
	}

	m.s.index[key] = len(m.s.keys)
	m.s.keys = append(m.s.keys, key)
	m.s.values = append(m.s.values, value)
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if m.s != nil {
		if pos, ok := m.s.index[key]; ok {
			return m.s.values[pos], true
		}
	}
	var zero V
	return zero, false
}

func (m *OrderedMap[K, V]) Has(key K) bool {
	if m.s == nil {
		return false
	}
	_, ok := m.s.index[key]
	return ok
}

func (m *OrderedMap[K, V]) Len() int {
	if m.s == nil {
		return 0
	}
	return len(m.s.keys)
}

// Keys returns a copy of the keys in insertion order
func (m *OrderedMap[K, V]) Keys() []K {
	if m.s == nil {
		return nil
	}
	return slices.Clone(m.s.keys)
}

// Values returns a copy of the values in insertion order
func (m *OrderedMap[K, V]) Values() []V {
	if m.s == nil {
		return nil
	}
	return slices.Clone(m.s.values)
}

// Clone returns a shallow copy that no longer shares entries with m.
func (m *OrderedMap[K, V]) Clone() OrderedMap[K, V] {
	if m.s == nil {
		return OrderedMap[K, V]{}
	}
	index := make(map[K]int, len(m.s.index))
	for k, pos := range m.s.index {
		index[k] = pos
	}
	return OrderedMap[K, V]{s: &orderedMapState[K, V]{
		index:  index,
		keys:   slices.Clone(m.s.keys),
		values: slices.Clone(m.s.values),
	}}
}

// All iterates over the entries in insertion order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m.s == nil {
			return
		}
		for i, k := range m.s.keys {
			if !yield(k, m.s.values[i]) {
				return
			}
		}
	}
}

// IsSortedFunc reports whether the keys are strictly increasing according to cmpFn.
func (m *OrderedMap[K, V]) IsSortedFunc(cmpFn func(a, b K) int) bool {
	if m.s == nil {
		return true
	}
	for i := 1; i < len(m.s.keys); i++ {
		if cmpFn(m.s.keys[i-1], m.s.keys[i]) >= 0 {
			return false
		}
	}
	return true
}
