// Package maplist keeps several values per key in insertion order.
package maplist

import (
	"cmp"
	"slices"
)

type MapList[K cmp.Ordered, V any] struct {
	data map[K][]V
}

func New[K cmp.Ordered, V any]() *MapList[K, V] {
	return &MapList[K, V]{
		data: map[K][]V{},
	}
}

func (m *MapList[K, V]) Add(key K, value V) {
	m.data[key] = append(m.data[key], value)
}

// Get returns a copy of the values stored under key.
func (m *MapList[K, V]) Get(key K) []V {
	return slices.Clone(m.data[key])
}

func (m *MapList[K, V]) First(key K) (v V, ok bool) {
	vl := m.data[key]
	if len(vl) == 0 {
		return v, false
	}
	return vl[0], true
}

// Keys returns all keys in ascending order.
func (m *MapList[K, V]) Keys() []K {
	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
