// Package mapslicehelp has generic helpers for ordered maps.
package mapslicehelp

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMapKeys returns the keys in insertion order.
func OrderedMapKeys[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []K {
	l := make([]K, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Key
		i++
	}
	return l
}

// OrderedMapValues returns the values in insertion order, mapped by f.
func OrderedMapValues[K comparable, V, R any](m *orderedmap.OrderedMap[K, V], f func(V) R) []R {
	l := make([]R, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		l = append(l, f(p.Value))
	}
	return l
}
