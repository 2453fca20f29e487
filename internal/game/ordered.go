/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// ordered is a map that remembers first insertion order. Overwriting a key
// keeps its original position.
type ordered[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

func newOrdered[K comparable, V any]() ordered[K, V] {
	return ordered[K, V]{vals: make(map[K]V)}
}

func (o *ordered[K, V]) Set(k K, v V) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

func (o *ordered[K, V]) Get(k K) (V, bool) {
	v, ok := o.vals[k]
	return v, ok
}

func (o *ordered[K, V]) Has(k K) bool {
	_, ok := o.vals[k]
	return ok
}

func (o *ordered[K, V]) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order. The slice is shared; do not
// modify it.
func (o *ordered[K, V]) Keys() []K {
	return o.keys
}
