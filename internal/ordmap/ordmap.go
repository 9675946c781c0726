// Package ordmap provides an insertion-ordered map.
package ordmap

// Map keeps keys in insertion order. Overwriting a key replaces its value
// in place; only Delete changes positions.
type Map[K comparable, V any] struct {
	keys   []K
	values []V
	index  map[K]int
}

// New creates an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: make(map[K]int)}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	i, ok := m.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[i], true
}

// Set stores v under k. If k was present its value is replaced without
// moving it and the previous value is returned with replaced set.
func (m *Map[K, V]) Set(k K, v V) (old V, replaced bool) {
	if i, ok := m.index[k]; ok {
		old = m.values[i]
		m.values[i] = v
		return old, true
	}

	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	return old, false
}

// Delete removes k, reporting whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	i, ok := m.index[k]
	if !ok {
		return false
	}

	delete(m.index, k)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.keys = nil
	m.values = nil
	clear(m.index)
}

// Values returns a copy of the values in order.
func (m *Map[K, V]) Values() []V {
	return append([]V(nil), m.values...)
}
