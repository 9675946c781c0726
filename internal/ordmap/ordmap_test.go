package ordmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ossyrian/megkit/internal/ordmap"
)

func TestMap_OverwriteKeepsPosition(t *testing.T) {
	m := ordmap.New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	old, replaced := m.Set("a", 10)
	assert.True(t, replaced)
	assert.Equal(t, 1, old)

	assert.Equal(t, []int{10, 2, 3}, m.Values())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestMap_Delete(t *testing.T) {
	m := ordmap.New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))

	v, ok := m.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{2, 3}, m.Values())

	m.Set("a", 4)
	assert.Equal(t, []int{2, 3, 4}, m.Values())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok = m.Get("b")
	assert.False(t, ok)
}
