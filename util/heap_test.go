package util

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkIndex verifies that every slot maps to exactly one index entry and back
func checkIndex[K comparable](t *testing.T, h *IndexedHeap[K]) {
	t.Helper()
	require.Equal(t, len(h.items), len(h.index))
	for i, item := range h.items {
		j, ok := h.index[item.key]
		require.True(t, ok)
		require.Equal(t, i, j)
	}
	for i := range h.items {
		for _, c := range []int{2*i + 1, 2*i + 2} {
			if c < len(h.items) {
				require.False(t, h.above(c, i), "child %d ranks above parent %d", c, i)
			}
		}
	}
}

func TestIndexedHeapMaxOrder(t *testing.T) {
	h := NewMaxHeap[string]()
	for i, p := range []float64{3, 1, 4, 1.5, 9, 2.6} {
		h.Push(strconv.Itoa(i), p)
	}
	checkIndex(t, h)

	got := make([]float64, 0)
	for h.Len() > 0 {
		_, p, ok := h.Poll()
		require.True(t, ok)
		got = append(got, p)
	}
	assert.Equal(t, []float64{9, 4, 3, 2.6, 1.5, 1}, got)

	_, _, ok := h.Poll()
	assert.False(t, ok)
}

func TestIndexedHeapMinOrder(t *testing.T) {
	h := NewMinHeap[int]()
	h.Push(1, 5)
	h.Push(2, -1)
	h.Push(3, math.Inf(1))
	h.Push(4, 0)

	key, p, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 2, key)
	assert.Equal(t, -1.0, p)
	assert.Equal(t, 4, h.Len())

	order := make([]int, 0)
	for h.Len() > 0 {
		k, _, _ := h.Poll()
		order = append(order, k)
	}
	assert.Equal(t, []int{2, 4, 1, 3}, order)
}

func TestIndexedHeapUpdateMovesBothWays(t *testing.T) {
	h := NewMaxHeap[string]()
	h.Push("a", 10)
	h.Push("b", 8)
	h.Push("c", 6)
	h.Push("d", 4)

	require.True(t, h.Update("d", 20))
	checkIndex(t, h)
	key, _, _ := h.Peek()
	assert.Equal(t, "d", key)

	require.True(t, h.Update("d", 1))
	checkIndex(t, h)
	key, _, _ = h.Peek()
	assert.Equal(t, "a", key)

	p, ok := h.Priority("d")
	require.True(t, ok)
	assert.Equal(t, 1.0, p)
}

func TestIndexedHeapUpdateMissingIsNoop(t *testing.T) {
	h := NewMaxHeap[string]()
	h.Push("a", 1)
	assert.False(t, h.Update("missing", 100))
	assert.False(t, h.Contains("missing"))
	assert.Equal(t, 1, h.Len())
}

func TestIndexedHeapPushExistingUpdates(t *testing.T) {
	h := NewMaxHeap[string]()
	h.Push("a", 1)
	h.Push("b", 2)
	h.Push("a", 3)
	assert.Equal(t, 2, h.Len())
	key, p, _ := h.Peek()
	assert.Equal(t, "a", key)
	assert.Equal(t, 3.0, p)
}

func TestIndexedHeapClear(t *testing.T) {
	h := NewMinHeap[int]()
	for i := 0; i < 10; i++ {
		h.Push(i, float64(10-i))
	}
	checkIndex(t, h)
	assert.Equal(t, 10, h.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Contains(4))
	_, _, ok := h.Peek()
	assert.False(t, ok)
	checkIndex(t, h)
}

func TestIndexedHeapRandomOperations(t *testing.T) {
	for _, max := range []bool{true, false} {
		r := rand.New(rand.NewSource(42))
		h := NewIndexedHeap[int](max)
		shadow := make(map[int]float64)
		inserted, removed := 0, 0
		next := 0

		for step := 0; step < 5000; step++ {
			switch op := r.Intn(3); {
			case op == 0 || len(shadow) == 0:
				p := r.Float64()*100 - 50
				h.Push(next, p)
				shadow[next] = p
				next++
				inserted++
			case op == 1:
				key, p, ok := h.Poll()
				require.True(t, ok)
				want := extremal(shadow, max)
				require.Equal(t, want, p)
				require.Equal(t, shadow[key], p)
				delete(shadow, key)
				removed++
			default:
				keys := sortedKeys(shadow)
				key := keys[r.Intn(len(keys))]
				p := r.Float64()*100 - 50
				require.True(t, h.Update(key, p))
				shadow[key] = p
			}
			require.Equal(t, inserted-removed, h.Len())
		}
		checkIndex(t, h)
	}
}

func extremal(m map[int]float64, max bool) float64 {
	first := true
	best := 0.0
	for _, p := range m {
		if first || (max && p > best) || (!max && p < best) {
			best = p
			first = false
		}
	}
	return best
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
