package util

// comparePriorities orders two priorities: positive when a ranks above b in a
// max-heap, negative when below, zero when equal.
func comparePriorities(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

type heapItem[K comparable] struct {
	key      K
	priority float64
}

// IndexedHeap is a binary heap of keys ordered by a float64 priority.
// Next to the dense array it keeps a map from key to array index, so membership
// is O(1) and the priority of any stored key can be changed in O(log n).
//
// A min-heap flips the sign of the priority comparison.
type IndexedHeap[K comparable] struct {
	items []heapItem[K]
	index map[K]int
	sign  int
}

// NewIndexedHeap creates an empty heap. max selects max-heap behaviour.
func NewIndexedHeap[K comparable](max bool) *IndexedHeap[K] {
	sign := 1
	if !max {
		sign = -1
	}
	return &IndexedHeap[K]{
		items: make([]heapItem[K], 0),
		index: make(map[K]int),
		sign:  sign,
	}
}

func NewMaxHeap[K comparable]() *IndexedHeap[K] {
	return NewIndexedHeap[K](true)
}

func NewMinHeap[K comparable]() *IndexedHeap[K] {
	return NewIndexedHeap[K](false)
}

func (h *IndexedHeap[K]) Len() int {
	return len(h.items)
}

// Push inserts key with the given priority. Pushing a key that is already stored
// updates its priority in place.
func (h *IndexedHeap[K]) Push(key K, priority float64) {
	if _, ok := h.index[key]; ok {
		h.Update(key, priority)
		return
	}
	h.items = append(h.items, heapItem[K]{key: key, priority: priority})
	i := len(h.items) - 1
	h.index[key] = i
	h.siftUp(i)
}

// Peek returns the extremal key without removing it
func (h *IndexedHeap[K]) Peek() (K, float64, bool) {
	if len(h.items) == 0 {
		var zero K
		return zero, 0, false
	}
	return h.items[0].key, h.items[0].priority, true
}

// Poll removes and returns the extremal key
func (h *IndexedHeap[K]) Poll() (K, float64, bool) {
	if len(h.items) == 0 {
		var zero K
		return zero, 0, false
	}
	top := h.items[0]
	last := len(h.items) - 1
	h.swap(0, last)
	h.items = h.items[:last]
	delete(h.index, top.key)
	if last > 0 {
		h.siftDown(0)
	}
	return top.key, top.priority, true
}

// Contains reports whether key is stored
func (h *IndexedHeap[K]) Contains(key K) bool {
	_, ok := h.index[key]
	return ok
}

// Priority returns the priority currently stored for key.
func (h *IndexedHeap[K]) Priority(key K) (float64, bool) {
	i, ok := h.index[key]
	if !ok {
		return 0, false
	}
	return h.items[i].priority, true
}

// Update changes the priority of a stored key and restores the heap order.
// Updating a key that is not stored is a no-op and returns false.
func (h *IndexedHeap[K]) Update(key K, priority float64) bool {
	i, ok := h.index[key]
	if !ok {
		return false
	}
	h.items[i].priority = priority
	h.refresh(i)
	return true
}

func (h *IndexedHeap[K]) Clear() {
	h.items = make([]heapItem[K], 0)
	h.index = make(map[K]int)
}

// refresh restores the order around position i after its priority changed.
// The element is first sifted down; only when it did not move is it sifted up.
func (h *IndexedHeap[K]) refresh(i int) {
	if !h.siftDown(i) {
		h.siftUp(i)
	}
}

// above reports whether the item at i must sit above the item at j
func (h *IndexedHeap[K]) above(i, j int) bool {
	return h.sign*comparePriorities(h.items[i].priority, h.items[j].priority) > 0
}

func (h *IndexedHeap[K]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].key] = i
	h.index[h.items[j].key] = j
}

func (h *IndexedHeap[K]) siftUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !h.above(i, parent) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (h *IndexedHeap[K]) siftDown(i int) bool {
	moved := false
	n := len(h.items)
	for {
		best := i
		left := 2*i + 1
		right := left + 1
		if left < n && h.above(left, best) {
			best = left
		}
		if right < n && h.above(right, best) {
			best = right
		}
		if best == i {
			return moved
		}
		h.swap(i, best)
		i = best
		moved = true
	}
}
