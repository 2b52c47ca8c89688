package knn

import "container/heap"

// candidate is one scored row: tuple-id and its distance to the query
// vector.
type candidate struct {
	tupleID  int64
	distance float64
}

// maxHeap is a bounded max-heap of size k, ordered so the worst (largest
// distance, then highest tuple-id as a tie-break) candidate is always at
// the root — the one to evict when a better candidate arrives.
type maxHeap struct {
	items []candidate
	k     int
}

func newMaxHeap(k int) *maxHeap {
	return &maxHeap{k: k}
}

func (h *maxHeap) Len() int { return len(h.items) }
func (h *maxHeap) Less(i, j int) bool {
	if h.items[i].distance != h.items[j].distance {
		return h.items[i].distance > h.items[j].distance
	}
	return h.items[i].tupleID > h.items[j].tupleID
}
func (h *maxHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *maxHeap) Push(x any)    { h.items = append(h.items, x.(candidate)) }
func (h *maxHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// offer pushes c if the heap has room, or replaces the current worst
// element if c beats it.
func (h *maxHeap) offer(c candidate) {
	if h.Len() < h.k {
		heap.Push(h, c)
		return
	}
	worst := h.items[0]
	if c.distance < worst.distance || (c.distance == worst.distance && c.tupleID < worst.tupleID) {
		h.items[0] = c
		heap.Fix(h, 0)
	}
}
