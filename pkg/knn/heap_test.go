package knn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxHeapOfferFillsUpToK(t *testing.T) {
	h := newMaxHeap(3)
	h.offer(candidate{tupleID: 1, distance: 5})
	h.offer(candidate{tupleID: 2, distance: 1})
	h.offer(candidate{tupleID: 3, distance: 3})
	assert.Equal(t, 3, h.Len())
}

func TestMaxHeapOfferEvictsWorstWhenFull(t *testing.T) {
	h := newMaxHeap(2)
	h.offer(candidate{tupleID: 1, distance: 5})
	h.offer(candidate{tupleID: 2, distance: 3})
	// worse than both current entries: rejected
	h.offer(candidate{tupleID: 3, distance: 9})
	assert.Equal(t, 2, h.Len())
	for _, c := range h.items {
		assert.NotEqual(t, int64(3), c.tupleID)
	}

	// better than the current worst (5): evicts it
	h.offer(candidate{tupleID: 4, distance: 1})
	assert.Equal(t, 2, h.Len())
	found := map[int64]bool{}
	for _, c := range h.items {
		found[c.tupleID] = true
	}
	assert.True(t, found[2])
	assert.True(t, found[4])
	assert.False(t, found[1])
}

func TestMaxHeapTieBreaksByLowerTupleID(t *testing.T) {
	h := newMaxHeap(1)
	h.offer(candidate{tupleID: 5, distance: 2})
	// same distance, lower tuple-id should win and replace
	h.offer(candidate{tupleID: 1, distance: 2})
	assert.Equal(t, int64(1), h.items[0].tupleID)

	// same distance, higher tuple-id should not displace the survivor
	h.offer(candidate{tupleID: 9, distance: 2})
	assert.Equal(t, int64(1), h.items[0].tupleID)
}
