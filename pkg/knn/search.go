package knn

import (
	"sort"
	"sync"

	"github.com/cuemby/vexdb/pkg/column"
	"github.com/cuemby/vexdb/pkg/types"
)

// Result is one ranked row of a Search.
type Result struct {
	TupleID  int64
	Distance float64
}

// Params describes one kNN query (spec §4.7).
type Params struct {
	Query      []float64
	Distance   DistanceFunc
	K          int
	Partitions int // p: requested parallelism
	// Filter, if non-nil, is an optional boolean pre-filter evaluated
	// against each candidate's source value before scoring it.
	Filter func(types.Value) bool
}

// Search scans tx's non-header tuple-ids in p parallel partitions, each
// keeping a bounded size-k max-heap, then merges the partitions into one
// final top-k ordered ascending by distance (ties broken by lower
// tuple-id).
func Search(tx *column.Tx, p Params) ([]Result, error) {
	if p.K < 1 {
		return nil, types.NewError(types.ErrValidation, "k must be >= 1", nil)
	}
	partitions := p.Partitions
	if partitions < 1 {
		partitions = 1
	}

	ids, err := collectIDs(tx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	blockSize := (len(ids) + partitions - 1) / partitions
	heaps := make([]*maxHeap, 0, partitions)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for start := 0; start < len(ids); start += blockSize {
		end := start + blockSize
		if end > len(ids) {
			end = len(ids)
		}
		block := ids[start:end]
		wg.Add(1)
		go func(block []int64) {
			defer wg.Done()
			h := newMaxHeap(p.K)
			for _, id := range block {
				v, ok, err := tx.Read(id)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if !ok || v.IsNull() {
					continue
				}
				if p.Filter != nil && !p.Filter(v) {
					continue
				}
				vec, err := ToFloat64(v)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if len(vec) != len(p.Query) {
					mu.Lock()
					if firstErr == nil {
						firstErr = types.NewError(types.ErrShapeMismatch, "kNN query vector length mismatch", nil)
					}
					mu.Unlock()
					return
				}
				d := p.Distance(p.Query, vec)
				h.offer(candidate{tupleID: id, distance: d})
			}
			mu.Lock()
			heaps = append(heaps, h)
			mu.Unlock()
		}(block)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	merged := newMaxHeap(p.K)
	for _, h := range heaps {
		for _, c := range h.items {
			merged.offer(c)
		}
	}

	out := make([]Result, len(merged.items))
	for i, c := range merged.items {
		out[i] = Result{TupleID: c.tupleID, Distance: c.distance}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].TupleID < out[j].TupleID
	})
	return out, nil
}

func collectIDs(tx *column.Tx) ([]int64, error) {
	var ids []int64
	err := tx.ForEach(func(id int64, _ types.Value, _ bool) error {
		ids = append(ids, id)
		return nil
	})
	return ids, err
}
