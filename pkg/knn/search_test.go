package knn

import (
	"testing"

	"github.com/cuemby/vexdb/pkg/column"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func openVectorColumn(t *testing.T) *column.Column {
	t.Helper()
	def, err := types.NewColumnDef("embedding", types.ColumnTypeDoubleVector, 2, true)
	assert.NoError(t, err)
	c, err := column.Open(t.TempDir(), def, storage.Options{VolumeFactory: storage.HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func seedVectors(t *testing.T, c *column.Column, vecs [][]float64) {
	t.Helper()
	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	for _, v := range vecs {
		if v == nil {
			_, err := tx.Insert(types.NullValue(types.ColumnTypeDoubleVector))
			assert.NoError(t, err)
			continue
		}
		_, err := tx.Insert(types.DoubleVectorValue(v))
		assert.NoError(t, err)
	}
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())
}

func TestSearchReturnsExactNearestFirst(t *testing.T) {
	c := openVectorColumn(t)
	seedVectors(t, c, [][]float64{{0, 0}, {10, 10}, {1, 1}})

	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	results, err := Search(tx, Params{Query: []float64{0, 0}, Distance: l2Fn, K: 2, Partitions: 2})
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-9)
}

func TestSearchSkipsNullVectors(t *testing.T) {
	c := openVectorColumn(t)
	seedVectors(t, c, [][]float64{{0, 0}, nil, {5, 5}})

	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	results, err := Search(tx, Params{Query: []float64{0, 0}, Distance: l2Fn, K: 5})
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchAppliesFilter(t *testing.T) {
	c := openVectorColumn(t)
	seedVectors(t, c, [][]float64{{0, 0}, {1, 1}, {2, 2}})

	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	filter := func(v types.Value) bool {
		vec := v.DoubleVector()
		return len(vec) > 0 && vec[0] >= 2
	}
	results, err := Search(tx, Params{Query: []float64{0, 0}, Distance: l2Fn, K: 5, Filter: filter})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchRejectsNonPositiveK(t *testing.T) {
	c := openVectorColumn(t)
	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	_, err = Search(tx, Params{Query: []float64{0, 0}, Distance: l2Fn, K: 0})
	assert.Error(t, err)
}

func TestSearchOnEmptyColumnReturnsNil(t *testing.T) {
	c := openVectorColumn(t)
	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	results, err := Search(tx, Params{Query: []float64{0, 0}, Distance: l2Fn, K: 3})
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchRejectsQueryShapeMismatch(t *testing.T) {
	c := openVectorColumn(t)
	seedVectors(t, c, [][]float64{{0, 0}})

	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	l2Fn, _ := Lookup(L2)
	_, err = Search(tx, Params{Query: []float64{0, 0, 0}, Distance: l2Fn, K: 1})
	assert.Error(t, err)
}
