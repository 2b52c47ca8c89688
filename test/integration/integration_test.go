package integration

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cuemby/vexdb/pkg/catalog"
	"github.com/cuemby/vexdb/pkg/exec"
	"github.com/cuemby/vexdb/pkg/knn"
	"github.com/cuemby/vexdb/pkg/recordset"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func openCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), storage.Options{VolumeFactory: storage.HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func widgetEntityColumns(t *testing.T) []types.ColumnDef {
	t.Helper()
	id, err := types.NewColumnDef("id", types.ColumnTypeLong, 1, false)
	assert.NoError(t, err)
	vec, err := types.NewColumnDef("vec", types.ColumnTypeFloatVector, 4, false)
	assert.NoError(t, err)
	return []types.ColumnDef{id, vec}
}

// Scenario 1 (spec §8): two rows inserted, a k=1 L2 query for an exact
// match returns the matching tuple at distance 0.
func TestKNNExactMatchScenario(t *testing.T) {
	cat := openCatalog(t)
	sc, err := cat.CreateSchema(types.MustParseName("s1"))
	assert.NoError(t, err)
	ent, err := sc.CreateEntity("e1", widgetEntityColumns(t))
	assert.NoError(t, err)

	tx, err := ent.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	_, err = tx.InsertRow([]types.Value{types.LongValue(1), types.FloatVectorValue([]float32{1, 0, 0, 0})})
	assert.NoError(t, err)
	secondID, err := tx.InsertRow([]types.Value{types.LongValue(2), types.FloatVectorValue([]float32{0, 1, 0, 0})})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())

	readTx, err := ent.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer readTx.Close()

	l2, _ := knn.Lookup(knn.L2)
	results, err := knn.Search(readTx.Column("vec"), knn.Params{
		Query:    []float64{0, 1, 0, 0},
		Distance: l2,
		K:        1,
	})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, secondID, results[0].TupleID)
	assert.Equal(t, 0.0, results[0].Distance)
}

// Scenario 4 (spec §8): concurrent CreateSchema("a") calls, exactly one
// succeeds and the registry holds a single schema.
func TestConcurrentCreateSchemaRace(t *testing.T) {
	cat := openCatalog(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cat.CreateSchema(types.MustParseName("a"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		kind, ok := types.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, types.ErrSchemaAlreadyExists, kind)
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, cat.SchemaNames(), 1)
}

// Scenario 3 (spec §8, scaled down): a reader transaction started before
// a writer commits sees the pre-commit state; a reader started after
// commit sees the new row.
func TestReaderIsolationFromUncommittedWriter(t *testing.T) {
	cat := openCatalog(t)
	sc, err := cat.CreateSchema(types.MustParseName("s1"))
	assert.NoError(t, err)
	ent, err := sc.CreateEntity("e1", widgetEntityColumns(t))
	assert.NoError(t, err)

	writer, err := ent.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	_, err = writer.InsertRow([]types.Value{types.LongValue(1), types.FloatVectorValue([]float32{1, 0, 0, 0})})
	assert.NoError(t, err)

	reader, err := ent.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	_, found, err := reader.Column("id").Read(2)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, reader.Close())

	assert.NoError(t, writer.Commit())
	assert.NoError(t, writer.Close())

	after, err := ent.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer after.Close()
	v, found, err := after.Column("id").Read(2)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), v.Int())
}

// Scenario: rollback leaves no trace visible to a subsequent transaction.
func TestRollbackIsInvisibleToLaterTransactions(t *testing.T) {
	cat := openCatalog(t)
	sc, err := cat.CreateSchema(types.MustParseName("s1"))
	assert.NoError(t, err)
	ent, err := sc.CreateEntity("e1", widgetEntityColumns(t))
	assert.NoError(t, err)

	tx, err := ent.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	id, err := tx.InsertRow([]types.Value{types.LongValue(1), types.FloatVectorValue([]float32{1, 0, 0, 0})})
	assert.NoError(t, err)
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, tx.Close())

	later, err := ent.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer later.Close()
	_, found, err := later.Column("id").Read(id)
	assert.NoError(t, err)
	assert.False(t, found)
}

// Scenario 5 (spec §8): a failing source task propagates ParentFailed to
// every downstream task; the plan's root reports a single error.
func TestFailingSourceTaskPropagatesParentFailed(t *testing.T) {
	pool := exec.NewPool(exec.Config{CoreThreads: 2, MaxThreads: 2})
	defer pool.Stop()
	sched := exec.NewScheduler(pool, nil)

	source := exec.NewTask(func(inputs []recordset.Recordset) (recordset.Recordset, error) {
		return recordset.Recordset{}, types.NewError(types.ErrStorageIO, "disk read failed", nil)
	}, 1.0)
	project := exec.NewTask(func(inputs []recordset.Recordset) (recordset.Recordset, error) {
		return inputs[0], nil
	}, 1.0, source)
	filter := exec.NewTask(func(inputs []recordset.Recordset) (recordset.Recordset, error) {
		return inputs[0], nil
	}, 1.0, project)

	plan := exec.NewPlan(filter)
	_, err := sched.Run(plan)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrParentFailed) || func() bool {
		kind, ok := types.KindOf(err)
		return ok && kind == types.ErrStorageIO
	}())

	assert.Equal(t, exec.TaskFailed, source.State())
	assert.Equal(t, exec.TaskFailed, project.State())
	assert.Equal(t, exec.TaskFailed, filter.State())
}

// Scenario 6 (spec §8): kNN on a larger float column matches a
// brute-force reference computation exactly.
func TestKNNMatchesBruteForceReference(t *testing.T) {
	cat := openCatalog(t)
	sc, err := cat.CreateSchema(types.MustParseName("s1"))
	assert.NoError(t, err)
	ent, err := sc.CreateEntity("e1", widgetEntityColumns(t))
	assert.NoError(t, err)

	tx, err := ent.NewTransaction(false, uuid.New())
	assert.NoError(t, err)

	const n = 64
	vectors := make([][4]float32, n)
	seed := int64(1)
	next := func() float32 {
		seed = seed*1103515245 + 12345
		return float32(seed%1000) / 1000.0
	}
	for i := 0; i < n; i++ {
		v := [4]float32{next(), next(), next(), next()}
		vectors[i] = v
		_, err := tx.InsertRow([]types.Value{types.LongValue(int64(i)), types.FloatVectorValue(v[:])})
		assert.NoError(t, err)
	}
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())

	readTx, err := ent.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer readTx.Close()

	query := []float64{0.2, 0.4, 0.6, 0.8}
	l2, _ := knn.Lookup(knn.L2)
	const k = 10
	got, err := knn.Search(readTx.Column("vec"), knn.Params{
		Query:      query,
		Distance:   l2,
		K:          k,
		Partitions: 4,
	})
	assert.NoError(t, err)
	assert.Len(t, got, k)

	type scored struct {
		tupleID  int64
		distance float64
	}
	var all []scored
	for i, v := range vectors {
		var sum float64
		for d := 0; d < 4; d++ {
			diff := float64(v[d]) - query[d]
			sum += diff * diff
		}
		// Row i (0-indexed insert order) lands at tuple-id i+2: tuple-id
		// 1 is the reserved header.
		all = append(all, scored{tupleID: int64(i) + 2, distance: math.Sqrt(sum)})
	}
	// ascending distance, ties by lower tuple-id
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].distance < all[i].distance ||
				(all[j].distance == all[i].distance && all[j].tupleID < all[i].tupleID) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}

	for i := 0; i < k; i++ {
		assert.Equal(t, all[i].tupleID, got[i].TupleID, "rank %d tuple-id mismatch", i)
		assert.InDelta(t, all[i].distance, got[i].Distance, 1e-9, "rank %d distance mismatch", i)
	}
}
