package column

import (
	"errors"
	"testing"

	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func openTestColumn(t *testing.T, def types.ColumnDef) *Column {
	t.Helper()
	c, err := Open(t.TempDir(), def, storage.Options{VolumeFactory: storage.HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func intColumnDef(t *testing.T, nullable bool) types.ColumnDef {
	def, err := types.NewColumnDef("score", types.ColumnTypeInt, 1, nullable)
	assert.NoError(t, err)
	return def
}

func TestInsertReadCommit(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))

	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	id, err := tx.Insert(types.IntValue(42))
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())

	tx2, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx2.Close()

	v, ok, err := tx2.Read(id)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v.Int())
}

func TestRollbackDiscardsInsert(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))

	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	id, err := tx.Insert(types.IntValue(1))
	assert.NoError(t, err)
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, tx.Close())

	tx2, _ := c.NewTransaction(true, uuid.New())
	defer tx2.Close()
	_, ok, err := tx2.Read(id)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReadOnlyTransactionRejectsInsert(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))
	tx, err := c.NewTransaction(true, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	_, err = tx.Insert(types.IntValue(1))
	assert.Error(t, err)
}

func TestNullRejectedOnNonNullableColumn(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))
	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	defer tx.Close()

	_, err = tx.Insert(types.NullValue(types.ColumnTypeInt))
	assert.Error(t, err)
}

func TestNullableColumnAllowsNull(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, true))
	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	id, err := tx.Insert(types.NullValue(types.ColumnTypeInt))
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())

	tx2, _ := c.NewTransaction(true, uuid.New())
	defer tx2.Close()
	_, ok, err := tx2.Read(id)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSecondWriterFailsWriteLockUnavailable(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))

	tx1, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	defer tx1.Close()
	_, err = tx1.Insert(types.IntValue(1))
	assert.NoError(t, err)

	tx2, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	defer tx2.Close()
	_, err = tx2.Insert(types.IntValue(2))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTxWriteLockUnavailable))
}

func TestForEachVisitsInsertedRowsInOrder(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))
	tx, err := c.NewTransaction(false, uuid.New())
	assert.NoError(t, err)
	ids, err := tx.InsertAll([]types.Value{types.IntValue(1), types.IntValue(2), types.IntValue(3)})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())

	tx2, _ := c.NewTransaction(true, uuid.New())
	defer tx2.Close()

	var seen []int64
	err = tx2.ForEach(func(id int64, v types.Value, present bool) error {
		assert.True(t, present)
		seen = append(seen, id)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, ids, seen)
}

func TestDeleteRemovesValue(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))
	tx, _ := c.NewTransaction(false, uuid.New())
	id, _ := tx.Insert(types.IntValue(9))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Close())

	tx2, _ := c.NewTransaction(false, uuid.New())
	assert.NoError(t, tx2.Delete(id))
	assert.NoError(t, tx2.Commit())
	assert.NoError(t, tx2.Close())

	tx3, _ := c.NewTransaction(true, uuid.New())
	defer tx3.Close()
	_, ok, err := tx3.Read(id)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestClosedColumnRejectsNewTransaction(t *testing.T) {
	c := openTestColumn(t, intColumnDef(t, false))
	assert.NoError(t, c.Close())

	_, err := c.NewTransaction(true, uuid.New())
	assert.Error(t, err)
}
