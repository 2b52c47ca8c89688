package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir(), Options{VolumeFactory: HeapVolumeFactory})
	assert.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPutGetCommit(t *testing.T) {
	st := openTestStore(t)

	id, err := st.Put([]byte("hello"))
	assert.NoError(t, err)

	_, ok, err := st.Get(id)
	assert.NoError(t, err)
	assert.False(t, ok, "uncommitted write should not be visible via Get")

	assert.NoError(t, st.Commit())

	v, ok, err := st.Get(id)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), v)
}

func TestRollbackDiscardsPending(t *testing.T) {
	st := openTestStore(t)

	id, err := st.Put([]byte("a"))
	assert.NoError(t, err)
	assert.NoError(t, st.Rollback())

	_, ok, err := st.Get(id)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateAndDelete(t *testing.T) {
	st := openTestStore(t)

	id, _ := st.Put([]byte("v1"))
	assert.NoError(t, st.Commit())

	assert.NoError(t, st.Update(id, []byte("v2")))
	assert.NoError(t, st.Commit())

	v, ok, _ := st.Get(id)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	assert.NoError(t, st.Delete(id))
	assert.NoError(t, st.Commit())

	_, ok, _ = st.Get(id)
	assert.False(t, ok)
}

func TestCompareAndSwap(t *testing.T) {
	st := openTestStore(t)

	id, _ := st.Put([]byte("v1"))
	assert.NoError(t, st.Commit())

	swapped, err := st.CompareAndSwap(id, []byte("wrong"), []byte("v2"))
	assert.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = st.CompareAndSwap(id, []byte("v1"), []byte("v2"))
	assert.NoError(t, err)
	assert.True(t, swapped)
	assert.NoError(t, st.Commit())

	v, _, _ := st.Get(id)
	assert.Equal(t, []byte("v2"), v)
}

func TestPreallocateIsNullUntilWritten(t *testing.T) {
	st := openTestStore(t)

	id, err := st.Preallocate()
	assert.NoError(t, err)
	assert.NoError(t, st.Commit())

	_, ok, err := st.Get(id)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIterateAllRecIDs(t *testing.T) {
	st := openTestStore(t)

	a, _ := st.Put([]byte("a"))
	b, _ := st.Put([]byte("b"))
	assert.NoError(t, st.Commit())

	ids, err := st.IterateAllRecIDs()
	assert.NoError(t, err)
	assert.ElementsMatch(t, []int64{a, b}, ids)
}

func TestCheckpointPreservesCommittedData(t *testing.T) {
	st := openTestStore(t)

	id, _ := st.Put([]byte("durable"))
	assert.NoError(t, st.Commit())
	assert.NoError(t, st.Checkpoint())

	v, ok, err := st.Get(id)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("durable"), v)
}

func TestCheckpointSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)

	id, err := st.Put([]byte("checkpointed"))
	assert.NoError(t, err)
	assert.NoError(t, st.Commit())
	assert.NoError(t, st.Checkpoint())
	assert.NoError(t, st.Close())

	reopened, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(id)
	assert.NoError(t, err)
	assert.True(t, ok, "record committed before checkpoint must survive reopen")
	assert.Equal(t, []byte("checkpointed"), v)
}

func TestCheckpointThenFurtherWritesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)

	before, err := st.Put([]byte("before-checkpoint"))
	assert.NoError(t, err)
	assert.NoError(t, st.Commit())
	assert.NoError(t, st.Checkpoint())

	after, err := st.Put([]byte("after-checkpoint"))
	assert.NoError(t, err)
	assert.NoError(t, st.Commit())
	assert.NoError(t, st.Close())

	reopened, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(before)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("before-checkpoint"), v)

	v, ok, err = reopened.Get(after)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("after-checkpoint"), v)

	next, err := reopened.Put([]byte("post-reopen"))
	assert.NoError(t, err)
	assert.Equal(t, after+1, next, "nextRecID must resume past the checkpointed high-water mark")
}

func TestWALReplayRecoversCommittedPrefix(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)

	id, _ := st.Put([]byte("replayed"))
	assert.NoError(t, st.Commit())
	uncommitted, _ := st.Put([]byte("lost"))
	assert.NoError(t, st.Close())

	reopened, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(id)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("replayed"), v)

	_, ok, err = reopened.Get(uncommitted)
	assert.NoError(t, err)
	assert.False(t, ok, "uncommitted writes before a crash must not reappear")
}

func TestOpenRejectsSecondLockHolder(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, Options{VolumeFactory: MmapVolumeFactory})
	assert.NoError(t, err)
	defer st.Close()

	_, err = Open(dir, Options{VolumeFactory: MmapVolumeFactory, LockTimeout: 50000000})
	assert.Error(t, err)
}
