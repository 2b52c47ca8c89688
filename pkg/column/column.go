package column

import (
	"sync"

	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
)

var valueSerializer = storage.Serializer[types.Value]{
	Marshal:   types.EncodeValue,
	Unmarshal: types.DecodeValue,
}

// Column is a single typed, append-mostly sequence of types.Value backed
// by its own storage.Store. All access goes through a Tx (see NewTransaction).
type Column struct {
	def types.ColumnDef

	store *storage.Store

	// globalMu guards Open/Close against in-flight transactions: every
	// transaction holds the read-side for its whole lifetime; Close takes
	// the write-side (§4.2 "Locking").
	globalMu sync.RWMutex
	closed   bool

	// txMu serializes mutating transactions against readers at
	// transaction granularity (single-writer-many-readers per column).
	txMu sync.RWMutex
}

// Open opens or creates the column's record store at dir.
func Open(dir string, def types.ColumnDef, opts storage.Options) (*Column, error) {
	st, err := storage.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	c := &Column{def: def, store: st}

	_, ok, err := storage.Get(st, headerSerializer, types.HeaderTupleID)
	if err != nil {
		st.Close()
		return nil, err
	}
	if !ok {
		if err := storage.PutAt(st, headerSerializer, types.HeaderTupleID, columnHeader{modified: nowNano()}); err != nil {
			st.Close()
			return nil, err
		}
		if err := st.Commit(); err != nil {
			st.Close()
			return nil, err
		}
	}
	return c, nil
}

var headerSerializer = storage.Serializer[columnHeader]{
	Marshal:   func(h columnHeader) ([]byte, error) { return encodeHeader(h), nil },
	Unmarshal: func(b []byte) (columnHeader, error) { return decodeHeader(b), nil },
}

// Def returns the column's definition.
func (c *Column) Def() types.ColumnDef { return c.def }

// Checkpoint truncates the column's write-ahead log against its
// underlying record store. It takes the global read lock, so it may
// run concurrently with in-flight transactions but not with Close.
func (c *Column) Checkpoint() error {
	c.globalMu.RLock()
	defer c.globalMu.RUnlock()
	if c.closed {
		return nil
	}
	return c.store.Checkpoint()
}

// Close waits out in-flight transactions, then releases the underlying
// store. Close on an already-closed column is a no-op.
func (c *Column) Close() error {
	c.globalMu.Lock()
	defer c.globalMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.store.Close()
}

// TxState is a column transaction's lifecycle state (§4.2).
type TxState int

const (
	StateClean TxState = iota
	StateDirty
	StateClosed
	StateError
)

// Tx is a transaction against one Column.
type Tx struct {
	id       uuid.UUID
	col      *Column
	readonly bool
	state    TxState

	writeLockHeld bool
	readLockHeld  bool

	header      columnHeader
	countDelta  int64
	headerDirty bool
}

// NewTransaction opens a transaction against c. tid is a caller-supplied
// unique id (spec §4.2's 128-bit tx id).
func (c *Column) NewTransaction(readonly bool, tid uuid.UUID) (*Tx, error) {
	c.globalMu.RLock()
	if c.closed {
		c.globalMu.RUnlock()
		return nil, types.NewError(types.ErrTxDBOClosed, "column is closed", nil)
	}
	h, ok, err := storage.Get(c.store, headerSerializer, types.HeaderTupleID)
	if err != nil {
		c.globalMu.RUnlock()
		return nil, err
	}
	if !ok {
		c.globalMu.RUnlock()
		return nil, types.NewError(types.ErrDataCorruption, "column header missing", nil)
	}
	return &Tx{id: tid, col: c, readonly: readonly, state: StateClean, header: h}, nil
}

func (t *Tx) checkLive() error {
	switch t.state {
	case StateClosed:
		return types.NewError(types.ErrTxClosed, "transaction is closed", nil)
	case StateError:
		return types.NewError(types.ErrTxInError, "transaction is in ERROR state", nil)
	default:
		return nil
	}
}

// acquireRead takes the tx-lock read-side, once, for the transaction's
// lifetime.
func (t *Tx) acquireRead() {
	if !t.readLockHeld && !t.writeLockHeld {
		t.col.txMu.RLock()
		t.readLockHeld = true
	}
}

// acquireWrite escalates to the tx-lock write-side on the first mutating
// call, via TryLock — no blocking beyond the attempt (spec §4.2).
func (t *Tx) acquireWrite() error {
	if t.writeLockHeld {
		return nil
	}
	if t.readLockHeld {
		t.col.txMu.RUnlock()
		t.readLockHeld = false
	}
	if !t.col.txMu.TryLock() {
		t.state = StateError
		return types.NewError(types.ErrTxWriteLockUnavailable, "column write lock unavailable", nil)
	}
	t.writeLockHeld = true
	t.state = StateDirty
	return nil
}

func checkTupleID(id int64) error {
	if !types.ValidTupleID(id) {
		return types.NewError(types.ErrInvalidTupleID, "tuple-id 0 and 1 are reserved", nil)
	}
	return nil
}

// Read returns the value at id, or (zero, false) if absent.
func (t *Tx) Read(id int64) (types.Value, bool, error) {
	if err := t.checkLive(); err != nil {
		return types.Value{}, false, err
	}
	if err := checkTupleID(id); err != nil {
		return types.Value{}, false, err
	}
	t.acquireRead()
	return storage.Get(t.col.store, valueSerializer, id)
}

// ReadAll reads each id in order, returning a parallel slice of presence
// flags alongside the values.
func (t *Tx) ReadAll(ids []int64) ([]types.Value, []bool, error) {
	vals := make([]types.Value, len(ids))
	present := make([]bool, len(ids))
	for i, id := range ids {
		v, ok, err := t.Read(id)
		if err != nil {
			return nil, nil, err
		}
		vals[i], present[i] = v, ok
	}
	return vals, present, nil
}

// Count returns the row count from the column header.
func (t *Tx) Count() (int64, error) {
	if err := t.checkLive(); err != nil {
		return 0, err
	}
	return t.header.count + t.countDelta, nil
}

// allIDs returns every non-header record-id, header excluded; the header
// must be the iterator's own first id or DataCorruption is raised.
func (t *Tx) allIDs() ([]int64, error) {
	ids, err := t.col.store.IterateAllRecIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if ids[0] != types.HeaderTupleID {
		return nil, types.NewError(types.ErrDataCorruption, "header is not the first record-id", nil)
	}
	return ids[1:], nil
}

// ForEach calls f for every non-header tuple-id in ascending order.
func (t *Tx) ForEach(f func(id int64, v types.Value, present bool) error) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	t.acquireRead()
	ids, err := t.allIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		v, ok, err := storage.Get(t.col.store, valueSerializer, id)
		if err != nil {
			return err
		}
		if err := f(id, v, ok); err != nil {
			return err
		}
	}
	return nil
}

// Map projects every non-header value through f.
func (t *Tx) Map(f func(types.Value) types.Value) ([]types.Value, error) {
	var out []types.Value
	err := t.ForEach(func(_ int64, v types.Value, present bool) error {
		if present {
			out = append(out, f(v))
		}
		return nil
	})
	return out, err
}

// Filter returns the tuple-ids whose present value satisfies p.
func (t *Tx) Filter(p func(types.Value) bool) ([]int64, error) {
	var ids []int64
	err := t.ForEach(func(id int64, v types.Value, present bool) error {
		if present && p(v) {
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// ParallelForEach partitions non-header ids into n roughly-equal blocks
// and runs f over each block concurrently, joining before returning
// (spec's "scoped nursery" §5).
func (t *Tx) ParallelForEach(f func(id int64, v types.Value, present bool) error, n int) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	t.acquireRead()
	ids, err := t.allIDs()
	if err != nil {
		return err
	}
	if n < 1 {
		n = 1
	}
	if len(ids) == 0 {
		return nil
	}
	blockSize := (len(ids) + n - 1) / n
	var wg sync.WaitGroup
	errs := make([]error, n)
	for b := 0; b < n; b++ {
		start := b * blockSize
		if start >= len(ids) {
			break
		}
		end := start + blockSize
		if end > len(ids) {
			end = len(ids)
		}
		wg.Add(1)
		go func(b int, block []int64) {
			defer wg.Done()
			for _, id := range block {
				v, ok, err := storage.Get(t.col.store, valueSerializer, id)
				if err != nil {
					errs[b] = err
					return
				}
				if err := f(id, v, ok); err != nil {
					errs[b] = err
					return
				}
			}
		}(b, ids[start:end])
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Insert appends v and returns its assigned tuple-id.
func (t *Tx) Insert(v types.Value) (int64, error) {
	if err := t.checkLive(); err != nil {
		return 0, err
	}
	if t.readonly {
		return 0, types.NewError(types.ErrTxReadOnly, "insert on a read-only transaction", nil)
	}
	if err := t.col.def.Validate(v); err != nil {
		return 0, err
	}
	if err := t.acquireWrite(); err != nil {
		return 0, err
	}
	var id int64
	var err error
	if v.IsNull() {
		id, err = t.col.store.Preallocate()
	} else {
		b, merr := types.EncodeValue(v)
		if merr != nil {
			return 0, types.NewError(types.ErrValidation, "encode value", merr)
		}
		id, err = t.col.store.Put(b)
	}
	if err != nil {
		return 0, err
	}
	t.countDelta++
	t.headerDirty = true
	return id, nil
}

// InsertAll inserts each value in order, returning their assigned ids.
func (t *Tx) InsertAll(vs []types.Value) ([]int64, error) {
	ids := make([]int64, len(vs))
	for i, v := range vs {
		id, err := t.Insert(v)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Update overwrites id's value.
func (t *Tx) Update(id int64, v types.Value) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	if t.readonly {
		return types.NewError(types.ErrTxReadOnly, "update on a read-only transaction", nil)
	}
	if err := checkTupleID(id); err != nil {
		return err
	}
	if err := t.col.def.Validate(v); err != nil {
		return err
	}
	if err := t.acquireWrite(); err != nil {
		return err
	}
	b, err := types.EncodeValue(v)
	if err != nil {
		return types.NewError(types.ErrValidation, "encode value", err)
	}
	t.headerDirty = true
	return t.col.store.Update(id, b)
}

// CompareAndUpdate updates id to v only if its current value equals
// expected.
func (t *Tx) CompareAndUpdate(id int64, v, expected types.Value) (bool, error) {
	if err := t.checkLive(); err != nil {
		return false, err
	}
	if t.readonly {
		return false, types.NewError(types.ErrTxReadOnly, "compareAndUpdate on a read-only transaction", nil)
	}
	if err := checkTupleID(id); err != nil {
		return false, err
	}
	if err := t.col.def.Validate(v); err != nil {
		return false, err
	}
	if err := t.acquireWrite(); err != nil {
		return false, err
	}
	ok, err := storage.CompareAndSwap(t.col.store, valueSerializer, id, expected, v)
	if ok {
		t.headerDirty = true
	}
	return ok, err
}

// Delete removes id.
func (t *Tx) Delete(id int64) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	if t.readonly {
		return types.NewError(types.ErrTxReadOnly, "delete on a read-only transaction", nil)
	}
	if err := checkTupleID(id); err != nil {
		return err
	}
	if err := t.acquireWrite(); err != nil {
		return err
	}
	if err := t.col.store.Delete(id); err != nil {
		return err
	}
	t.countDelta--
	t.headerDirty = true
	return nil
}

// DeleteAll deletes every id.
func (t *Tx) DeleteAll(ids []int64) error {
	for _, id := range ids {
		if err := t.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

// Commit persists buffered mutations and the updated header, then
// returns the transaction to CLEAN.
func (t *Tx) Commit() error {
	if err := t.checkLive(); err != nil {
		return err
	}
	if t.headerDirty {
		newHeader := columnHeader{count: t.header.count + t.countDelta, modified: nowNano()}
		if err := storage.Update(t.col.store, headerSerializer, types.HeaderTupleID, newHeader); err != nil {
			t.state = StateError
			return err
		}
		t.header = newHeader
		t.countDelta = 0
		t.headerDirty = false
	}
	if err := t.col.store.Commit(); err != nil {
		t.state = StateError
		return err
	}
	t.releaseTxLock()
	t.state = StateClean
	return nil
}

// Rollback discards buffered mutations, returning the transaction to
// CLEAN.
func (t *Tx) Rollback() error {
	if t.state == StateClosed {
		return types.NewError(types.ErrTxClosed, "transaction is closed", nil)
	}
	if err := t.col.store.Rollback(); err != nil {
		return err
	}
	t.countDelta = 0
	t.headerDirty = false
	t.releaseTxLock()
	t.state = StateClean
	return nil
}

// Close rolls back a DIRTY transaction, then releases the column's
// global read-lock, moving the transaction to CLOSED.
func (t *Tx) Close() error {
	if t.state == StateClosed {
		return nil
	}
	if t.state == StateDirty {
		if err := t.Rollback(); err != nil {
			log.Errorf("rollback on close failed", err)
		}
	}
	t.releaseTxLock()
	t.col.globalMu.RUnlock()
	t.state = StateClosed
	return nil
}

func (t *Tx) releaseTxLock() {
	if t.writeLockHeld {
		t.col.txMu.Unlock()
		t.writeLockHeld = false
	}
	if t.readLockHeld {
		t.col.txMu.RUnlock()
		t.readLockHeld = false
	}
}
