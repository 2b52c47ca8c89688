package storage

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/vexdb/pkg/types"
	"github.com/gofrs/flock"
)

// slot is the in-memory index entry for one record-id: either a byte range
// within the volume, or a reservation (Null==true, no physical bytes yet,
// from Preallocate).
type slot struct {
	offset int64
	length int64
	null   bool
}

// Options configures Store.Open.
type Options struct {
	// VolumeFactory selects heap or mmap-backed data pages (§6 volumeFactory).
	VolumeFactory VolumeFactory
	// LockTimeout bounds how long Open waits for the store's file lock
	// before failing with StorageLocked (§4.1, §6 lockTimeout).
	LockTimeout time.Duration
}

// Store is a persistent map from int64 record-id to an opaque byte blob,
// durable via a write-ahead log (§4.1). Callers own serialization; Store
// itself only moves bytes. Store is not safe for concurrent callers beyond
// the locking pkg/column layers on top of it.
type Store struct {
	mu sync.Mutex

	dir  string
	lock *flock.Flock
	vol  Volume
	wal  *walWriter

	index     map[int64]slot
	nextRecID int64
	txCounter uint64

	pending []walOp
	closed  bool
}

// Open opens (creating if absent) the record store rooted at dir. Opening
// the same dir concurrently from two Store instances fails with
// StorageLocked once opts.LockTimeout elapses.
func Open(dir string, opts Options) (*Store, error) {
	if opts.VolumeFactory == nil {
		opts.VolumeFactory = MmapVolumeFactory
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrStorageIO, "create store directory", err)
	}

	lk := flock.New(filepath.Join(dir, "LOCK"))
	locked, err := tryLockWithTimeout(lk, opts.LockTimeout)
	if err != nil {
		return nil, types.NewError(types.ErrStorageIO, "acquire store lock", err)
	}
	if !locked {
		return nil, types.NewError(types.ErrStorageLocked, "store is locked by another process", nil)
	}

	vol, err := opts.VolumeFactory(filepath.Join(dir, "data.vdb"))
	if err != nil {
		lk.Unlock()
		return nil, err
	}

	wal, err := openWAL(filepath.Join(dir, "wal.log"))
	if err != nil {
		vol.Close()
		lk.Unlock()
		return nil, err
	}

	s := &Store{
		dir:       dir,
		lock:      lk,
		vol:       vol,
		wal:       wal,
		index:     make(map[int64]slot),
		nextRecID: types.HeaderTupleID + 1,
	}

	// A checkpoint truncates the WAL, so the index it describes must come
	// from the last snapshot first; replay below only has to account for
	// transactions committed since that snapshot (or the whole history, if
	// this store has never been checkpointed and no snapshot exists yet).
	if idx, nextRecID, ok, err := loadIndexSnapshot(dir); err != nil {
		vol.Close()
		wal.close()
		lk.Unlock()
		return nil, err
	} else if ok {
		s.index = idx
		s.nextRecID = nextRecID
	}

	txs, err := replayWAL(filepath.Join(dir, "wal.log"))
	if err != nil {
		vol.Close()
		wal.close()
		lk.Unlock()
		return nil, err
	}
	for _, ops := range txs {
		s.applyCommitted(ops)
	}

	return s, nil
}

func tryLockWithTimeout(lk *flock.Flock, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := lk.TryLock()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// applyCommitted folds one replayed, already-committed transaction's ops
// into the volume and index. Later transactions in replay order win.
func (s *Store) applyCommitted(ops []walOp) {
	for _, op := range ops {
		if op.kind == recDelete {
			delete(s.index, op.recID)
			continue
		}
		if op.recID >= s.nextRecID {
			s.nextRecID = op.recID + 1
		}
		if op.isNull {
			s.index[op.recID] = slot{null: true}
			continue
		}
		off := s.vol.Size()
		if _, err := s.vol.WriteAt(op.payload, off); err != nil {
			continue
		}
		s.index[op.recID] = slot{offset: off, length: int64(len(op.payload))}
	}
}

func (s *Store) checkOpen() error {
	if s.closed {
		return types.NewError(types.ErrStorageIO, "store is closed", nil)
	}
	return nil
}

// pendingFor looks up the most recent uncommitted op for recID, if any.
func (s *Store) pendingFor(recID int64) (walOp, bool) {
	for i := len(s.pending) - 1; i >= 0; i-- {
		if s.pending[i].recID == recID {
			return s.pending[i], true
		}
	}
	return walOp{}, false
}

// Put appends a new record and returns its assigned id.
func (s *Store) Put(payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	id := s.nextRecID
	s.nextRecID++
	s.pending = append(s.pending, walOp{kind: recPut, recID: id, payload: payload})
	return id, nil
}

// PutAt writes payload at an id the caller already owns (e.g. the shared
// tuple-id an Entity allocated via its pivot column, §4.3).
func (s *Store) PutAt(recID int64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if recID >= s.nextRecID {
		s.nextRecID = recID + 1
	}
	s.pending = append(s.pending, walOp{kind: recPut, recID: recID, payload: payload})
	return nil
}

// Preallocate reserves a record-id without writing a value, for nullable
// columns inserting null (§4.2).
func (s *Store) Preallocate() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	id := s.nextRecID
	s.nextRecID++
	s.pending = append(s.pending, walOp{kind: recPut, recID: id, isNull: true})
	return id, nil
}

// Get returns the record's committed bytes, or (nil, false) if absent
// (deleted, never written, or a null reservation). Ops buffered by the
// open transaction are not visible until Commit.
func (s *Store) Get(recID int64) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	sl, ok := s.index[recID]
	if !ok || sl.null {
		return nil, false, nil
	}
	buf := make([]byte, sl.length)
	if _, err := s.vol.ReadAt(buf, sl.offset); err != nil {
		return nil, false, types.NewError(types.ErrStorageIO, "read record", err)
	}
	return buf, true, nil
}

// Update overwrites recID's value.
func (s *Store) Update(recID int64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.pending = append(s.pending, walOp{kind: recPut, recID: recID, payload: payload})
	return nil
}

// CompareAndSwap updates recID to newPayload only if its current bytes
// equal expected.
func (s *Store) CompareAndSwap(recID int64, expected, newPayload []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	current, ok, err := s.getLocked(recID)
	if err != nil {
		return false, err
	}
	if !ok || !bytesEqual(current, expected) {
		return false, nil
	}
	s.pending = append(s.pending, walOp{kind: recPut, recID: recID, payload: newPayload})
	return true, nil
}

func (s *Store) getLocked(recID int64) ([]byte, bool, error) {
	if op, ok := s.pendingFor(recID); ok {
		if op.kind == recDelete || op.isNull {
			return nil, false, nil
		}
		return op.payload, true, nil
	}
	sl, ok := s.index[recID]
	if !ok || sl.null {
		return nil, false, nil
	}
	buf := make([]byte, sl.length)
	if _, err := s.vol.ReadAt(buf, sl.offset); err != nil {
		return nil, false, types.NewError(types.ErrStorageIO, "read record", err)
	}
	return buf, true, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Delete removes recID.
func (s *Store) Delete(recID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.pending = append(s.pending, walOp{kind: recDelete, recID: recID})
	return nil
}

// IterateAllRecIDs returns every live (non-deleted) record-id in ascending
// order, committed state only — callers needing read-your-own-write
// semantics mid-transaction should track ids themselves.
func (s *Store) IterateAllRecIDs() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(s.index))
	for id := range s.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Commit durably applies every buffered op as one WAL transaction, then
// folds it into the volume/index.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return nil
	}
	s.txCounter++
	if err := s.wal.writeTransaction(s.txCounter, s.pending); err != nil {
		return err
	}
	s.applyCommitted(s.pending)
	s.pending = nil
	return nil
}

// Rollback discards buffered ops without touching the WAL or volume.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.pending = nil
	return nil
}

// Close releases the store's volume, WAL handle and file lock. Any
// uncommitted buffered ops are discarded, matching Rollback semantics.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.pending = nil
	s.closed = true
	var firstErr error
	if err := s.vol.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.vol.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.wal.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = types.NewError(types.ErrStorageIO, "release store lock", err)
	}
	return firstErr
}

// Checkpoint durably snapshots the recID index (offsets into the volume,
// and nextRecID) before truncating the WAL to just its magic header. It
// first syncs the volume so the raw record bytes are durable there, but
// the index describing where they live is otherwise held only in
// memory and rebuilt solely by WAL replay — truncating the WAL without
// first snapshotting the index would make every committed record
// unreachable on the next Open. It is driven periodically by
// pkg/reconciler rather than by callers directly.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.vol.Sync(); err != nil {
		return err
	}
	if err := writeIndexSnapshot(s.dir, s.index, s.nextRecID); err != nil {
		return err
	}
	walPath := filepath.Join(s.dir, "wal.log")
	if err := s.wal.close(); err != nil {
		return err
	}
	if err := os.Truncate(walPath, 0); err != nil {
		return types.NewError(types.ErrStorageIO, "truncate WAL on checkpoint", err)
	}
	w, err := openWAL(walPath)
	if err != nil {
		return err
	}
	s.wal = w
	return nil
}
