package storage

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cuemby/vexdb/pkg/types"
)

// snapMagic identifies a vexdb index snapshot; checked once on load.
var snapMagic = [4]byte{'V', 'S', 'N', 'P'}

// writeIndexSnapshot durably records the recID -> slot mapping and
// nextRecID, the state Open would otherwise have to rebuild from a WAL that
// Checkpoint is about to discard. It writes to a temp file, fsyncs, then
// renames over the previous snapshot so a crash mid-write never leaves a
// torn snapshot in place of a good one.
func writeIndexSnapshot(dir string, index map[int64]slot, nextRecID int64) error {
	ids := make([]int64, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, nextRecID)
	binary.Write(&body, binary.LittleEndian, uint32(len(ids)))
	for _, id := range ids {
		sl := index[id]
		binary.Write(&body, binary.LittleEndian, id)
		binary.Write(&body, binary.LittleEndian, sl.offset)
		binary.Write(&body, binary.LittleEndian, sl.length)
		body.WriteByte(boolByte(sl.null))
	}

	path := filepath.Join(dir, "index.snap")
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return types.NewError(types.ErrStorageIO, "create index snapshot", err)
	}
	if _, err := f.Write(snapMagic[:]); err != nil {
		f.Close()
		return types.NewError(types.ErrStorageIO, "write snapshot magic", err)
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		f.Close()
		return types.NewError(types.ErrStorageIO, "write snapshot body", err)
	}
	if err := binary.Write(f, binary.LittleEndian, xxhash.Sum64(body.Bytes())); err != nil {
		f.Close()
		return types.NewError(types.ErrStorageIO, "write snapshot checksum", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return types.NewError(types.ErrStorageIO, "fsync index snapshot", err)
	}
	if err := f.Close(); err != nil {
		return types.NewError(types.ErrStorageIO, "close index snapshot", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return types.NewError(types.ErrStorageIO, "install index snapshot", err)
	}
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// loadIndexSnapshot reads a snapshot written by writeIndexSnapshot. ok is
// false when no snapshot exists yet (a store that has never checkpointed),
// in which case Open must rebuild entirely from WAL replay as before.
func loadIndexSnapshot(dir string) (map[int64]slot, int64, bool, error) {
	b, err := os.ReadFile(filepath.Join(dir, "index.snap"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, types.NewError(types.ErrStorageIO, "read index snapshot", err)
	}
	const headerLen = 4
	const checksumLen = 8
	if len(b) < headerLen+checksumLen {
		return nil, 0, false, types.NewError(types.ErrStorageCorruption, "truncated index snapshot", nil)
	}
	if !bytes.Equal(b[:headerLen], snapMagic[:]) {
		return nil, 0, false, types.NewError(types.ErrStorageCorruption, "bad index snapshot magic", nil)
	}
	body := b[headerLen : len(b)-checksumLen]
	wantChecksum := binary.LittleEndian.Uint64(b[len(b)-checksumLen:])
	if xxhash.Sum64(body) != wantChecksum {
		return nil, 0, false, types.NewError(types.ErrStorageCorruption, "index snapshot checksum mismatch", nil)
	}

	r := bytes.NewReader(body)
	var nextRecID int64
	if err := binary.Read(r, binary.LittleEndian, &nextRecID); err != nil {
		return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot header", err)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot count", err)
	}
	index := make(map[int64]slot, count)
	for i := uint32(0); i < count; i++ {
		var id int64
		var sl slot
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot entry", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sl.offset); err != nil {
			return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot entry", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sl.length); err != nil {
			return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot entry", err)
		}
		nullByte, err := r.ReadByte()
		if err != nil {
			return nil, 0, false, types.NewError(types.ErrStorageCorruption, "read index snapshot entry", err)
		}
		sl.null = nullByte == 1
		index[id] = sl
	}
	return index, nextRecID, true, nil
}
