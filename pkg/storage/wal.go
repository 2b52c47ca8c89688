package storage

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/cuemby/vexdb/pkg/types"
)

// walMagic identifies a vexdb WAL segment; checked once on open.
var walMagic = [4]byte{'V', 'W', 'A', 'L'}

const (
	recBegin byte = iota + 1
	recPut
	recDelete
	recCommit
)

// walOp is one buffered mutation awaiting commit.
type walOp struct {
	kind    byte // recPut or recDelete
	recID   int64
	payload []byte // nil for deletes and reservations
	isNull  bool   // true for a preallocate (reserved id, no payload)
}

// walWriter appends committed transactions to the WAL file. Entries for an
// uncommitted transaction are never written — buffering happens in Store,
// so a crash before Commit leaves the WAL untouched (spec §8 scenario 2).
type walWriter struct {
	f *os.File
}

func openWAL(path string) (*walWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, types.NewError(types.ErrStorageIO, "open WAL", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, types.NewError(types.ErrStorageIO, "stat WAL", err)
	}
	if info.Size() == 0 {
		if _, err := f.Write(walMagic[:]); err != nil {
			f.Close()
			return nil, types.NewError(types.ErrStorageIO, "write WAL magic", err)
		}
	}
	return &walWriter{f: f}, nil
}

// writeTransaction appends BEGIN, each op, then COMMIT, and fsyncs before
// returning — the durability boundary §4.1 requires.
func (w *walWriter) writeTransaction(txID uint64, ops []walOp) error {
	bw := bufio.NewWriter(w.f)
	if err := writeMarker(bw, recBegin, txID); err != nil {
		return err
	}
	for _, op := range ops {
		if err := writeOp(bw, txID, op); err != nil {
			return err
		}
	}
	if err := writeMarker(bw, recCommit, txID); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return types.NewError(types.ErrStorageIO, "flush WAL", err)
	}
	if err := w.f.Sync(); err != nil {
		return types.NewError(types.ErrStorageIO, "fsync WAL", err)
	}
	return nil
}

func (w *walWriter) close() error {
	if err := w.f.Close(); err != nil {
		return types.NewError(types.ErrStorageIO, "close WAL", err)
	}
	return nil
}

func writeMarker(bw *bufio.Writer, rec byte, txID uint64) error {
	if err := bw.WriteByte(rec); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL marker", err)
	}
	return binary.Write(bw, binary.LittleEndian, txID)
}

func writeOp(bw *bufio.Writer, txID uint64, op walOp) error {
	rec := recPut
	if op.kind == recDelete {
		rec = recDelete
	}
	if err := bw.WriteByte(rec); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL op", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, txID); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL txid", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, op.recID); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL recid", err)
	}
	if rec == recDelete {
		return nil
	}
	if err := bw.WriteByte(boolByte(op.isNull)); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL null flag", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(op.payload))); err != nil {
		return types.NewError(types.ErrStorageIO, "write WAL length", err)
	}
	if len(op.payload) > 0 {
		if _, err := bw.Write(op.payload); err != nil {
			return types.NewError(types.ErrStorageIO, "write WAL payload", err)
		}
	}
	return binary.Write(bw, binary.LittleEndian, xxhash.Sum64(op.payload))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// replayedTx accumulates the ops seen for one transaction id until a
// commit (or EOF, meaning the transaction never committed and is
// discarded) record is seen.
type replayedTx struct {
	ops       []walOp
	committed bool
}

// replayWAL reads path sequentially and returns, in commit order, the ops
// of every transaction that reached a COMMIT marker. An incomplete tail
// (a BEGIN with no matching COMMIT, e.g. a crash mid-write) is silently
// dropped rather than treated as corruption — that is exactly the
// "no partial effects visible after a crash before commit" contract.
func replayWAL(path string) ([][]walOp, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, types.NewError(types.ErrStorageIO, "open WAL for replay", err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, nil
		}
		return nil, types.NewError(types.ErrStorageIO, "read WAL magic", err)
	}
	if magic != walMagic {
		return nil, types.NewError(types.ErrStorageCorruption, "bad WAL magic", nil)
	}

	br := bufio.NewReader(f)
	txs := make(map[uint64]*replayedTx)
	var order []uint64

	for {
		rec, err := br.ReadByte()
		if err != nil {
			break // clean or truncated EOF: stop, keep what committed so far
		}
		var txID uint64
		if err := binary.Read(br, binary.LittleEndian, &txID); err != nil {
			break
		}
		tx, ok := txs[txID]
		if !ok {
			tx = &replayedTx{}
			txs[txID] = tx
			order = append(order, txID)
		}
		switch rec {
		case recBegin:
			// nothing further to read
		case recCommit:
			tx.committed = true
		case recPut:
			op, err := readPutOp(br, txID)
			if err != nil {
				if err == io.ErrUnexpectedEOF {
					return finishReplay(txs, order), nil
				}
				return nil, err
			}
			tx.ops = append(tx.ops, op)
		case recDelete:
			var recID int64
			if err := binary.Read(br, binary.LittleEndian, &recID); err != nil {
				return finishReplay(txs, order), nil
			}
			tx.ops = append(tx.ops, walOp{kind: recDelete, recID: recID})
		default:
			// Only the uncommitted tail can contain a torn write (a commit
			// always fsyncs the whole transaction first), so an
			// unrecognized record type here is a partial trailing write,
			// not corruption of already-durable data.
			return finishReplay(txs, order), nil
		}
	}
	return finishReplay(txs, order), nil
}

func finishReplay(txs map[uint64]*replayedTx, order []uint64) [][]walOp {
	var committed [][]walOp
	for _, id := range order {
		if txs[id].committed {
			committed = append(committed, txs[id].ops)
		}
	}
	return committed
}

func readPutOp(br *bufio.Reader, txID uint64) (walOp, error) {
	var recID int64
	if err := binary.Read(br, binary.LittleEndian, &recID); err != nil {
		return walOp{}, io.ErrUnexpectedEOF
	}
	nullFlag, err := br.ReadByte()
	if err != nil {
		return walOp{}, io.ErrUnexpectedEOF
	}
	var length uint32
	if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
		return walOp{}, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(br, payload); err != nil {
			return walOp{}, io.ErrUnexpectedEOF
		}
	}
	var checksum uint64
	if err := binary.Read(br, binary.LittleEndian, &checksum); err != nil {
		return walOp{}, io.ErrUnexpectedEOF
	}
	if xxhash.Sum64(payload) != checksum {
		return walOp{}, types.NewError(types.ErrStorageCorruption, "WAL checksum mismatch", nil)
	}
	return walOp{kind: recPut, recID: recID, payload: payload, isNull: nullFlag == 1}, nil
}
