package column

import (
	"bytes"
	"encoding/binary"
	"time"
)

// columnHeader is stored at types.HeaderTupleID. count and modified follow
// spec §4.2's header-update discipline: count tracks logical row count
// exactly, modified is wall-clock time of the last mutating commit.
type columnHeader struct {
	count    int64
	modified int64 // unix nanoseconds
}

func encodeHeader(h columnHeader) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, h.count)
	binary.Write(&buf, binary.LittleEndian, h.modified)
	return buf.Bytes()
}

func decodeHeader(b []byte) columnHeader {
	var h columnHeader
	r := bytes.NewReader(b)
	binary.Read(r, binary.LittleEndian, &h.count)
	binary.Read(r, binary.LittleEndian, &h.modified)
	return h
}

func nowNano() int64 { return time.Now().UnixNano() }
