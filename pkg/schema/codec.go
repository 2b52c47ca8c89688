package schema

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/cuemby/vexdb/pkg/types"
)

func nowNano() int64 { return time.Now().UnixNano() }

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) string {
	var n uint32
	binary.Read(r, binary.LittleEndian, &n)
	b := make([]byte, n)
	r.Read(b)
	return string(b)
}

func encodeHeader(h header) ([]byte, error) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, h.created)
	binary.Write(&buf, binary.LittleEndian, h.modified)
	binary.Write(&buf, binary.LittleEndian, uint32(len(h.entityRecIDs)))
	for _, id := range h.entityRecIDs {
		binary.Write(&buf, binary.LittleEndian, id)
	}
	return buf.Bytes(), nil
}

func decodeHeader(b []byte) (header, error) {
	var h header
	r := bytes.NewReader(b)
	binary.Read(r, binary.LittleEndian, &h.created)
	binary.Read(r, binary.LittleEndian, &h.modified)
	var n uint32
	binary.Read(r, binary.LittleEndian, &n)
	h.entityRecIDs = make([]int64, n)
	for i := range h.entityRecIDs {
		binary.Read(r, binary.LittleEndian, &h.entityRecIDs[i])
	}
	return h, nil
}

func encodeDescriptor(d descriptor) ([]byte, error) {
	var buf bytes.Buffer
	writeString(&buf, d.name)
	writeString(&buf, d.path)
	binary.Write(&buf, binary.LittleEndian, uint32(len(d.columns)))
	for _, c := range d.columns {
		writeString(&buf, c.Name)
		binary.Write(&buf, binary.LittleEndian, int32(c.Type))
		binary.Write(&buf, binary.LittleEndian, int32(c.Size))
		buf.WriteByte(boolByte(c.Nullable))
	}
	return buf.Bytes(), nil
}

func decodeDescriptor(b []byte) (descriptor, error) {
	var d descriptor
	r := bytes.NewReader(b)
	d.name = readString(r)
	d.path = readString(r)
	var n uint32
	binary.Read(r, binary.LittleEndian, &n)
	d.columns = make([]types.ColumnDef, n)
	for i := range d.columns {
		name := readString(r)
		var t, size int32
		binary.Read(r, binary.LittleEndian, &t)
		binary.Read(r, binary.LittleEndian, &size)
		nullByte, _ := r.ReadByte()
		def, err := types.NewColumnDef(name, types.ColumnType(t), int(size), nullByte == 1)
		if err != nil {
			return descriptor{}, err
		}
		d.columns[i] = def
	}
	return d, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
