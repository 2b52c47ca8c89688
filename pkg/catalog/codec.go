package catalog

import (
	"bytes"
	"encoding/binary"
)

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

func encodeSchemaDescriptor(d schemaDescriptor) ([]byte, error) {
	var buf bytes.Buffer
	writeString(&buf, d.name)
	writeString(&buf, d.path)
	return buf.Bytes(), nil
}

func decodeSchemaDescriptor(b []byte) (schemaDescriptor, error) {
	r := bytes.NewReader(b)
	return schemaDescriptor{name: readString(r), path: readString(r)}, nil
}

func encodeCatalogHeader(h catalogHeader) ([]byte, error) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, h.created)
	binary.Write(&buf, binary.LittleEndian, h.modified)
	binary.Write(&buf, binary.LittleEndian, uint32(len(h.schemaRecIDs)))
	for _, id := range h.schemaRecIDs {
		binary.Write(&buf, binary.LittleEndian, id)
	}
	return buf.Bytes(), nil
}

func decodeCatalogHeader(b []byte) (catalogHeader, error) {
	var h catalogHeader
	r := bytes.NewReader(b)
	binary.Read(r, binary.LittleEndian, &h.created)
	binary.Read(r, binary.LittleEndian, &h.modified)
	var n uint32
	binary.Read(r, binary.LittleEndian, &n)
	h.schemaRecIDs = make([]int64, n)
	for i := range h.schemaRecIDs {
		binary.Read(r, binary.LittleEndian, &h.schemaRecIDs[i])
	}
	return h, nil
}
