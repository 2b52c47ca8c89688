package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeValue renders v as a self-describing byte payload suitable for
// storage.Store: a type tag, a null flag, and the type-specific payload.
// Columns use this as the storage.Serializer[Value] Marshal function.
func EncodeValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(v.Type))
	if v.IsNull() {
		buf.WriteByte(1)
		return buf.Bytes(), nil
	}
	buf.WriteByte(0)
	switch v.Type {
	case ColumnTypeBoolean:
		buf.WriteByte(boolByte(v.Bool()))
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong:
		binary.Write(&buf, binary.LittleEndian, v.Int())
	case ColumnTypeFloat, ColumnTypeDouble:
		binary.Write(&buf, binary.LittleEndian, v.Float())
	case ColumnTypeString:
		s := v.String()
		binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
		buf.WriteString(s)
	case ColumnTypeBoolVector:
		vec := v.BoolVector()
		binary.Write(&buf, binary.LittleEndian, uint32(len(vec)))
		for _, b := range vec {
			buf.WriteByte(boolByte(b))
		}
	case ColumnTypeIntVector:
		writeNumericVector(&buf, v.IntVector())
	case ColumnTypeLongVector:
		writeNumericVector(&buf, v.LongVector())
	case ColumnTypeFloatVector:
		writeNumericVector(&buf, v.FloatVector())
	case ColumnTypeDoubleVector:
		writeNumericVector(&buf, v.DoubleVector())
	default:
		return nil, fmt.Errorf("encode: unknown column type %v", v.Type)
	}
	return buf.Bytes(), nil
}

func writeNumericVector[T int32 | int64 | float32 | float64](buf *bytes.Buffer, vec []T) {
	binary.Write(buf, binary.LittleEndian, uint32(len(vec)))
	for _, e := range vec {
		binary.Write(buf, binary.LittleEndian, e)
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(b []byte) (Value, error) {
	if len(b) < 2 {
		return Value{}, fmt.Errorf("decode: payload too short")
	}
	t := ColumnType(b[0])
	isNull := b[1] == 1
	r := bytes.NewReader(b[2:])
	if isNull {
		return NullValue(t), nil
	}
	switch t {
	case ColumnTypeBoolean:
		var x byte
		binary.Read(r, binary.LittleEndian, &x)
		return BoolValue(x == 1), nil
	case ColumnTypeByte:
		var x int64
		binary.Read(r, binary.LittleEndian, &x)
		return ByteValue(x), nil
	case ColumnTypeShort:
		var x int64
		binary.Read(r, binary.LittleEndian, &x)
		return ShortValue(x), nil
	case ColumnTypeInt:
		var x int64
		binary.Read(r, binary.LittleEndian, &x)
		return IntValue(x), nil
	case ColumnTypeLong:
		var x int64
		binary.Read(r, binary.LittleEndian, &x)
		return LongValue(x), nil
	case ColumnTypeFloat:
		var x float64
		binary.Read(r, binary.LittleEndian, &x)
		return FloatValue(x), nil
	case ColumnTypeDouble:
		var x float64
		binary.Read(r, binary.LittleEndian, &x)
		return DoubleValue(x), nil
	case ColumnTypeString:
		var n uint32
		binary.Read(r, binary.LittleEndian, &n)
		s := make([]byte, n)
		r.Read(s)
		return StringValue(string(s)), nil
	case ColumnTypeBoolVector:
		var n uint32
		binary.Read(r, binary.LittleEndian, &n)
		vec := make([]bool, n)
		for i := range vec {
			var x byte
			binary.Read(r, binary.LittleEndian, &x)
			vec[i] = x == 1
		}
		return BoolVectorValue(vec), nil
	case ColumnTypeIntVector:
		vec, err := readNumericVector[int32](r)
		if err != nil {
			return Value{}, err
		}
		return IntVectorValue(vec), nil
	case ColumnTypeLongVector:
		vec, err := readNumericVector[int64](r)
		if err != nil {
			return Value{}, err
		}
		return LongVectorValue(vec), nil
	case ColumnTypeFloatVector:
		vec, err := readNumericVector[float32](r)
		if err != nil {
			return Value{}, err
		}
		return FloatVectorValue(vec), nil
	case ColumnTypeDoubleVector:
		vec, err := readNumericVector[float64](r)
		if err != nil {
			return Value{}, err
		}
		return DoubleVectorValue(vec), nil
	default:
		return Value{}, fmt.Errorf("decode: unknown column type %v", t)
	}
}

func readNumericVector[T int32 | int64 | float32 | float64](r *bytes.Reader) ([]T, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	vec := make([]T, n)
	for i := range vec {
		if err := binary.Read(r, binary.LittleEndian, &vec[i]); err != nil {
			return nil, err
		}
	}
	return vec, nil
}
