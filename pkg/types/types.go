package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the shape of a Name.
type Kind int

const (
	// KindSimple is a single path segment, e.g. "schemaName".
	KindSimple Kind = iota
	// KindFQN is a fully qualified dotted path, e.g. "schema.entity.column".
	KindFQN
	// KindWildcard is a path ending in "*", e.g. "schema.entity.*".
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "SIMPLE"
	case KindFQN:
		return "FQN"
	case KindWildcard:
		return "WILDCARD"
	default:
		return "UNKNOWN"
	}
}

// Name is a dotted hierarchical identifier: "schema", "schema.entity", or
// "schema.entity.column", optionally ending in a "*" wildcard segment.
// Names are value-typed and case-sensitive. A Name holds its segments in a
// slice, so it is not comparable with == and cannot be used as a map key;
// compare with Equals, and key maps by String().
type Name struct {
	kind     Kind
	segments []string
}

// ParseName splits s on "." and classifies the result. An empty string,
// an empty segment, or more than three segments is rejected.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, NewError(ErrSimpleNameRequired, "name must not be empty", nil)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Name{}, NewError(ErrValidation, fmt.Sprintf("name %q has more than 3 segments", s), nil)
	}
	for _, p := range parts {
		if p == "" {
			return Name{}, NewError(ErrValidation, fmt.Sprintf("name %q has an empty segment", s), nil)
		}
	}
	kind := KindSimple
	last := parts[len(parts)-1]
	switch {
	case last == "*":
		kind = KindWildcard
	case len(parts) > 1:
		kind = KindFQN
	}
	return Name{kind: kind, segments: parts}, nil
}

// MustParseName is ParseName but panics on error; for compile-time-known
// literal names only.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// SimpleName builds a KindSimple name from a single segment without going
// through the dotted parser, rejecting empty or dotted input.
func SimpleName(segment string) (Name, error) {
	if segment == "" {
		return Name{}, NewError(ErrSimpleNameRequired, "simple name must not be empty", nil)
	}
	if strings.Contains(segment, ".") {
		return Name{}, NewError(ErrSimpleNameRequired, fmt.Sprintf("%q is not a simple name", segment), nil)
	}
	return Name{kind: KindSimple, segments: []string{segment}}, nil
}

// Kind reports whether the name is SIMPLE, FQN, or WILDCARD.
func (n Name) Kind() Kind { return n.kind }

// Segments returns the name's dotted path segments.
func (n Name) Segments() []string {
	out := make([]string, len(n.segments))
	copy(out, n.segments)
	return out
}

// Segment returns the i'th path segment.
func (n Name) Segment(i int) string {
	if i < 0 || i >= len(n.segments) {
		return ""
	}
	return n.segments[i]
}

// String renders the dotted path, e.g. "schema.entity.column".
func (n Name) String() string {
	return strings.Join(n.segments, ".")
}

// Equals reports whether two names have the same kind and segments.
func (n Name) Equals(other Name) bool {
	if n.kind != other.kind || len(n.segments) != len(other.segments) {
		return false
	}
	for i := range n.segments {
		if n.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether n is the zero Name value.
func (n Name) IsZero() bool { return len(n.segments) == 0 }

// ColumnType enumerates the scalar and fixed-width vector element types a
// column may hold.
type ColumnType int

const (
	ColumnTypeBoolean ColumnType = iota
	ColumnTypeByte
	ColumnTypeShort
	ColumnTypeInt
	ColumnTypeLong
	ColumnTypeFloat
	ColumnTypeDouble
	ColumnTypeString
	ColumnTypeBoolVector
	ColumnTypeIntVector
	ColumnTypeLongVector
	ColumnTypeFloatVector
	ColumnTypeDoubleVector
)

// IsVector reports whether the type is a fixed-width vector type.
func (t ColumnType) IsVector() bool {
	switch t {
	case ColumnTypeBoolVector, ColumnTypeIntVector, ColumnTypeLongVector, ColumnTypeFloatVector, ColumnTypeDoubleVector:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether the type (scalar or vector) holds numeric
// elements, i.e. is a legal kNN / numeric-aggregate source.
func (t ColumnType) IsNumeric() bool {
	switch t {
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong, ColumnTypeFloat, ColumnTypeDouble,
		ColumnTypeIntVector, ColumnTypeLongVector, ColumnTypeFloatVector, ColumnTypeDoubleVector:
		return true
	default:
		return false
	}
}

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeBoolean:
		return "BOOLEAN"
	case ColumnTypeByte:
		return "BYTE"
	case ColumnTypeShort:
		return "SHORT"
	case ColumnTypeInt:
		return "INT"
	case ColumnTypeLong:
		return "LONG"
	case ColumnTypeFloat:
		return "FLOAT"
	case ColumnTypeDouble:
		return "DOUBLE"
	case ColumnTypeString:
		return "STRING"
	case ColumnTypeBoolVector:
		return "BOOL_VECTOR"
	case ColumnTypeIntVector:
		return "INT_VECTOR"
	case ColumnTypeLongVector:
		return "LONG_VECTOR"
	case ColumnTypeFloatVector:
		return "FLOAT_VECTOR"
	case ColumnTypeDoubleVector:
		return "DOUBLE_VECTOR"
	default:
		return "UNKNOWN"
	}
}

// ColumnDef is an immutable column descriptor: name, element type, logical
// size (element count for vectors, 1 for scalars), and nullability.
type ColumnDef struct {
	Name       string
	Type       ColumnType
	Size       int
	Nullable   bool
}

// NewColumnDef constructs a ColumnDef, defaulting Size to 1 for scalar
// types. Vector types require Size >= 1.
func NewColumnDef(name string, t ColumnType, size int, nullable bool) (ColumnDef, error) {
	if name == "" {
		return ColumnDef{}, NewError(ErrSimpleNameRequired, "column name must not be empty", nil)
	}
	if !t.IsVector() {
		size = 1
	} else if size < 1 {
		return ColumnDef{}, NewError(ErrValidation, fmt.Sprintf("vector column %q needs Size >= 1", name), nil)
	}
	return ColumnDef{Name: name, Type: t, Size: size, Nullable: nullable}, nil
}

// Default returns the zero value for the column's type: false, 0, "", or
// a zero-filled vector of the column's size.
func (c ColumnDef) Default() Value {
	switch c.Type {
	case ColumnTypeBoolean:
		return BoolValue(false)
	case ColumnTypeByte:
		return ByteValue(0)
	case ColumnTypeShort:
		return ShortValue(0)
	case ColumnTypeInt:
		return IntValue(0)
	case ColumnTypeLong:
		return LongValue(0)
	case ColumnTypeFloat:
		return FloatValue(0)
	case ColumnTypeDouble:
		return DoubleValue(0)
	case ColumnTypeString:
		return StringValue("")
	case ColumnTypeBoolVector:
		return BoolVectorValue(make([]bool, c.Size))
	case ColumnTypeIntVector:
		return IntVectorValue(make([]int32, c.Size))
	case ColumnTypeLongVector:
		return LongVectorValue(make([]int64, c.Size))
	case ColumnTypeFloatVector:
		return FloatVectorValue(make([]float32, c.Size))
	case ColumnTypeDoubleVector:
		return DoubleVectorValue(make([]float64, c.Size))
	default:
		return Value{}
	}
}

// Validate rejects a null value on a non-nullable column, a wrong-type
// value, or a vector value whose length doesn't match c.Size.
func (c ColumnDef) Validate(v Value) error {
	if v.IsNull() {
		if !c.Nullable {
			return NewError(ErrNullInNonNullable, fmt.Sprintf("column %q is not nullable", c.Name), nil)
		}
		return nil
	}
	if v.Type != c.Type {
		return NewError(ErrTypeMismatch, fmt.Sprintf("column %q expects %s, got %s", c.Name, c.Type, v.Type), nil)
	}
	if c.Type.IsVector() && v.Len() != c.Size {
		return NewError(ErrShapeMismatch, fmt.Sprintf("column %q expects vector of length %d, got %d", c.Name, c.Size, v.Len()), nil)
	}
	return nil
}

// Value is a tagged, possibly-absent typed value. The zero Value is a
// non-null BOOLEAN false; NullValue builds an absent value.
type Value struct {
	Type ColumnType
	null bool

	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string

	boolVec   []bool
	intVec    []int32
	longVec   []int64
	floatVec  []float32
	doubleVec []float64
}

// NullValue returns an absent value of the given type.
func NullValue(t ColumnType) Value { return Value{Type: t, null: true} }

func BoolValue(b bool) Value          { return Value{Type: ColumnTypeBoolean, boolVal: b} }
func ByteValue(v int64) Value         { return Value{Type: ColumnTypeByte, intVal: v} }
func ShortValue(v int64) Value        { return Value{Type: ColumnTypeShort, intVal: v} }
func IntValue(v int64) Value          { return Value{Type: ColumnTypeInt, intVal: v} }
func LongValue(v int64) Value         { return Value{Type: ColumnTypeLong, intVal: v} }
func FloatValue(v float64) Value      { return Value{Type: ColumnTypeFloat, floatVal: v} }
func DoubleValue(v float64) Value     { return Value{Type: ColumnTypeDouble, floatVal: v} }
func StringValue(s string) Value      { return Value{Type: ColumnTypeString, stringVal: s} }
func BoolVectorValue(v []bool) Value  { return Value{Type: ColumnTypeBoolVector, boolVec: v} }
func IntVectorValue(v []int32) Value  { return Value{Type: ColumnTypeIntVector, intVec: v} }
func LongVectorValue(v []int64) Value { return Value{Type: ColumnTypeLongVector, longVec: v} }
func FloatVectorValue(v []float32) Value {
	return Value{Type: ColumnTypeFloatVector, floatVec: v}
}
func DoubleVectorValue(v []float64) Value {
	return Value{Type: ColumnTypeDoubleVector, doubleVec: v}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.null }

// Len returns the vector element count, or 0 for scalar/null values.
func (v Value) Len() int {
	switch v.Type {
	case ColumnTypeBoolVector:
		return len(v.boolVec)
	case ColumnTypeIntVector:
		return len(v.intVec)
	case ColumnTypeLongVector:
		return len(v.longVec)
	case ColumnTypeFloatVector:
		return len(v.floatVec)
	case ColumnTypeDoubleVector:
		return len(v.doubleVec)
	default:
		return 0
	}
}

// Bool returns the boolean payload; valid only for ColumnTypeBoolean.
func (v Value) Bool() bool { return v.boolVal }

// Int returns the integral payload; valid for Byte/Short/Int/Long.
func (v Value) Int() int64 { return v.intVal }

// Float returns the floating-point payload; valid for Float/Double.
func (v Value) Float() float64 { return v.floatVal }

// AsFloat64 promotes any scalar numeric value to float64, for aggregate
// projections (spec §4.5).
func (v Value) AsFloat64() (float64, bool) {
	switch v.Type {
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong:
		return float64(v.intVal), true
	case ColumnTypeFloat, ColumnTypeDouble:
		return v.floatVal, true
	default:
		return 0, false
	}
}

// String returns the string payload; valid only for ColumnTypeString.
func (v Value) String() string { return v.stringVal }

func (v Value) BoolVector() []bool      { return v.boolVec }
func (v Value) IntVector() []int32      { return v.intVec }
func (v Value) LongVector() []int64     { return v.longVec }
func (v Value) FloatVector() []float32  { return v.floatVec }
func (v Value) DoubleVector() []float64 { return v.doubleVec }

// Record is a tuple: a tuple-id, an ordered array of column definitions,
// and an ordered array of values of the same length. Two records are
// equal iff all three components are element-wise equal.
type Record struct {
	TupleID int64
	Columns []ColumnDef
	Values  []Value
}

// Equals reports element-wise equality of tuple-id, columns and values.
func (r Record) Equals(other Record) bool {
	if r.TupleID != other.TupleID || len(r.Columns) != len(other.Columns) || len(r.Values) != len(other.Values) {
		return false
	}
	for i := range r.Columns {
		if r.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range r.Values {
		if !valuesEqual(r.Values[i], other.Values[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type || a.null != b.null {
		return false
	}
	if a.null {
		return true
	}
	switch a.Type {
	case ColumnTypeBoolean:
		return a.boolVal == b.boolVal
	case ColumnTypeByte, ColumnTypeShort, ColumnTypeInt, ColumnTypeLong:
		return a.intVal == b.intVal
	case ColumnTypeFloat, ColumnTypeDouble:
		return a.floatVal == b.floatVal
	case ColumnTypeString:
		return a.stringVal == b.stringVal
	case ColumnTypeBoolVector:
		return equalBoolSlices(a.boolVec, b.boolVec)
	case ColumnTypeIntVector:
		return equalInt32Slices(a.intVec, b.intVec)
	case ColumnTypeLongVector:
		return equalInt64Slices(a.longVec, b.longVec)
	case ColumnTypeFloatVector:
		return equalFloat32Slices(a.floatVec, b.floatVec)
	case ColumnTypeDoubleVector:
		return equalFloat64Slices(a.doubleVec, b.doubleVec)
	default:
		return false
	}
}

func equalBoolSlices(a, b []bool) bool {
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

func equalInt32Slices(a, b []int32) bool {
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

func equalInt64Slices(a, b []int64) bool {
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

func equalFloat32Slices(a, b []float32) bool {
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

func equalFloat64Slices(a, b []float64) bool {
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

const (
	// HeaderTupleID is the reserved record-id every column/schema/catalogue
	// header is stored at (spec §4.1/§6). It is never a valid data tuple-id.
	HeaderTupleID int64 = 1
	// InvalidTupleID is never a valid tuple-id; 0 means "no id assigned".
	InvalidTupleID int64 = 0
)

// ValidTupleID reports whether id may be used as a data tuple-id (i.e. is
// neither 0 nor the reserved header id 1).
func ValidTupleID(id int64) bool {
	return id != InvalidTupleID && id != HeaderTupleID
}
