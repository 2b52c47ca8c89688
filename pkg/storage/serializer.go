package storage

import "github.com/cuemby/vexdb/pkg/types"

// Serializer converts a typed value to and from the raw bytes Store deals
// in. Callers supply one per record type stored in a given Store — a
// schema's store, for instance, holds both a header record and a variable
// number of entity-descriptor records under the same byte-oriented API.
type Serializer[T any] struct {
	Marshal   func(T) ([]byte, error)
	Unmarshal func([]byte) (T, error)
}

// Put serializes value and appends it as a new record.
func Put[T any](s *Store, ser Serializer[T], value T) (int64, error) {
	b, err := ser.Marshal(value)
	if err != nil {
		return 0, types.NewError(types.ErrValidation, "marshal record", err)
	}
	return s.Put(b)
}

// PutAt serializes value and writes it at a caller-owned id.
func PutAt[T any](s *Store, ser Serializer[T], recID int64, value T) error {
	b, err := ser.Marshal(value)
	if err != nil {
		return types.NewError(types.ErrValidation, "marshal record", err)
	}
	return s.PutAt(recID, b)
}

// Get reads and deserializes recID. The bool is false if the record is
// absent (deleted, never written, or a null reservation).
func Get[T any](s *Store, ser Serializer[T], recID int64) (T, bool, error) {
	var zero T
	b, ok, err := s.Get(recID)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, err := ser.Unmarshal(b)
	if err != nil {
		return zero, false, types.NewError(types.ErrStorageCorruption, "unmarshal record", err)
	}
	return v, true, nil
}

// Update serializes value and overwrites recID.
func Update[T any](s *Store, ser Serializer[T], recID int64, value T) error {
	b, err := ser.Marshal(value)
	if err != nil {
		return types.NewError(types.ErrValidation, "marshal record", err)
	}
	return s.Update(recID, b)
}

// CompareAndSwap serializes both sides and delegates to Store's
// byte-level compare-and-swap.
func CompareAndSwap[T any](s *Store, ser Serializer[T], recID int64, expected, newValue T) (bool, error) {
	exp, err := ser.Marshal(expected)
	if err != nil {
		return false, types.NewError(types.ErrValidation, "marshal expected record", err)
	}
	nv, err := ser.Marshal(newValue)
	if err != nil {
		return false, types.NewError(types.ErrValidation, "marshal new record", err)
	}
	return s.CompareAndSwap(recID, exp, nv)
}
