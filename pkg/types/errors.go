package types

import (
	"errors"
	"fmt"
)

// ErrKind is the engine's error taxonomy (spec §7). Every error the engine
// returns wraps exactly one ErrKind, testable with errors.Is.
type ErrKind struct {
	name string
}

func (k ErrKind) Error() string { return k.name }

// Validation kinds.
var (
	ErrValidation         = ErrKind{"validation"}
	ErrSimpleNameRequired = ErrKind{"simple_name_required"}
	ErrUnknownType        = ErrKind{"unknown_type"}
	ErrNullInNonNullable  = ErrKind{"null_in_non_nullable"}
	ErrShapeMismatch      = ErrKind{"shape_mismatch"}
	ErrTypeMismatch       = ErrKind{"type_mismatch"}
	ErrInvalidTupleID     = ErrKind{"invalid_tuple_id"}
)

// Catalog kinds.
var (
	ErrSchemaAlreadyExists = ErrKind{"schema_already_exists"}
	ErrSchemaDoesNotExist  = ErrKind{"schema_does_not_exist"}
	ErrEntityAlreadyExists = ErrKind{"entity_already_exists"}
	ErrEntityDoesNotExist  = ErrKind{"entity_does_not_exist"}
)

// Transaction kinds.
var (
	ErrTxClosed             = ErrKind{"tx_closed"}
	ErrTxInError            = ErrKind{"tx_in_error"}
	ErrTxReadOnly           = ErrKind{"tx_read_only"}
	ErrTxWriteLockUnavailable = ErrKind{"tx_write_lock_unavailable"}
	ErrTxDBOClosed          = ErrKind{"tx_dbo_closed"}
	ErrDataCorruption       = ErrKind{"data_corruption"}
)

// Storage kinds.
var (
	ErrStorageIO         = ErrKind{"storage_io"}
	ErrStorageLocked     = ErrKind{"storage_locked"}
	ErrStorageCorruption = ErrKind{"storage_corruption"}
)

// Execution kinds.
var (
	ErrParentFailed   = ErrKind{"parent_failed"}
	ErrTaskTimeout    = ErrKind{"task_timeout"}
	ErrTaskCancelled  = ErrKind{"task_cancelled"}
	ErrEmptyAggregate = ErrKind{"empty_aggregate"}
)

// Error wraps an ErrKind with a human-readable message and an optional
// underlying cause.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.name, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.name, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, SomeErrKind) succeed by comparing Kind rather than
// requiring the exact *Error pointer.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrKind)
	return ok && e.Kind == k
}

// NewError constructs an *Error of the given kind.
func NewError(kind ErrKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrKind from err, if any, walking the wrap chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return ErrKind{}, false
}
