package rpc

import (
	"github.com/cuemby/vexdb/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// kindToCode maps the engine's error taxonomy (spec §7) to the coarse
// gRPC status codes the RPC boundary is required to surface.
var kindToCode = map[types.ErrKind]codes.Code{
	types.ErrValidation:         codes.InvalidArgument,
	types.ErrSimpleNameRequired: codes.InvalidArgument,
	types.ErrUnknownType:        codes.InvalidArgument,
	types.ErrNullInNonNullable:  codes.InvalidArgument,
	types.ErrShapeMismatch:      codes.InvalidArgument,
	types.ErrTypeMismatch:       codes.InvalidArgument,
	types.ErrInvalidTupleID:     codes.InvalidArgument,

	types.ErrSchemaAlreadyExists: codes.AlreadyExists,
	types.ErrEntityAlreadyExists: codes.AlreadyExists,
	types.ErrSchemaDoesNotExist:  codes.NotFound,
	types.ErrEntityDoesNotExist:  codes.NotFound,

	types.ErrTxClosed:               codes.FailedPrecondition,
	types.ErrTxInError:              codes.FailedPrecondition,
	types.ErrTxReadOnly:             codes.FailedPrecondition,
	types.ErrTxWriteLockUnavailable: codes.FailedPrecondition,
	types.ErrTxDBOClosed:            codes.FailedPrecondition,

	types.ErrDataCorruption:     codes.Internal,
	types.ErrStorageIO:          codes.Internal,
	types.ErrStorageLocked:      codes.Internal,
	types.ErrStorageCorruption:  codes.Internal,
	types.ErrParentFailed:       codes.Internal,
	types.ErrTaskTimeout:        codes.Internal,
	types.ErrTaskCancelled:      codes.Internal,
	types.ErrEmptyAggregate:     codes.Internal,
}

// StatusFromError converts an engine error into a gRPC status, falling
// back to Unknown for errors that don't carry a types.ErrKind.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	kind, ok := types.KindOf(err)
	if !ok {
		return status.Error(codes.Unknown, err.Error())
	}
	code, ok := kindToCode[kind]
	if !ok {
		code = codes.Unknown
	}
	return status.Error(code, err.Error())
}
