/*
Package types defines the core value types shared across vexdb: hierarchical
names, column descriptors, tagged values, tuples, and the engine-wide error
taxonomy. These types carry data and validation only — the behavior that
acts on them (storage, transactions, execution) lives in pkg/storage,
pkg/column, pkg/entity, pkg/schema, pkg/catalog and pkg/recordset.

# Core Types

Naming:
  - Name: dotted hierarchical identifier (SIMPLE, FQN, or WILDCARD)
  - Kind: the name's discriminator

Schema:
  - ColumnType: the closed set of scalar and fixed-width vector types
  - ColumnDef: immutable column descriptor with a default value and a
    Validate predicate

Data:
  - Value: a tagged, possibly-absent typed value
  - Record: a tuple-id plus parallel ColumnDef/Value arrays

Errors:
  - ErrKind (error taxonomy): the Validation/Catalog/Transaction/Storage/
    Execution kinds from spec §7, as sentinel-comparable wrapped errors

# Design Patterns

Enumeration Pattern: enums are typed string/int constants, not raw
integers, so misuse fails at compile time:

	type ColumnType int
	const (
	    ColumnTypeBoolean ColumnType = iota
	    ColumnTypeByte
	    ...
	)

Error Pattern: every error the engine returns wraps an ErrKind that callers
can test with errors.Is, and an optional underlying cause via %w — see
errors.go.

# Thread Safety

All types here are immutable after construction and safe for concurrent
reads from multiple goroutines. Nothing in this package performs I/O or
locking; that is the job of the packages built on top of it.
*/
package types
