package entity

import (
	"path/filepath"

	"github.com/cuemby/vexdb/pkg/column"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
)

// Entity is a named, ordered collection of columns sharing one tuple-id
// space.
type Entity struct {
	name    string
	dir     string
	order   []string
	columns map[string]*column.Column
	pivot   string // name of the column whose id allocation is authoritative
}

// Open opens every column under dir/<entity name>/<column name> for the
// given column definitions, in order. The first column is the pivot.
func Open(dir, name string, defs []types.ColumnDef, opts storage.Options) (*Entity, error) {
	if len(defs) == 0 {
		return nil, types.NewError(types.ErrValidation, "entity must have at least one column", nil)
	}
	e := &Entity{
		name:    name,
		dir:     filepath.Join(dir, name),
		columns: make(map[string]*column.Column, len(defs)),
		pivot:   defs[0].Name,
	}
	for _, def := range defs {
		col, err := column.Open(filepath.Join(e.dir, def.Name), def, opts)
		if err != nil {
			e.closeOpened()
			return nil, err
		}
		e.columns[def.Name] = col
		e.order = append(e.order, def.Name)
	}
	return e, nil
}

func (e *Entity) closeOpened() {
	for _, name := range e.order {
		e.columns[name].Close()
	}
}

// Name returns the entity's name.
func (e *Entity) Name() string { return e.name }

// ColumnNames returns the entity's columns in declaration order.
func (e *Entity) ColumnNames() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Column returns the named column, or nil if it doesn't exist.
func (e *Entity) Column(name string) *column.Column { return e.columns[name] }

// Checkpoint truncates every column's write-ahead log.
func (e *Entity) Checkpoint() error {
	var firstErr error
	for _, name := range e.order {
		if err := e.columns[name].Checkpoint(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every column.
func (e *Entity) Close() error {
	var firstErr error
	for _, name := range e.order {
		if err := e.columns[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Tx is an entity-level transaction: one column.Tx per column, opened and
// committed/rolled-back together.
type Tx struct {
	id       uuid.UUID
	entity   *Entity
	readonly bool
	state    column.TxState
	byName   map[string]*column.Tx
}

// NewTransaction opens one transaction per column under id.
func (e *Entity) NewTransaction(readonly bool, id uuid.UUID) (*Tx, error) {
	t := &Tx{id: id, entity: e, readonly: readonly, byName: make(map[string]*column.Tx, len(e.order))}
	for _, name := range e.order {
		ctx, err := e.columns[name].NewTransaction(readonly, id)
		if err != nil {
			t.abortOpened()
			return nil, err
		}
		t.byName[name] = ctx
	}
	return t, nil
}

func (t *Tx) abortOpened() {
	for _, ctx := range t.byName {
		ctx.Close()
	}
}

// Column returns the per-column transaction for name.
func (t *Tx) Column(name string) *column.Tx { return t.byName[name] }

// InsertRow allocates one tuple-id from the pivot column and inserts
// values[i] into entity column order[i], reusing that id in every
// column. len(values) must equal the entity's column count.
func (t *Tx) InsertRow(values []types.Value) (int64, error) {
	if len(values) != len(t.entity.order) {
		return 0, types.NewError(types.ErrValidation, "row has wrong number of values", nil)
	}
	pivotIdx := indexOf(t.entity.order, t.entity.pivot)
	pivotCtx := t.byName[t.entity.pivot]
	id, err := pivotCtx.Insert(values[pivotIdx])
	if err != nil {
		t.state = column.StateError
		return 0, err
	}
	for i, name := range t.entity.order {
		if name == t.entity.pivot {
			continue
		}
		if err := insertAt(t.byName[name], id, values[i]); err != nil {
			t.state = column.StateError
			return 0, err
		}
	}
	return id, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// insertAt is a convenience that inserts v and asserts the store assigned
// exactly id; non-pivot columns are expected to track the pivot's
// allocator 1:1 since all entity columns open over fresh, synchronized
// stores.
func insertAt(ctx *column.Tx, id int64, v types.Value) error {
	got, err := ctx.Insert(v)
	if err != nil {
		return err
	}
	if got != id {
		return types.NewError(types.ErrDataCorruption, "column tuple-id allocation diverged from pivot", nil)
	}
	return nil
}

// Commit commits every column transaction. If any fails, Tx moves to
// ERROR and the already-committed columns cannot be undone at this
// layer — callers relying on cross-column atomicity should use a single
// pivot-driven insert path, which this type provides, rather than mixed
// per-column commits.
func (t *Tx) Commit() error {
	for _, name := range t.entity.order {
		if err := t.byName[name].Commit(); err != nil {
			t.state = column.StateError
			t.rollbackRest(name)
			return err
		}
	}
	t.state = column.StateClean
	return nil
}

func (t *Tx) rollbackRest(except string) {
	for _, name := range t.entity.order {
		if name == except {
			continue
		}
		t.byName[name].Rollback()
	}
}

// Rollback rolls back every column transaction.
func (t *Tx) Rollback() error {
	var firstErr error
	for _, name := range t.entity.order {
		if err := t.byName[name].Rollback(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.state = column.StateClean
	return firstErr
}

// Close closes every column transaction.
func (t *Tx) Close() error {
	var firstErr error
	for _, name := range t.entity.order {
		if err := t.byName[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.state = column.StateClosed
	return firstErr
}
