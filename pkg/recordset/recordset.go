package recordset

import (
	"sort"

	"github.com/cuemby/vexdb/pkg/types"
)

// Recordset is an ordered sequence of rows sharing one column schema.
type Recordset struct {
	Columns []types.ColumnDef
	Rows    []types.Record
}

// New builds a Recordset from columns and rows, without validating rows
// against columns (callers that build rows from a column scan already
// guarantee the match).
func New(columns []types.ColumnDef, rows []types.Record) Recordset {
	return Recordset{Columns: columns, Rows: rows}
}

func (rs Recordset) columnIndex(name string) int {
	for i, c := range rs.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cost constants (spec §4.5): a fixed per-operation, per-row estimate
// used for observability, not plan selection.
const (
	CostMemoryRead  = 1.0
	CostDiskRead    = 50.0
	CostMemoryWrite = 1.0
	CostCPU         = 2.0
)

// Project emits a Recordset containing only the named fields, renamed
// per aliases (aliases maps source column name to output name; a column
// absent from aliases keeps its name).
func Project(rs Recordset, fields []string, aliases map[string]string) (Recordset, error) {
	idxs := make([]int, len(fields))
	outCols := make([]types.ColumnDef, len(fields))
	for i, f := range fields {
		idx := rs.columnIndex(f)
		if idx < 0 {
			return Recordset{}, types.NewError(types.ErrValidation, "unknown projection field "+f, nil)
		}
		idxs[i] = idx
		col := rs.Columns[idx]
		if alias, ok := aliases[f]; ok {
			col.Name = alias
		}
		outCols[i] = col
	}
	outRows := make([]types.Record, len(rs.Rows))
	for r, row := range rs.Rows {
		vals := make([]types.Value, len(idxs))
		for i, idx := range idxs {
			vals[i] = row.Values[idx]
		}
		outRows[r] = types.Record{TupleID: row.TupleID, Columns: outCols, Values: vals}
	}
	return Recordset{Columns: outCols, Rows: outRows}, nil
}

// Filter keeps rows for which pred returns true, preserving order and
// tuple-ids.
func Filter(rs Recordset, pred func(types.Record) bool) Recordset {
	var rows []types.Record
	for _, row := range rs.Rows {
		if pred(row) {
			rows = append(rows, row)
		}
	}
	return Recordset{Columns: rs.Columns, Rows: rows}
}

// Limit emits the first k rows.
func Limit(rs Recordset, k int) Recordset {
	if k >= len(rs.Rows) {
		return rs
	}
	if k < 0 {
		k = 0
	}
	rows := make([]types.Record, k)
	copy(rows, rs.Rows[:k])
	return Recordset{Columns: rs.Columns, Rows: rows}
}

// Sort stable-sorts rows by the key derived from each row. less reports
// whether a sorts before b.
func Sort(rs Recordset, less func(a, b types.Record) bool) Recordset {
	rows := make([]types.Record, len(rs.Rows))
	copy(rows, rs.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return Recordset{Columns: rs.Columns, Rows: rows}
}

// oneByOneDouble builds the 1x1 double Recordset aggregate projections
// collapse to.
func oneByOneDouble(name string, v float64) Recordset {
	col, _ := types.NewColumnDef(name, types.ColumnTypeDouble, 1, false)
	return Recordset{
		Columns: []types.ColumnDef{col},
		Rows:    []types.Record{{TupleID: types.HeaderTupleID + 1, Columns: []types.ColumnDef{col}, Values: []types.Value{types.DoubleValue(v)}}},
	}
}

// Count collapses rs to its row count.
func Count(rs Recordset) Recordset {
	return oneByOneDouble("count", float64(len(rs.Rows)))
}

// numericColumn extracts column and promotes every row's value at that
// column to float64.
func numericColumn(rs Recordset, column string) ([]float64, error) {
	idx := rs.columnIndex(column)
	if idx < 0 {
		return nil, types.NewError(types.ErrValidation, "unknown aggregate column "+column, nil)
	}
	if rs.Columns[idx].Type.IsVector() {
		return nil, types.NewError(types.ErrTypeMismatch, "aggregate column "+column+" is not scalar numeric", nil)
	}
	out := make([]float64, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		f, ok := row.Values[idx].AsFloat64()
		if !ok {
			continue // null or non-numeric value: skip, matching SQL-style aggregate semantics
		}
		out = append(out, f)
	}
	return out, nil
}

// Sum collapses column to the sum of its non-null values (0.0 if empty).
func Sum(rs Recordset, column string) (Recordset, error) {
	vals, err := numericColumn(rs, column)
	if err != nil {
		return Recordset{}, err
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return oneByOneDouble("sum", sum), nil
}

// Min collapses column to its minimum non-null value, seeded from the
// first observed value rather than a literal 0.0 so all-positive columns
// are handled correctly. Empty input yields 0.0.
func Min(rs Recordset, column string) (Recordset, error) {
	vals, err := numericColumn(rs, column)
	if err != nil {
		return Recordset{}, err
	}
	if len(vals) == 0 {
		return oneByOneDouble("min", 0.0), nil
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return oneByOneDouble("min", min), nil
}

// Max collapses column to its maximum non-null value, seeded from the
// first observed value for the same reason as Min.
func Max(rs Recordset, column string) (Recordset, error) {
	vals, err := numericColumn(rs, column)
	if err != nil {
		return Recordset{}, err
	}
	if len(vals) == 0 {
		return oneByOneDouble("max", 0.0), nil
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	return oneByOneDouble("max", max), nil
}

// Mean collapses column to its arithmetic mean. An empty input fails
// with EmptyAggregate (spec's resolved open question §9).
func Mean(rs Recordset, column string) (Recordset, error) {
	vals, err := numericColumn(rs, column)
	if err != nil {
		return Recordset{}, err
	}
	if len(vals) == 0 {
		return Recordset{}, types.NewError(types.ErrEmptyAggregate, "mean over empty input", nil)
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return oneByOneDouble("mean", sum/float64(len(vals))), nil
}

// DistinctCount collapses column to its count of distinct non-null
// values — a supplemented aggregate beyond the minimum count/sum/min/
// max/mean set.
func DistinctCount(rs Recordset, column string) (Recordset, error) {
	idx := rs.columnIndex(column)
	if idx < 0 {
		return Recordset{}, types.NewError(types.ErrValidation, "unknown aggregate column "+column, nil)
	}
	seen := make(map[string]struct{})
	for _, row := range rs.Rows {
		v := row.Values[idx]
		if v.IsNull() {
			continue
		}
		seen[valueKey(v)] = struct{}{}
	}
	return oneByOneDouble("distinct_count", float64(len(seen))), nil
}

// Exists collapses rs to 1.0 if it has any rows, else 0.0 — a
// supplemented aggregate useful for EXISTS-style subquery checks.
func Exists(rs Recordset) Recordset {
	if len(rs.Rows) > 0 {
		return oneByOneDouble("exists", 1.0)
	}
	return oneByOneDouble("exists", 0.0)
}

func valueKey(v types.Value) string {
	b, err := types.EncodeValue(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Union concatenates two same-schema recordsets, deduplicating by
// tuple-id — a supplemented binary operator alongside the unary ones
// named in spec §4.5.
func Union(a, b Recordset) Recordset {
	seen := make(map[int64]struct{}, len(a.Rows))
	rows := make([]types.Record, 0, len(a.Rows)+len(b.Rows))
	for _, row := range a.Rows {
		seen[row.TupleID] = struct{}{}
		rows = append(rows, row)
	}
	for _, row := range b.Rows {
		if _, ok := seen[row.TupleID]; ok {
			continue
		}
		seen[row.TupleID] = struct{}{}
		rows = append(rows, row)
	}
	return Recordset{Columns: a.Columns, Rows: rows}
}

// Except emits a's rows whose tuple-id is absent from b.
func Except(a, b Recordset) Recordset {
	exclude := make(map[int64]struct{}, len(b.Rows))
	for _, row := range b.Rows {
		exclude[row.TupleID] = struct{}{}
	}
	var rows []types.Record
	for _, row := range a.Rows {
		if _, ok := exclude[row.TupleID]; !ok {
			rows = append(rows, row)
		}
	}
	return Recordset{Columns: a.Columns, Rows: rows}
}

// Cost estimates the fixed cost of scanning rs under constant (one of
// the Cost* constants above).
func Cost(rs Recordset, constant float64) float64 {
	return float64(len(rs.Rows)) * constant
}
