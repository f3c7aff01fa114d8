package survey

import (
	"fmt"
	"math"

	"grestat/domain/core"
)

// Missing is the in-memory marker for an absent self-reported value.
// Absence is explicit: it is never inferred as zero.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a value is the explicit missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Table is a column-major snapshot of respondent records. Tables are
// derived once and read-only thereafter; every transformation returns a
// new table.
type Table struct {
	labels []core.ColumnLabel
	index  map[core.ColumnLabel]int
	cols   [][]float64
	rows   int
}

// NewTable builds a table from row-major records. Every row must have one
// value per label.
func NewTable(labels []core.ColumnLabel, records [][]float64) (*Table, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("table requires at least one column")
	}

	index := make(map[core.ColumnLabel]int, len(labels))
	for i, label := range labels {
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("duplicate column label %q", label)
		}
		index[label] = i
	}

	cols := make([][]float64, len(labels))
	for i := range cols {
		cols[i] = make([]float64, len(records))
	}
	for r, record := range records {
		if len(record) != len(labels) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(record), len(labels))
		}
		for c, v := range record {
			cols[c][r] = v
		}
	}

	return &Table{
		labels: append([]core.ColumnLabel(nil), labels...),
		index:  index,
		cols:   cols,
		rows:   len(records),
	}, nil
}

// Rows returns the respondent count.
func (t *Table) Rows() int {
	return t.rows
}

// Labels returns the ordered column labels.
func (t *Table) Labels() []core.ColumnLabel {
	return append([]core.ColumnLabel(nil), t.labels...)
}

// HasColumn reports whether the table carries a column.
func (t *Table) HasColumn(label core.ColumnLabel) bool {
	_, ok := t.index[label]
	return ok
}

// Column returns a copy of one column, missing markers included.
func (t *Table) Column(label core.ColumnLabel) ([]float64, error) {
	i, ok := t.index[label]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", label)
	}
	return append([]float64(nil), t.cols[i]...), nil
}

// MustColumn is Column for schema-fixed callers where absence is a bug.
func (t *Table) MustColumn(label core.ColumnLabel) []float64 {
	col, err := t.Column(label)
	if err != nil {
		panic(err)
	}
	return col
}

// Value returns one cell.
func (t *Table) Value(row int, label core.ColumnLabel) (float64, error) {
	i, ok := t.index[label]
	if !ok {
		return 0, fmt.Errorf("unknown column %q", label)
	}
	if row < 0 || row >= t.rows {
		return 0, fmt.Errorf("row %d out of range [0,%d)", row, t.rows)
	}
	return t.cols[i][row], nil
}

// Filter derives a new table keeping rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	kept := make([]int, 0, t.rows)
	for r := 0; r < t.rows; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}

	cols := make([][]float64, len(t.cols))
	for c := range t.cols {
		cols[c] = make([]float64, len(kept))
		for i, r := range kept {
			cols[c][i] = t.cols[c][r]
		}
	}

	return &Table{
		labels: append([]core.ColumnLabel(nil), t.labels...),
		index:  t.index,
		cols:   cols,
		rows:   len(kept),
	}
}

// Select derives a new table restricted to the given columns, in order.
func (t *Table) Select(labels ...core.ColumnLabel) (*Table, error) {
	index := make(map[core.ColumnLabel]int, len(labels))
	cols := make([][]float64, len(labels))
	for i, label := range labels {
		src, ok := t.index[label]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", label)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("duplicate column label %q", label)
		}
		index[label] = i
		cols[i] = append([]float64(nil), t.cols[src]...)
	}

	return &Table{
		labels: append([]core.ColumnLabel(nil), labels...),
		index:  index,
		cols:   cols,
		rows:   t.rows,
	}, nil
}

// NonMissing returns the values of a column with missing markers dropped.
func NonMissing(col []float64) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// PairedComplete drops pairs where either member is missing. Rows are
// always dropped from both sides together, never independently.
func PairedComplete(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if IsMissing(x[i]) || IsMissing(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
