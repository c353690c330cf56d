// Package ledger accumulates anomaly records into the out-of-spec table.
//
// A Ledger is an immutable value. Merge returns a new ledger whose column set
// is the union of the old columns and the batch's columns; cells a row never
// had read as absent.
package ledger

import (
	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/types"
)

// leading columns are rendered first, in this order, when present.
var leading = []string{model.ColFile, model.ColMetaName, model.ColEvent, model.ColAnomaly}

// Row is one anomaly in the ledger.
type Row struct {
	kind  string
	cells map[string]types.Value
}

// Kind returns the anomaly kind of the row.
func (r Row) Kind() string { return r.kind }

// Get returns the cell for column, absent when the row never had it.
func (r Row) Get(column string) types.Value {
	if column == model.ColAnomaly {
		return types.Text(r.kind)
	}
	return r.cells[column]
}

// Ledger is the column-union table of every anomaly found in a run.
type Ledger struct {
	columns []string // first-appearance order
	known   map[string]struct{}
	rows    []Row
}

// New returns an empty ledger.
func New() Ledger {
	return Ledger{}
}

// Merge appends batch after the existing rows, in batch order. Columns new
// to the ledger are added; existing rows and incoming rows missing a column
// read as absent for it. l itself is left unchanged.
func (l Ledger) Merge(batch []model.Anomaly) Ledger {
	if len(batch) == 0 {
		return l
	}

	next := Ledger{
		columns: append([]string(nil), l.columns...),
		known:   make(map[string]struct{}, len(l.known)+1),
		rows:    make([]Row, len(l.rows), len(l.rows)+len(batch)),
	}
	for c := range l.known {
		next.known[c] = struct{}{}
	}
	copy(next.rows, l.rows)
	next.addColumn(model.ColAnomaly)

	for _, a := range batch {
		cells := make(map[string]types.Value, len(a.Fields))
		for _, f := range a.Fields {
			if f.Column == model.ColAnomaly {
				continue
			}
			next.addColumn(f.Column)
			cells[f.Column] = f.Value
		}
		next.rows = append(next.rows, Row{kind: a.Kind, cells: cells})
	}
	return next
}

func (l *Ledger) addColumn(c string) {
	if _, ok := l.known[c]; ok {
		return
	}
	l.known[c] = struct{}{}
	l.columns = append(l.columns, c)
}

// Columns returns the column order: identifying columns first, then the
// others in order of first appearance.
func (l Ledger) Columns() []string {
	out := make([]string, 0, len(l.columns))
	for _, c := range leading {
		if _, ok := l.known[c]; ok {
			out = append(out, c)
		}
	}
	for _, c := range l.columns {
		if !isLeading(c) {
			out = append(out, c)
		}
	}
	return out
}

func isLeading(c string) bool {
	for _, x := range leading {
		if x == c {
			return true
		}
	}
	return false
}

// Rows returns the rows in insertion order.
func (l Ledger) Rows() []Row {
	return append([]Row(nil), l.rows...)
}

// Len returns the number of rows.
func (l Ledger) Len() int { return len(l.rows) }

// Table returns the rows as cells aligned to Columns.
func (l Ledger) Table() [][]types.Value {
	cols := l.Columns()
	out := make([][]types.Value, len(l.rows))
	for i, r := range l.rows {
		line := make([]types.Value, len(cols))
		for j, c := range cols {
			line[j] = r.Get(c)
		}
		out[i] = line
	}
	return out
}

// KindCount is the number of rows of one anomaly kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Counts tallies rows by kind, in order of first appearance.
func (l Ledger) Counts() []KindCount {
	var out []KindCount
	pos := make(map[string]int)
	for _, r := range l.rows {
		i, ok := pos[r.kind]
		if !ok {
			i = len(out)
			pos[r.kind] = i
			out = append(out, KindCount{Kind: r.kind})
		}
		out[i].Count++
	}
	return out
}
