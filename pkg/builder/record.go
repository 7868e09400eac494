// Package builder generates parameterized SQL statements from schema tables.
// Generation is a pure function of the table and the record's key set, so a
// generated statement can be cached and reused as a prepared-statement
// template across many bindings.
package builder

import (
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// Record is a possibly partial row, keyed by column name. A nil value binds
// as SQL NULL; Absent marks a column that carries no value at all and is
// excluded from generated statements.
type Record map[string]any

type absentMarker struct{}

// Absent is the explicit "no value" marker. It is distinct from nil so a
// canonical new-entity template can list every column without asserting NULL
// for any of them.
var Absent = absentMarker{}

// Has reports whether the record carries a value for the column, counting
// nil (SQL NULL) as a value but Absent as missing.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	if !ok {
		return false
	}
	_, isAbsent := v.(absentMarker)
	return !isAbsent
}

// EmptyRecord returns a record with every declared column present and set to
// Absent: the canonical new-entity template before fields are populated.
func EmptyRecord(t *schema.Table) Record {
	rec := make(Record, len(t.RowType))
	for _, c := range t.RowType {
		rec[c.Name] = Absent
	}
	return rec
}

// FilterColumns returns the table's row-type columns in declaration order.
// With a non-nil record it restricts to the columns the record carries.
func FilterColumns(t *schema.Table, rec Record) []schema.Column {
	if rec == nil {
		cols := make([]schema.Column, len(t.RowType))
		copy(cols, t.RowType)
		return cols
	}
	cols := make([]schema.Column, 0, len(t.RowType))
	for _, c := range t.RowType {
		if rec.Has(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}
