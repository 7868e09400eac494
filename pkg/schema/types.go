// Package schema provides the declarative data model: scalar types, row
// types, and tables with their keys and constraints. A Schema is loaded once
// at startup from a RawModel and is read-only afterwards; the statement
// generator and the ledger engine both consult it.
package schema

import (
	"fmt"
	"strings"
)

// ReferenceAction is a foreign key ON DELETE / ON UPDATE action.
type ReferenceAction string

const (
	// NoAction rejects the operation if the constraint would be violated.
	NoAction ReferenceAction = "NO ACTION"
	// Cascade propagates the operation to referencing rows.
	Cascade ReferenceAction = "CASCADE"
	// Restrict rejects the operation immediately.
	Restrict ReferenceAction = "RESTRICT"
	// SetNull sets referencing columns to NULL.
	SetNull ReferenceAction = "SET NULL"
	// SetDefault sets referencing columns to their default.
	SetDefault ReferenceAction = "SET DEFAULT"
)

// ScalarType is a named primitive type with its persistence-layer type tag.
// A multi-valued scalar represents an array of the base SQL type.
type ScalarType struct {
	Name        string
	SQLType     string
	Min         *int64
	Max         *int64
	Enum        []string
	MultiValued bool
}

// Column belongs to exactly one table's row type.
type Column struct {
	Name        string
	Type        *ScalarType
	MultiValued bool
	NotNull     bool
	Default     string
}

// IsArray reports whether the column stores an array, either because the
// column itself or its scalar type is multi-valued.
func (c Column) IsArray() bool {
	return c.MultiValued || (c.Type != nil && c.Type.MultiValued)
}

// ForeignKey references a table declared earlier in the model.
type ForeignKey struct {
	RefTable string
	Columns  []string
	OnDelete ReferenceAction
	OnUpdate ReferenceAction
}

// Table is a persisted entity type: an ordered row type plus keys and
// constraints. AutoIncrement and Updated name columns with special handling
// in the statement generator (surrogate key exclusion, auto-touch).
type Table struct {
	Name          string
	RowType       []Column
	PrimaryKey    []string
	AutoIncrement string
	Updated       string
	ForeignKeys   []ForeignKey
	Uniques       [][]string
}

// Column returns the named column of the row type.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.RowType {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the row type's column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.RowType))
	for i, c := range t.RowType {
		names[i] = c.Name
	}
	return names
}

// IsKeyColumn reports whether name is part of the primary key.
func (t *Table) IsKeyColumn(name string) bool {
	for _, k := range t.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Schema is the resolved, immutable model.
type Schema struct {
	Types      map[string]*ScalarType
	Tables     map[string]*Table
	TableOrder []string
}

// Table returns the named table or an error naming it as unknown.
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.Tables[name]
	if !ok {
		return nil, &Error{Object: name, Message: "table not defined"}
	}
	return t, nil
}

// MustTable is Table for tables known to exist in the built-in model.
// It panics on an unknown name, which indicates a programming error.
func (s *Schema) MustTable(name string) *Table {
	t, err := s.Table(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Error is a model load-time structural violation. It aborts initialization;
// it should never surface on a live request path.
type Error struct {
	Object  string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Object == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: %s: %s", e.Object, e.Message)
}

func parseReferenceAction(action string) ReferenceAction {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "SET NULL", "SETNULL":
		return SetNull
	case "SET DEFAULT", "SETDEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}
