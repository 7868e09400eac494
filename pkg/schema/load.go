package schema

import (
	"fmt"
	"regexp"
	"strconv"
)

// RawScalar declares a primitive type.
type RawScalar struct {
	Name        string
	SQLType     string
	Min         *int64
	Max         *int64
	Enum        []string
	MultiValued bool
}

// RawAlias declares a type alias: the base type with an overridden name,
// optionally promoted to multi-valued.
type RawAlias struct {
	Name        string
	Base        string
	MultiValued bool
}

// RawColumn declares one column of a tuple type.
type RawColumn struct {
	Name        string
	Type        string
	MultiValued bool
	NotNull     bool
	Default     string
}

// RawTuple declares an ordered row type.
type RawTuple struct {
	Name    string
	Columns []RawColumn
}

// RawForeignKey declares a foreign key on a table.
type RawForeignKey struct {
	RefTable string
	Columns  []string
	OnDelete string
	OnUpdate string
}

// RawTable declares a table over a named tuple type. Declaration order
// matters: foreign keys may only reference tables declared earlier (or the
// table itself), which keeps the reference graph acyclic by construction.
type RawTable struct {
	Name          string
	RowType       string
	PrimaryKey    []string
	AutoIncrement string
	Updated       string
	ForeignKeys   []RawForeignKey
	Uniques       [][]string
}

// RawModel is the unresolved model literal.
type RawModel struct {
	ScalarTypes []RawScalar
	TypeAliases []RawAlias
	TupleTypes  []RawTuple
	Tables      []RawTable
}

var parameterizedType = regexp.MustCompile(`^varchar\((\d+)\)$`)

// Load resolves a RawModel into an immutable Schema. Resolution order:
// scalar types, type aliases, tuple types, then tables. Any structural
// violation returns a *Error and the model must be considered unusable.
func Load(raw RawModel) (*Schema, error) {
	s := &Schema{
		Types:  make(map[string]*ScalarType),
		Tables: make(map[string]*Table),
	}

	for _, rs := range raw.ScalarTypes {
		if _, ok := s.Types[rs.Name]; ok {
			return nil, &Error{Object: rs.Name, Message: "duplicate scalar type"}
		}
		s.Types[rs.Name] = &ScalarType{
			Name:        rs.Name,
			SQLType:     rs.SQLType,
			Min:         rs.Min,
			Max:         rs.Max,
			Enum:        rs.Enum,
			MultiValued: rs.MultiValued,
		}
	}

	// Aliases resolve in declaration order, so an alias may chain to an
	// earlier alias. The multi-valued flag carries forward.
	for _, ra := range raw.TypeAliases {
		base, ok := s.Types[ra.Base]
		if !ok {
			return nil, &Error{Object: ra.Name, Message: fmt.Sprintf("alias base type %q not defined", ra.Base)}
		}
		if _, ok := s.Types[ra.Name]; ok {
			return nil, &Error{Object: ra.Name, Message: "duplicate type name"}
		}
		resolved := *base
		resolved.Name = ra.Name
		resolved.MultiValued = base.MultiValued || ra.MultiValued
		s.Types[ra.Name] = &resolved
	}

	tuples := make(map[string][]Column)
	for _, rt := range raw.TupleTypes {
		cols := make([]Column, 0, len(rt.Columns))
		for _, rc := range rt.Columns {
			st, err := s.resolveColumnType(rt.Name, rc.Type)
			if err != nil {
				return nil, err
			}
			cols = append(cols, Column{
				Name:        rc.Name,
				Type:        st,
				MultiValued: rc.MultiValued,
				NotNull:     rc.NotNull,
				Default:     rc.Default,
			})
		}
		tuples[rt.Name] = cols
	}

	for _, rt := range raw.Tables {
		rowType, ok := tuples[rt.RowType]
		if !ok {
			return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("row type %q not defined", rt.RowType)}
		}
		table := &Table{
			Name:          rt.Name,
			RowType:       rowType,
			PrimaryKey:    rt.PrimaryKey,
			AutoIncrement: rt.AutoIncrement,
			Updated:       rt.Updated,
			ForeignKeys:   make([]ForeignKey, 0, len(rt.ForeignKeys)),
			Uniques:       rt.Uniques,
		}
		if table.Uniques == nil {
			table.Uniques = [][]string{}
		}
		for _, pk := range rt.PrimaryKey {
			if _, ok := table.Column(pk); !ok {
				return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("primary key column %q not in row type", pk)}
			}
		}
		if rt.AutoIncrement != "" {
			if _, ok := table.Column(rt.AutoIncrement); !ok {
				return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("auto-increment column %q not in row type", rt.AutoIncrement)}
			}
		}
		if rt.Updated != "" {
			if _, ok := table.Column(rt.Updated); !ok {
				return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("updated column %q not in row type", rt.Updated)}
			}
		}

		// The table is visible to its own foreign keys (self-reference),
		// but not to later validation of earlier tables: forward references
		// stay invalid.
		s.Tables[rt.Name] = table
		s.TableOrder = append(s.TableOrder, rt.Name)

		for _, rfk := range rt.ForeignKeys {
			if _, ok := s.Tables[rfk.RefTable]; !ok {
				return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("foreign key references undefined table %q", rfk.RefTable)}
			}
			for _, col := range rfk.Columns {
				if _, ok := table.Column(col); !ok {
					return nil, &Error{Object: rt.Name, Message: fmt.Sprintf("foreign key column %q not in row type", col)}
				}
			}
			table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
				RefTable: rfk.RefTable,
				Columns:  rfk.Columns,
				OnDelete: parseReferenceAction(rfk.OnDelete),
				OnUpdate: parseReferenceAction(rfk.OnUpdate),
			})
		}
	}

	return s, nil
}

// resolveColumnType looks up a named type, synthesizing bounded string types
// like varchar(72) on demand. Synthesized types are cached in Schema.Types so
// repeated references share one instance.
func (s *Schema) resolveColumnType(tuple, name string) (*ScalarType, error) {
	if st, ok := s.Types[name]; ok {
		return st, nil
	}
	m := parameterizedType.FindStringSubmatch(name)
	if m == nil {
		return nil, &Error{Object: tuple, Message: fmt.Sprintf("column type %q not defined", name)}
	}
	max, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, &Error{Object: tuple, Message: fmt.Sprintf("invalid type parameter in %q", name)}
	}
	st := &ScalarType{Name: name, SQLType: name, Max: &max}
	s.Types[name] = st
	return st, nil
}
