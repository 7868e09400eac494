package builder

import (
	"fmt"
	"strings"

	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// Statement is generated SQL plus the ordered column names its placeholders
// bind to. The same Statement may be bound against many records.
type Statement struct {
	SQL    string
	Params []string
}

// Bind maps the statement's parameter columns through the record. Absent and
// missing columns bind as nil.
func (s Statement) Bind(rec Record) []any {
	args := make([]any, len(s.Params))
	for i, name := range s.Params {
		if rec.Has(name) {
			args[i] = rec[name]
		}
	}
	return args
}

// quoteIdent quotes a column identifier iff it is not already all-lowercase,
// the naming convention carried over from the persistence layer.
func quoteIdent(name string) string {
	if name == strings.ToLower(name) {
		return name
	}
	return `"` + name + `"`
}

// placeholder renders the nth parameter, with an explicit array cast for
// multi-valued columns.
func placeholder(n int, c schema.Column) string {
	p := fmt.Sprintf("$%d", n)
	if c.IsArray() {
		p += "::" + c.Type.SQLType + "[]"
	}
	return p
}

func quotedNames(cols []schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
	}
	return names
}

// returningClause covers all declared columns, so callers always read back
// generator defaults.
func returningClause(t *schema.Table) string {
	names := make([]string, len(t.RowType))
	for i, c := range t.RowType {
		names[i] = quoteIdent(c.Name)
	}
	return " RETURNING " + strings.Join(names, ", ")
}

// keyClause renders the primary-key equality conjunction starting at
// placeholder $start, and returns the key column names in order.
func keyClause(t *schema.Table, start int) (string, []string) {
	conds := make([]string, len(t.PrimaryKey))
	params := make([]string, len(t.PrimaryKey))
	for i, name := range t.PrimaryKey {
		col, _ := t.Column(name)
		conds[i] = fmt.Sprintf("%s = %s", quoteIdent(name), placeholder(start+i, col))
		params[i] = name
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

// Insert generates an INSERT over the record's columns. The auto-increment
// column is excluded unless the record explicitly supplies it.
func Insert(t *schema.Table, rec Record) (Statement, error) {
	cols := FilterColumns(t, rec)
	if t.AutoIncrement != "" && !(rec != nil && rec.Has(t.AutoIncrement)) {
		kept := cols[:0]
		for _, c := range cols {
			if c.Name != t.AutoIncrement {
				kept = append(kept, c)
			}
		}
		cols = kept
	}
	if len(cols) == 0 {
		return Statement{}, &ConfigError{Table: t.Name, Message: "no insertable columns"}
	}

	placeholders := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = placeholder(i+1, c)
		params[i] = c.Name
	}

	var sql strings.Builder
	sql.WriteString("INSERT INTO ")
	sql.WriteString(t.Name)
	sql.WriteString(" (")
	sql.WriteString(strings.Join(quotedNames(cols), ", "))
	sql.WriteString(") VALUES (")
	sql.WriteString(strings.Join(placeholders, ", "))
	sql.WriteString(")")
	sql.WriteString(returningClause(t))

	return Statement{SQL: sql.String(), Params: params}, nil
}

// Update generates an UPDATE of the record's non-key columns, keyed by the
// primary key. A declared updated column is always forced back to its
// generator default.
func Update(t *schema.Table, rec Record) (Statement, error) {
	if rec != nil {
		for _, pk := range t.PrimaryKey {
			if !rec.Has(pk) || rec[pk] == nil {
				return Statement{}, &ValidationError{Table: t.Name, Field: pk, Message: "primary key value required for update"}
			}
		}
	}

	var setCols []schema.Column
	for _, c := range FilterColumns(t, rec) {
		if t.IsKeyColumn(c.Name) || c.Name == t.Updated {
			continue
		}
		setCols = append(setCols, c)
	}
	if len(setCols) == 0 {
		return Statement{}, &ConfigError{Table: t.Name, Message: "no columns to update"}
	}

	sets := make([]string, 0, len(setCols)+1)
	params := make([]string, 0, len(setCols)+len(t.PrimaryKey))
	for i, c := range setCols {
		sets = append(sets, fmt.Sprintf("%s = %s", quoteIdent(c.Name), placeholder(i+1, c)))
		params = append(params, c.Name)
	}
	if t.Updated != "" {
		sets = append(sets, quoteIdent(t.Updated)+" = DEFAULT")
	}

	where, keyParams := keyClause(t, len(setCols)+1)
	params = append(params, keyParams...)

	var sql strings.Builder
	sql.WriteString("UPDATE ")
	sql.WriteString(t.Name)
	sql.WriteString(" SET ")
	sql.WriteString(strings.Join(sets, ", "))
	sql.WriteString(where)
	sql.WriteString(returningClause(t))

	return Statement{SQL: sql.String(), Params: params}, nil
}

// Upsert generates INSERT .. ON CONFLICT (primary key) DO UPDATE. It is
// undefined for tables with a surrogate auto-increment key.
func Upsert(t *schema.Table, rec Record) (Statement, error) {
	if t.AutoIncrement != "" {
		return Statement{}, &ConfigError{Table: t.Name, Message: "upsert not supported on auto-increment tables"}
	}
	cols := FilterColumns(t, rec)
	if len(cols) == 0 {
		return Statement{}, &ConfigError{Table: t.Name, Message: "no insertable columns"}
	}

	placeholders := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = placeholder(i+1, c)
		params[i] = c.Name
	}

	var sets []string
	for _, c := range cols {
		if t.IsKeyColumn(c.Name) || c.Name == t.Updated {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(c.Name), quoteIdent(c.Name)))
	}
	if t.Updated != "" {
		sets = append(sets, quoteIdent(t.Updated)+" = DEFAULT")
	}

	pk := make([]string, len(t.PrimaryKey))
	for i, name := range t.PrimaryKey {
		pk[i] = quoteIdent(name)
	}

	var sql strings.Builder
	sql.WriteString("INSERT INTO ")
	sql.WriteString(t.Name)
	sql.WriteString(" (")
	sql.WriteString(strings.Join(quotedNames(cols), ", "))
	sql.WriteString(") VALUES (")
	sql.WriteString(strings.Join(placeholders, ", "))
	sql.WriteString(") ON CONFLICT (")
	sql.WriteString(strings.Join(pk, ", "))
	sql.WriteString(")")
	if len(sets) == 0 {
		sql.WriteString(" DO NOTHING")
	} else {
		sql.WriteString(" DO UPDATE SET ")
		sql.WriteString(strings.Join(sets, ", "))
	}
	sql.WriteString(returningClause(t))

	return Statement{SQL: sql.String(), Params: params}, nil
}

// Retrieve generates a full-row SELECT keyed by the primary key.
func Retrieve(t *schema.Table) Statement {
	where, params := keyClause(t, 1)
	names := make([]string, len(t.RowType))
	for i, c := range t.RowType {
		names[i] = quoteIdent(c.Name)
	}
	sql := "SELECT " + strings.Join(names, ", ") + " FROM " + t.Name + where
	return Statement{SQL: sql, Params: params}
}

// Delete generates a DELETE keyed by the primary key, returning the deleted
// row for cache bookkeeping.
func Delete(t *schema.Table) Statement {
	where, params := keyClause(t, 1)
	sql := "DELETE FROM " + t.Name + where + returningClause(t)
	return Statement{SQL: sql, Params: params}
}

// SelectAll generates a full table scan in declared column order.
func SelectAll(t *schema.Table) Statement {
	names := make([]string, len(t.RowType))
	for i, c := range t.RowType {
		names[i] = quoteIdent(c.Name)
	}
	return Statement{SQL: "SELECT " + strings.Join(names, ", ") + " FROM " + t.Name}
}
