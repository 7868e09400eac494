package builder

import (
	"fmt"
	"strings"

	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// columnDefinition renders one column of a CREATE TABLE statement.
// Enumerated types render as their base SQL type plus a CHECK constraint.
func columnDefinition(t *schema.Table, c schema.Column) string {
	sqlType := c.Type.SQLType
	if t.AutoIncrement == c.Name {
		sqlType = "serial"
	}
	if c.IsArray() {
		sqlType += "[]"
	}

	def := quoteIdent(c.Name) + " " + sqlType
	if c.NotNull {
		def += " NOT NULL"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	if len(c.Type.Enum) > 0 {
		vals := make([]string, len(c.Type.Enum))
		for i, v := range c.Type.Enum {
			vals[i] = "'" + v + "'"
		}
		def += fmt.Sprintf(" CHECK (%s IN (%s))", quoteIdent(c.Name), strings.Join(vals, ", "))
	}
	return def
}

// CreateTable generates the full DDL for a table: columns, primary key,
// foreign keys with their reference actions, and unique constraints.
func CreateTable(t *schema.Table) string {
	var parts []string

	for _, c := range t.RowType {
		parts = append(parts, "    "+columnDefinition(t, c))
	}

	if len(t.PrimaryKey) > 0 {
		pk := make([]string, len(t.PrimaryKey))
		for i, name := range t.PrimaryKey {
			pk[i] = quoteIdent(name)
		}
		parts = append(parts, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	for _, fk := range t.ForeignKeys {
		cols := make([]string, len(fk.Columns))
		for i, name := range fk.Columns {
			cols[i] = quoteIdent(name)
		}
		parts = append(parts, fmt.Sprintf(
			"    FOREIGN KEY (%s) REFERENCES %s ON DELETE %s ON UPDATE %s",
			strings.Join(cols, ", "), fk.RefTable, fk.OnDelete, fk.OnUpdate))
	}

	for _, unique := range t.Uniques {
		cols := make([]string, len(unique))
		for i, name := range unique {
			cols[i] = quoteIdent(name)
		}
		parts = append(parts, fmt.Sprintf("    UNIQUE (%s)", strings.Join(cols, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", t.Name, strings.Join(parts, ",\n"))
}
