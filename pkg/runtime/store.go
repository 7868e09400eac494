package runtime

import (
	"context"
	"sort"
	"strings"
	"sync"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// Store executes generated statements against a DB. Generated SQL is a pure
// function of the table, the operation, and the record's key set, so each
// distinct shape is generated once and cached.
type Store struct {
	db *DB

	mu         sync.RWMutex
	statements map[string]builder.Statement
}

// NewStore creates a Store over the given database.
func NewStore(db *DB) *Store {
	return &Store{
		db:         db,
		statements: make(map[string]builder.Statement),
	}
}

// CreateTables applies the schema's DDL in declaration order, so referenced
// tables exist before their referrers.
func (s *Store) CreateTables(ctx context.Context, sc *schema.Schema) error {
	for _, name := range sc.TableOrder {
		t := sc.MustTable(name)
		ddl := builder.CreateTable(t)
		if _, err := s.db.Exec(ctx, ddl); err != nil {
			return err
		}
		jww.INFO.Printf("runtime: ensured table %s", name)
	}
	return nil
}

// Insert writes a new row from the record's columns.
func (s *Store) Insert(ctx context.Context, table *schema.Table, rec builder.Record) error {
	stmt, err := s.statement("insert", table, rec, func() (builder.Statement, error) {
		return builder.Insert(table, rec)
	})
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, stmt.SQL, stmt.Bind(rec)...)
	return err
}

// Update rewrites the record's non-key columns on the row matching its
// primary key. A record that matches no row is an error.
func (s *Store) Update(ctx context.Context, table *schema.Table, rec builder.Record) error {
	stmt, err := s.statement("update", table, rec, func() (builder.Statement, error) {
		return builder.Update(table, rec)
	})
	if err != nil {
		return err
	}
	affected, err := s.db.Exec(ctx, stmt.SQL, stmt.Bind(rec)...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NoRowsError{Table: table.Name, Op: "update"}
	}
	return nil
}

// Upsert inserts the record, updating the existing row on a primary-key
// conflict.
func (s *Store) Upsert(ctx context.Context, table *schema.Table, rec builder.Record) error {
	stmt, err := s.statement("upsert", table, rec, func() (builder.Statement, error) {
		return builder.Upsert(table, rec)
	})
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, stmt.SQL, stmt.Bind(rec)...)
	return err
}

// Delete removes the row matching the key record's primary key.
func (s *Store) Delete(ctx context.Context, table *schema.Table, key builder.Record) error {
	stmt, err := s.statement("delete", table, nil, func() (builder.Statement, error) {
		return builder.Delete(table), nil
	})
	if err != nil {
		return err
	}
	affected, err := s.db.Exec(ctx, stmt.SQL, stmt.Bind(key)...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NoRowsError{Table: table.Name, Op: "delete"}
	}
	return nil
}

// SelectAll reads every row of the table into records keyed by column name.
func (s *Store) SelectAll(ctx context.Context, table *schema.Table) ([]builder.Record, error) {
	stmt, err := s.statement("select-all", table, nil, func() (builder.Statement, error) {
		return builder.SelectAll(table), nil
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, stmt.SQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []builder.Record
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &QueryError{Query: stmt.SQL, Err: err}
		}
		rec := make(builder.Record, len(fields))
		for i, f := range fields {
			rec[f.Name] = values[i]
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: stmt.SQL, Err: err}
	}
	return recs, nil
}

// statement returns the cached statement for the table, operation, and record
// shape, generating and caching it on first use.
func (s *Store) statement(op string, table *schema.Table, rec builder.Record, generate func() (builder.Statement, error)) (builder.Statement, error) {
	key := statementKey(op, table, rec)

	s.mu.RLock()
	stmt, ok := s.statements[key]
	s.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	stmt, err := generate()
	if err != nil {
		return builder.Statement{}, err
	}

	s.mu.Lock()
	s.statements[key] = stmt
	s.mu.Unlock()
	jww.TRACE.Printf("runtime: generated %s statement for %s", op, table.Name)
	return stmt, nil
}

// statementKey identifies a statement shape: the table, the operation, and
// the sorted set of columns the record carries. A nil record means the shape
// does not depend on record columns.
func statementKey(op string, table *schema.Table, rec builder.Record) string {
	if rec == nil {
		return table.Name + "|" + op
	}
	keys := make([]string, 0, len(rec))
	for _, c := range table.RowType {
		if rec.Has(c.Name) {
			keys = append(keys, c.Name)
		}
	}
	sort.Strings(keys)
	return table.Name + "|" + op + "|" + strings.Join(keys, ",")
}
