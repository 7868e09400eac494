package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// memStore is an in-memory Store with the same single-call atomicity and
// primary-key semantics as the persistent one.
type memStore struct {
	tables map[string]map[string]builder.Record

	// failOn makes the named call fail, e.g. "update:users".
	failOn string
}

func newMemStore() *memStore {
	return &memStore{tables: make(map[string]map[string]builder.Record)}
}

func (m *memStore) rows(table *schema.Table) map[string]builder.Record {
	rows, ok := m.tables[table.Name]
	if !ok {
		rows = make(map[string]builder.Record)
		m.tables[table.Name] = rows
	}
	return rows
}

func (m *memStore) key(table *schema.Table, rec builder.Record) string {
	parts := make([]string, len(table.PrimaryKey))
	for i, pk := range table.PrimaryKey {
		parts[i] = fmt.Sprint(rec[pk])
	}
	return strings.Join(parts, "|")
}

func (m *memStore) fail(op string, table *schema.Table) error {
	if m.failOn == op+":"+table.Name {
		return errors.Errorf("memstore: induced %s failure on %s", op, table.Name)
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, table *schema.Table, rec builder.Record) error {
	if err := m.fail("insert", table); err != nil {
		return err
	}
	rows := m.rows(table)
	key := m.key(table, rec)
	if _, ok := rows[key]; ok {
		return errors.Errorf("memstore: duplicate key %s in %s", key, table.Name)
	}
	rows[key] = cloneRecord(rec)
	return nil
}

func (m *memStore) Update(_ context.Context, table *schema.Table, rec builder.Record) error {
	if err := m.fail("update", table); err != nil {
		return err
	}
	rows := m.rows(table)
	key := m.key(table, rec)
	row, ok := rows[key]
	if !ok {
		return errors.Errorf("memstore: no row %s in %s", key, table.Name)
	}
	for name, v := range rec {
		if rec.Has(name) {
			row[name] = v
		}
	}
	return nil
}

func (m *memStore) Upsert(_ context.Context, table *schema.Table, rec builder.Record) error {
	if err := m.fail("upsert", table); err != nil {
		return err
	}
	rows := m.rows(table)
	key := m.key(table, rec)
	if row, ok := rows[key]; ok {
		for name, v := range rec {
			if rec.Has(name) {
				row[name] = v
			}
		}
		return nil
	}
	rows[key] = cloneRecord(rec)
	return nil
}

func (m *memStore) Delete(_ context.Context, table *schema.Table, key builder.Record) error {
	if err := m.fail("delete", table); err != nil {
		return err
	}
	rows := m.rows(table)
	k := m.key(table, key)
	if _, ok := rows[k]; !ok {
		return errors.Errorf("memstore: no row %s in %s", k, table.Name)
	}
	delete(rows, k)
	return nil
}

func (m *memStore) SelectAll(_ context.Context, table *schema.Table) ([]builder.Record, error) {
	if err := m.fail("select", table); err != nil {
		return nil, err
	}
	rows := m.rows(table)
	out := make([]builder.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneRecord(row))
	}
	return out, nil
}

func (m *memStore) count(tableName string) int {
	return len(m.tables[tableName])
}

func cloneRecord(rec builder.Record) builder.Record {
	out := make(builder.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
