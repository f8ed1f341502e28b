package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/orcasql/orcasql/internal/record"
)

var ErrTableNotFound = errors.New("storage: table not found")

// TableStore is the pluggable row storage backend. The execution core only
// drives it through this interface; persistence engines live elsewhere.
type TableStore interface {
	// Provision allocates storage for a table. Idempotent.
	Provision(ctx context.Context, schema, table string, cols record.Schema) error
	// Remove drops a table's storage. Removing an unknown table is not an
	// error; catalog existence checks happen before this call.
	Remove(ctx context.Context, schema, table string) error
	// Rename moves a table's storage under a new name.
	Rename(ctx context.Context, schema, oldName, newName string) error
	// Insert appends rows to a table.
	Insert(ctx context.Context, schema, table string, rows [][]any) error
	// Scan calls fn for every row in the table. fn must not retain the row
	// slice.
	Scan(ctx context.Context, schema, table string, fn func(row []any) error) error
	// Columns reports the stored schema of a table.
	Columns(ctx context.Context, schema, table string) (record.Schema, error)
}

type memTable struct {
	cols record.Schema
	rows [][]any
}

// MemoryStore is an in-memory TableStore used by tests and the embedded
// server mode.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

var _ TableStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable)}
}

func key(schema, table string) string { return schema + "." + table }

func (s *MemoryStore) Provision(_ context.Context, schema, table string, cols record.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(schema, table)
	if _, ok := s.tables[k]; ok {
		return nil
	}
	s.tables[k] = &memTable{cols: cols}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, schema, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, key(schema, table))
	return nil
}

func (s *MemoryStore) Rename(_ context.Context, schema, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(schema, oldName)]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, oldName)
	}
	delete(s.tables, key(schema, oldName))
	s.tables[key(schema, newName)] = t
	return nil
}

func (s *MemoryStore) Insert(_ context.Context, schema, table string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(schema, table)]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, table)
	}
	for _, row := range rows {
		checked, err := record.CheckRow(t.cols, row)
		if err != nil {
			return err
		}
		t.rows = append(t.rows, checked)
	}
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, schema, table string, fn func(row []any) error) error {
	s.mu.RLock()
	t, ok := s.tables[key(schema, table)]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, table)
	}
	// Snapshot the row slice so fn can run without the lock held.
	rows := t.rows
	s.mu.RUnlock()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Columns(_ context.Context, schema, table string) (record.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[key(schema, table)]
	if !ok {
		return record.Schema{}, fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, table)
	}
	return t.cols, nil
}
