package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/sql/parser"
)

var (
	ErrTableNotFound      = errors.New("relational: table not found")
	ErrAmbiguousReference = errors.New("relational: ambiguous table reference")
)

// CatalogReader is the capability the resolver needs from the catalog. An
// unqualified reference that matches tables in more than one schema must
// fail with ErrAmbiguousReference.
type CatalogReader interface {
	ResolveTable(ctx context.Context, ref parser.TableRef) (ResolvedTable, error)
}

// BuildSelect resolves a SELECT statement into a relational tree:
// Project? -> Filter? -> Scan.
func BuildSelect(ctx context.Context, reader CatalogReader, stmt *parser.SelectStmt) (Plan, error) {
	table, err := reader.ResolveTable(ctx, stmt.Table)
	if err != nil {
		return nil, err
	}

	projectedSchema := table.Columns
	var projection []int
	if stmt.Columns != nil {
		projection = make([]int, 0, len(stmt.Columns))
		for _, name := range stmt.Columns {
			idx := table.Columns.ColIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("relational: column %q not found in table %s", name, table)
			}
			projection = append(projection, idx)
		}
		projectedSchema, err = table.Columns.Project(projection)
		if err != nil {
			return nil, err
		}
	}

	var plan Plan = &Scan{
		Table:           table,
		ProjectedSchema: projectedSchema,
		Projection:      projection,
	}

	if stmt.Where != nil {
		plan = &Filter{Predicate: stmt.Where, Input: plan}
	}

	if stmt.Columns != nil {
		exprs := make([]parser.Expr, len(stmt.Columns))
		for i, name := range stmt.Columns {
			exprs[i] = &parser.ColumnExpr{Name: name}
		}
		plan = &Project{Expressions: exprs, Input: plan}
	}

	return plan, nil
}

// BuildInsert resolves an INSERT statement into a Values tree or the tree
// of its source query.
func BuildInsert(ctx context.Context, reader CatalogReader, stmt *parser.InsertStmt) (Plan, error) {
	if stmt.Query != nil {
		return BuildSelect(ctx, reader, stmt.Query)
	}
	table, err := reader.ResolveTable(ctx, stmt.Table)
	if err != nil {
		return nil, err
	}
	return &Values{Columns: table.Columns, Rows: stmt.Rows}, nil
}

// Build resolves any supported statement into a relational tree. Used by
// EXPLAIN.
func Build(ctx context.Context, reader CatalogReader, stmt parser.Statement) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return BuildSelect(ctx, reader, s)
	case *parser.InsertStmt:
		return BuildInsert(ctx, reader, s)
	default:
		return nil, fmt.Errorf("relational: cannot build plan for %T", stmt)
	}
}

// StateReader resolves references against a catalog snapshot. Unqualified
// references search the default schema first, then every other schema; a
// match in more than one non-default schema is ambiguous.
type StateReader struct {
	DefaultSchema string
	// Lookup reports the tables of a schema, or false if the schema does
	// not exist.
	Lookup func(schema string) (map[string]record.Schema, bool)
	// SchemaNames lists all schemas in the snapshot.
	SchemaNames func() []string
}

func (r *StateReader) ResolveTable(_ context.Context, ref parser.TableRef) (ResolvedTable, error) {
	if ref.Schema != "" {
		tables, ok := r.Lookup(ref.Schema)
		if !ok {
			return ResolvedTable{}, fmt.Errorf("%w: %s", ErrTableNotFound, ref)
		}
		cols, ok := tables[ref.Name]
		if !ok {
			return ResolvedTable{}, fmt.Errorf("%w: %s", ErrTableNotFound, ref)
		}
		return ResolvedTable{Schema: ref.Schema, Name: ref.Name, Columns: cols}, nil
	}

	// Default schema wins outright.
	if tables, ok := r.Lookup(r.DefaultSchema); ok {
		if cols, ok := tables[ref.Name]; ok {
			return ResolvedTable{Schema: r.DefaultSchema, Name: ref.Name, Columns: cols}, nil
		}
	}

	var found []ResolvedTable
	for _, schema := range r.SchemaNames() {
		if schema == r.DefaultSchema {
			continue
		}
		tables, ok := r.Lookup(schema)
		if !ok {
			continue
		}
		if cols, ok := tables[ref.Name]; ok {
			found = append(found, ResolvedTable{Schema: schema, Name: ref.Name, Columns: cols})
		}
	}
	switch len(found) {
	case 0:
		return ResolvedTable{}, fmt.Errorf("%w: %s", ErrTableNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return ResolvedTable{}, fmt.Errorf("%w: %s matches tables in %d schemas",
			ErrAmbiguousReference, ref, len(found))
	}
}
