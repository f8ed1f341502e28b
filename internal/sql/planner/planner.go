package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/sql/logical"
	"github.com/orcasql/orcasql/internal/sql/parser"
	"github.com/orcasql/orcasql/internal/sql/relational"
)

// SessionPlanner turns parsed statements into logical plans against a
// catalog snapshot. A planner is cheap; sessions build one per statement so
// plans always see the latest committed catalog.
type SessionPlanner struct {
	state  *catalog.State
	reader *relational.StateReader
}

func New(state *catalog.State) *SessionPlanner {
	return &SessionPlanner{
		state:  state,
		reader: ReaderFromState(state),
	}
}

// ReaderFromState adapts a catalog snapshot to the relational resolver's
// catalog capability.
func ReaderFromState(state *catalog.State) *relational.StateReader {
	return &relational.StateReader{
		DefaultSchema: catalog.DefaultSchema,
		Lookup: func(schema string) (map[string]record.Schema, bool) {
			sc, ok := state.Schemas[schema]
			if !ok {
				return nil, false
			}
			out := make(map[string]record.Schema, len(sc.Tables))
			for name, t := range sc.Tables {
				out[name] = t.Columns
			}
			return out, true
		},
		SchemaNames: func() []string {
			out := make([]string, 0, len(state.Schemas))
			for name := range state.Schemas {
				out = append(out, name)
			}
			return out
		},
	}
}

// PlanStatement produces exactly one logical plan per statement.
func (p *SessionPlanner) PlanStatement(ctx context.Context, stmt parser.Statement) (logical.Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateSchemaStmt:
		return &logical.CreateSchema{Name: s.Name, IfNotExists: s.IfNotExists}, nil

	case *parser.DropSchemaStmt:
		return &logical.DropSchemas{Names: s.Names, IfExists: s.IfExists, Cascade: s.Cascade}, nil

	case *parser.CreateTableStmt:
		return p.planCreateTable(ctx, s)

	case *parser.CreateExternalTableStmt:
		cols, err := columnsFromDefs(s.Columns)
		if err != nil {
			return nil, err
		}
		return &logical.CreateExternalTable{
			Schema:      schemaOrDefault(s.Table),
			Name:        s.Table.Name,
			Columns:     cols,
			Location:    s.Location,
			Format:      s.Format,
			IfNotExists: s.IfNotExists,
		}, nil

	case *parser.DropTableStmt:
		return p.planDropTables(s)

	case *parser.AlterTableStmt:
		table, err := p.reader.ResolveTable(ctx, s.Table)
		if err != nil {
			return nil, err
		}
		return &logical.AlterTable{
			Schema:    table.Schema,
			Name:      table.Name,
			Operation: catalog.AlterTableOperation{RenameTo: s.RenameTo},
		}, nil

	case *parser.CreateCredentialsStmt:
		return &logical.CreateCredentials{Name: s.Name, Provider: s.Provider, Options: s.Options}, nil

	case *parser.DropCredentialsStmt:
		return &logical.DropCredentials{Names: s.Names, IfExists: s.IfExists}, nil

	case *parser.InsertStmt:
		return p.planInsert(ctx, s)

	case *parser.SelectStmt:
		return p.planSelect(ctx, s)

	case *parser.SetStmt:
		return &logical.SetVariable{Name: s.Name, Value: s.Value}, nil

	case *parser.BeginStmt:
		return &logical.Transaction{Kind: logical.TxBegin}, nil
	case *parser.CommitStmt:
		return &logical.Transaction{Kind: logical.TxCommit}, nil
	case *parser.RollbackStmt:
		return &logical.Transaction{Kind: logical.TxRollback}, nil

	case *parser.ExplainStmt:
		rel, err := relational.Build(ctx, p.reader, s.Stmt)
		if err != nil {
			return nil, err
		}
		return &logical.Explain{Text: rel.String()}, nil

	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func (p *SessionPlanner) planCreateTable(ctx context.Context, s *parser.CreateTableStmt) (logical.Plan, error) {
	schema := schemaOrDefault(s.Table)

	if s.As != nil {
		query, err := p.planQuery(ctx, s.As)
		if err != nil {
			return nil, err
		}
		return &logical.CreateTableAs{Schema: schema, Name: s.Table.Name, Source: query}, nil
	}

	cols, err := columnsFromDefs(s.Columns)
	if err != nil {
		return nil, err
	}
	return &logical.CreateTable{
		Schema:      schema,
		Name:        s.Table.Name,
		Columns:     cols,
		IfNotExists: s.IfNotExists,
	}, nil
}

func (p *SessionPlanner) planDropTables(s *parser.DropTableStmt) (logical.Plan, error) {
	schema := ""
	names := make([]string, 0, len(s.Tables))
	for _, ref := range s.Tables {
		refSchema := schemaOrDefault(ref)
		if schema == "" {
			schema = refSchema
		} else if schema != refSchema {
			return nil, fmt.Errorf("planner: cannot drop tables across schemas in one statement")
		}
		names = append(names, ref.Name)
	}
	return &logical.DropTables{Schema: schema, Names: names, IfExists: s.IfExists}, nil
}

func (p *SessionPlanner) planSelect(ctx context.Context, s *parser.SelectStmt) (*logical.Query, error) {
	table, err := p.reader.ResolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}

	spec := &logical.ScanSpec{
		Schema:  table.Schema,
		Table:   table.Name,
		Columns: table.Columns,
	}

	if s.Columns != nil {
		projection := make([]int, 0, len(s.Columns))
		for _, name := range s.Columns {
			idx := table.Columns.ColIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("planner: column %q not found in table %s.%s",
					name, table.Schema, table.Name)
			}
			projection = append(projection, idx)
		}
		projected, err := table.Columns.Project(projection)
		if err != nil {
			return nil, err
		}
		spec.Projection = projection
		spec.Columns = projected
	}

	if s.Where != nil {
		if table.Columns.ColIndex(s.Where.Column) < 0 {
			return nil, fmt.Errorf("planner: column %q not found in table %s.%s",
				s.Where.Column, table.Schema, table.Name)
		}
		spec.Filter = &logical.FilterEq{
			Column: s.Where.Column,
			Value:  logical.Value{V: s.Where.Value.Value},
		}
	}

	return &logical.Query{Scan: spec}, nil
}

func (p *SessionPlanner) planQuery(ctx context.Context, s *parser.SelectStmt) (*logical.Query, error) {
	return p.planSelect(ctx, s)
}

func (p *SessionPlanner) planInsert(ctx context.Context, s *parser.InsertStmt) (logical.Plan, error) {
	table, err := p.reader.ResolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}

	var source *logical.Query
	if s.Query != nil {
		source, err = p.planSelect(ctx, s.Query)
		if err != nil {
			return nil, err
		}
		src := source.OutputSchema()
		if src.NumCols() != table.Columns.NumCols() {
			return nil, fmt.Errorf("planner: insert source has %d columns, table %s.%s has %d",
				src.NumCols(), table.Schema, table.Name, table.Columns.NumCols())
		}
	} else {
		rows := make([][]logical.Value, 0, len(s.Rows))
		for _, exprRow := range s.Rows {
			raw := make([]any, 0, len(exprRow))
			for _, expr := range exprRow {
				lit, ok := expr.(*parser.LiteralExpr)
				if !ok {
					return nil, fmt.Errorf("planner: only literal values supported in INSERT, got %T", expr)
				}
				raw = append(raw, lit.Value)
			}
			checked, err := record.CheckRow(table.Columns, raw)
			if err != nil {
				return nil, fmt.Errorf("planner: %w", err)
			}
			row := make([]logical.Value, len(checked))
			for i, v := range checked {
				row[i] = logical.Value{V: v}
			}
			rows = append(rows, row)
		}
		source = &logical.Query{Values: &logical.ValuesSpec{Columns: table.Columns, Rows: rows}}
	}

	return &logical.Insert{
		Schema:  table.Schema,
		Table:   table.Name,
		Columns: table.Columns,
		Source:  source,
	}, nil
}

func schemaOrDefault(ref parser.TableRef) string {
	if ref.Schema != "" {
		return ref.Schema
	}
	return catalog.DefaultSchema
}

func columnsFromDefs(defs []parser.ColumnDef) (record.Schema, error) {
	var cols []record.Column
	for _, def := range defs {
		t, err := mapSQLType(def.Type)
		if err != nil {
			return record.Schema{}, err
		}
		cols = append(cols, record.Column{Name: def.Name, Type: t, Nullable: true})
	}
	return record.Schema{Cols: cols}, nil
}

func mapSQLType(t string) (record.ColumnType, error) {
	switch strings.ToUpper(t) {
	case "INT", "INTEGER", "BIGINT":
		return record.ColInt64, nil
	case "TEXT", "VARCHAR", "STRING":
		return record.ColText, nil
	case "BOOL", "BOOLEAN":
		return record.ColBool, nil
	case "FLOAT", "DOUBLE", "REAL":
		return record.ColFloat64, nil
	default:
		return 0, fmt.Errorf("planner: unsupported column type: %s", t)
	}
}
