package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/sql/logical"
	"github.com/orcasql/orcasql/internal/sql/physical"
	"github.com/orcasql/orcasql/internal/storage"
)

// Session is the state of one client connection: client-local variables and
// the catalog version last observed. Planning snapshots and successful DDL
// or inserts both advance the observed version.
type Session struct {
	id      uuid.UUID
	mutator *catalog.Mutator
	tables  storage.TableStore
	logger  *slog.Logger

	vars    map[string]string
	version catalog.Version
}

func (s *Session) ID() uuid.UUID                  { return s.id }
func (s *Session) CatalogVersion() catalog.Version { return s.version }

// Var reads a client-local variable.
func (s *Session) Var(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// CatalogSnapshot returns the latest committed catalog state and pins the
// session's observed version to it. A mutation planned against the snapshot
// commits only if the catalog did not change between plan and commit, and
// re-planning after a conflict picks up the newer version.
func (s *Session) CatalogSnapshot(ctx context.Context) (*catalog.State, error) {
	state, err := s.mutator.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.version = state.Version
	return state, nil
}

func (s *Session) execContext() *physical.ExecContext {
	return &physical.ExecContext{
		Mutator: s.mutator,
		Tables:  s.tables,
		Logger:  s.logger,
	}
}

// ExecutePhysical starts partition 0 of a physical plan.
func (s *Session) ExecutePhysical(ctx context.Context, plan physical.Plan) (physical.BatchStream, error) {
	return plan.Execute(ctx, s.execContext(), 0)
}

// runMutation executes a one-shot mutation operator, draining its single
// status batch, then advances the session's observed catalog version.
func (s *Session) runMutation(ctx context.Context, plan physical.Plan) error {
	stream, err := s.ExecutePhysical(ctx, plan)
	if err != nil {
		return err
	}
	if _, err := physical.Drain(ctx, stream); err != nil {
		return err
	}
	return s.refreshVersion(ctx)
}

func (s *Session) refreshVersion(ctx context.Context) error {
	state, err := s.mutator.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("engine: refresh catalog version: %w", err)
	}
	s.version = state.Version
	return nil
}

func (s *Session) CreateTable(ctx context.Context, plan *logical.CreateTable) error {
	return s.runMutation(ctx, &physical.CreateTableExec{
		CatalogVersion: s.version,
		TableSchema:    plan.Schema,
		Name:           plan.Name,
		Columns:        plan.Columns,
		IfNotExists:    plan.IfNotExists,
	})
}

func (s *Session) CreateExternalTable(ctx context.Context, plan *logical.CreateExternalTable) error {
	return s.runMutation(ctx, &physical.CreateExternalTableExec{
		CatalogVersion: s.version,
		TableSchema:    plan.Schema,
		Name:           plan.Name,
		Columns:        plan.Columns,
		Location:       plan.Location,
		Format:         plan.Format,
		IfNotExists:    plan.IfNotExists,
	})
}

func (s *Session) CreateTableAs(ctx context.Context, plan *logical.CreateTableAs) error {
	input, err := s.CreatePhysicalPlan(ctx, plan.Source)
	if err != nil {
		return err
	}
	return s.runMutation(ctx, &physical.CreateTableAsExec{
		CatalogVersion: s.version,
		TableSchema:    plan.Schema,
		Name:           plan.Name,
		Input:          input,
	})
}

func (s *Session) CreateSchema(ctx context.Context, plan *logical.CreateSchema) error {
	return s.runMutation(ctx, &physical.CreateSchemaExec{
		CatalogVersion: s.version,
		Name:           plan.Name,
		IfNotExists:    plan.IfNotExists,
	})
}

func (s *Session) DropTables(ctx context.Context, plan *logical.DropTables) error {
	return s.runMutation(ctx, &physical.DropTablesExec{
		CatalogVersion: s.version,
		TableSchema:    plan.Schema,
		Names:          plan.Names,
		IfExists:       plan.IfExists,
	})
}

func (s *Session) DropSchemas(ctx context.Context, plan *logical.DropSchemas) error {
	return s.runMutation(ctx, &physical.DropSchemasExec{
		CatalogVersion: s.version,
		Names:          plan.Names,
		IfExists:       plan.IfExists,
		Cascade:        plan.Cascade,
	})
}

func (s *Session) AlterTable(ctx context.Context, plan *logical.AlterTable) error {
	return s.runMutation(ctx, &physical.AlterTableExec{
		CatalogVersion: s.version,
		TableSchema:    plan.Schema,
		Name:           plan.Name,
		Operation:      plan.Operation,
	})
}

func (s *Session) CreateCredentials(ctx context.Context, plan *logical.CreateCredentials) error {
	return s.runMutation(ctx, &physical.CreateCredentialsExec{
		CatalogVersion: s.version,
		Name:           plan.Name,
		Provider:       plan.Provider,
		Options:        plan.Options,
	})
}

func (s *Session) DropCredentials(ctx context.Context, plan *logical.DropCredentials) error {
	return s.runMutation(ctx, &physical.DropCredentialsExec{
		CatalogVersion: s.version,
		Names:          plan.Names,
		IfExists:       plan.IfExists,
	})
}

// Insert drains the plan's source into the target table and reports the
// rows written.
func (s *Session) Insert(ctx context.Context, plan *logical.Insert) (int64, error) {
	input, err := s.CreatePhysicalPlan(ctx, plan.Source)
	if err != nil {
		return 0, err
	}
	exec := &physical.InsertExec{
		TableSchema: plan.Schema,
		TableName:   plan.Table,
		Columns:     plan.Columns,
		Input:       input,
	}
	stream, err := s.ExecutePhysical(ctx, exec)
	if err != nil {
		return 0, err
	}
	rows, err := physical.Collect(ctx, stream)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 || len(rows[0]) != 1 {
		return 0, fmt.Errorf("engine: insert produced %d result rows, want 1", len(rows))
	}
	count, ok := rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("engine: insert count has type %T, want int64", rows[0][0])
	}
	if err := s.refreshVersion(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

// CreatePhysicalPlan lowers a data-flow query to its physical operator.
func (s *Session) CreatePhysicalPlan(_ context.Context, q *logical.Query) (physical.Plan, error) {
	switch {
	case q.Scan != nil:
		exec := &physical.ScanExec{
			TableSchema: q.Scan.Schema,
			TableName:   q.Scan.Table,
			Output:      q.Scan.Columns,
			Projection:  q.Scan.Projection,
		}
		if q.Scan.Filter != nil {
			exec.HasFilter = true
			exec.FilterColumn = q.Scan.Filter.Column
			exec.FilterValue = q.Scan.Filter.Value.V
		}
		return exec, nil
	case q.Values != nil:
		rows := make([][]any, len(q.Values.Rows))
		for i, row := range q.Values.Rows {
			vals := make([]any, len(row))
			for j, v := range row {
				vals[j] = v.V
			}
			rows[i] = vals
		}
		return &physical.ValuesExec{Output: q.Values.Columns, Rows: rows}, nil
	default:
		return nil, fmt.Errorf("engine: empty query plan")
	}
}

// SetConfiguration assigns a client-local variable.
func (s *Session) SetConfiguration(plan *logical.SetVariable) error {
	s.vars[plan.Name] = plan.Value
	s.logger.Debug("set local variable", "name", plan.Name, "value", plan.Value)
	return nil
}
