package physical

import (
	"context"
	"fmt"
	"strings"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
)

// CreateTableExec creates a table in the catalog and provisions its
// storage.
type CreateTableExec struct {
	CatalogVersion catalog.Version
	TableSchema    string
	Name           string
	Columns        record.Schema
	IfNotExists    bool

	metrics Metrics
}

func (e *CreateTableExec) Schema() record.Schema { return OperationSchema }
func (e *CreateTableExec) OutputPartitions() int { return 1 }
func (e *CreateTableExec) Children() []Plan      { return nil }
func (e *CreateTableExec) Metrics() *Metrics     { return &e.metrics }
func (e *CreateTableExec) ExplainString() string { return "CreateTableExec" }

func (e *CreateTableExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: CreateTableExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.CreateTable{
				Schema:      e.TableSchema,
				Name:        e.Name,
				Columns:     e.Columns,
				IfNotExists: e.IfNotExists,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
		if err := ec.Tables.Provision(ctx, e.TableSchema, e.Name, e.Columns); err != nil {
			return nil, fmt.Errorf("failed to provision table storage: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("create_table"), nil
	}), nil
}

// CreateExternalTableExec registers an external table in the catalog. No
// storage is provisioned; the table's data lives at its location.
type CreateExternalTableExec struct {
	CatalogVersion catalog.Version
	TableSchema    string
	Name           string
	Columns        record.Schema
	Location       string
	Format         string
	IfNotExists    bool

	metrics Metrics
}

func (e *CreateExternalTableExec) Schema() record.Schema { return OperationSchema }
func (e *CreateExternalTableExec) OutputPartitions() int { return 1 }
func (e *CreateExternalTableExec) Children() []Plan      { return nil }
func (e *CreateExternalTableExec) Metrics() *Metrics     { return &e.metrics }
func (e *CreateExternalTableExec) ExplainString() string { return "CreateExternalTableExec" }

func (e *CreateExternalTableExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: CreateExternalTableExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.CreateExternalTable{
				Schema:      e.TableSchema,
				Name:        e.Name,
				Columns:     e.Columns,
				Location:    e.Location,
				Format:      e.Format,
				IfNotExists: e.IfNotExists,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create external table: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("create_external_table"), nil
	}), nil
}

// CreateSchemaExec creates a schema in the catalog.
type CreateSchemaExec struct {
	CatalogVersion catalog.Version
	Name           string
	IfNotExists    bool

	metrics Metrics
}

func (e *CreateSchemaExec) Schema() record.Schema { return OperationSchema }
func (e *CreateSchemaExec) OutputPartitions() int { return 1 }
func (e *CreateSchemaExec) Children() []Plan      { return nil }
func (e *CreateSchemaExec) Metrics() *Metrics     { return &e.metrics }
func (e *CreateSchemaExec) ExplainString() string { return "CreateSchemaExec" }

func (e *CreateSchemaExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: CreateSchemaExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.CreateSchema{Name: e.Name, IfNotExists: e.IfNotExists},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("create_schema"), nil
	}), nil
}

// DropTablesExec drops tables from the catalog and removes their storage.
type DropTablesExec struct {
	CatalogVersion catalog.Version
	TableSchema    string
	Names          []string
	IfExists       bool

	metrics Metrics
}

func (e *DropTablesExec) Schema() record.Schema { return OperationSchema }
func (e *DropTablesExec) OutputPartitions() int { return 1 }
func (e *DropTablesExec) Children() []Plan      { return nil }
func (e *DropTablesExec) Metrics() *Metrics     { return &e.metrics }
func (e *DropTablesExec) ExplainString() string {
	return fmt.Sprintf("DropTablesExec: [%s]", strings.Join(e.Names, ", "))
}

func (e *DropTablesExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: DropTablesExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.DropTables{Schema: e.TableSchema, Names: e.Names, IfExists: e.IfExists},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to drop tables: %w", err)
		}
		for _, name := range e.Names {
			if err := ec.Tables.Remove(ctx, e.TableSchema, name); err != nil {
				return nil, fmt.Errorf("failed to remove table storage: %w", err)
			}
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("drop_tables"), nil
	}), nil
}

// DropSchemasExec drops schemas from the catalog.
type DropSchemasExec struct {
	CatalogVersion catalog.Version
	Names          []string
	IfExists       bool
	Cascade        bool

	metrics Metrics
}

func (e *DropSchemasExec) Schema() record.Schema { return OperationSchema }
func (e *DropSchemasExec) OutputPartitions() int { return 1 }
func (e *DropSchemasExec) Children() []Plan      { return nil }
func (e *DropSchemasExec) Metrics() *Metrics     { return &e.metrics }
func (e *DropSchemasExec) ExplainString() string {
	return fmt.Sprintf("DropSchemasExec: [%s]", strings.Join(e.Names, ", "))
}

func (e *DropSchemasExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: DropSchemasExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.DropSchemas{Names: e.Names, IfExists: e.IfExists, Cascade: e.Cascade},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to drop schemas: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("drop_schemas"), nil
	}), nil
}

// AlterTableExec applies an alter operation to a table and, for renames,
// moves its storage.
type AlterTableExec struct {
	CatalogVersion catalog.Version
	TableSchema    string
	Name           string
	Operation      catalog.AlterTableOperation

	metrics Metrics
}

func (e *AlterTableExec) Schema() record.Schema { return OperationSchema }
func (e *AlterTableExec) OutputPartitions() int { return 1 }
func (e *AlterTableExec) Children() []Plan      { return nil }
func (e *AlterTableExec) Metrics() *Metrics     { return &e.metrics }
func (e *AlterTableExec) ExplainString() string { return "AlterTableExec" }

func (e *AlterTableExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: AlterTableExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.AlterTable{Schema: e.TableSchema, Name: e.Name, Operation: e.Operation},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to alter table: %w", err)
		}
		if e.Operation.RenameTo != "" {
			if err := ec.Tables.Rename(ctx, e.TableSchema, e.Name, e.Operation.RenameTo); err != nil {
				return nil, fmt.Errorf("failed to move table storage: %w", err)
			}
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("alter_table"), nil
	}), nil
}

// CreateCredentialsExec stores a credentials object in the catalog.
type CreateCredentialsExec struct {
	CatalogVersion catalog.Version
	Name           string
	Provider       string
	Options        map[string]string

	metrics Metrics
}

func (e *CreateCredentialsExec) Schema() record.Schema { return OperationSchema }
func (e *CreateCredentialsExec) OutputPartitions() int { return 1 }
func (e *CreateCredentialsExec) Children() []Plan      { return nil }
func (e *CreateCredentialsExec) Metrics() *Metrics     { return &e.metrics }
func (e *CreateCredentialsExec) ExplainString() string { return "CreateCredentialsExec" }

func (e *CreateCredentialsExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: CreateCredentialsExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.CreateCredentials{Name: e.Name, Provider: e.Provider, Options: e.Options},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("create_credentials"), nil
	}), nil
}

// DropCredentialsExec removes credentials objects from the catalog.
type DropCredentialsExec struct {
	CatalogVersion catalog.Version
	Names          []string
	IfExists       bool

	metrics Metrics
}

func (e *DropCredentialsExec) Schema() record.Schema { return OperationSchema }
func (e *DropCredentialsExec) OutputPartitions() int { return 1 }
func (e *DropCredentialsExec) Children() []Plan      { return nil }
func (e *DropCredentialsExec) Metrics() *Metrics     { return &e.metrics }
func (e *DropCredentialsExec) ExplainString() string {
	return fmt.Sprintf("DropCredentialsExec: [%s]", strings.Join(e.Names, ", "))
}

func (e *DropCredentialsExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: DropCredentialsExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.DropCredentials{Names: e.Names, IfExists: e.IfExists},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to drop credentials: %w", err)
		}
		e.metrics.AddOutputRows(1)
		return NewOperationBatch("drop_credentials"), nil
	}), nil
}
