package physical

import (
	"context"
	"fmt"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
)

// InsertExec drives its input plan to completion and appends the produced
// rows to a table. Columns is the target table's shape; the input schema is
// checked against it before any row is written. Output is a single count
// row reporting rows written; the count comes from the input's own
// output-rows metric, not from counting here.
type InsertExec struct {
	TableSchema string
	TableName   string
	Columns     record.Schema
	Input       Plan

	metrics Metrics
}

func (e *InsertExec) Schema() record.Schema { return CountSchema }
func (e *InsertExec) OutputPartitions() int { return 1 }
func (e *InsertExec) Children() []Plan      { return []Plan{e.Input} }
func (e *InsertExec) Metrics() *Metrics     { return &e.metrics }
func (e *InsertExec) ExplainString() string {
	return fmt.Sprintf("InsertExec: %s.%s", e.TableSchema, e.TableName)
}

func (e *InsertExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: InsertExec requires a single input partition, got %d",
			ErrInvalidPartition, partition)
	}

	return NewOnceStream(CountSchema, func(ctx context.Context) (*Batch, error) {
		src := e.Input.Schema()
		if src.NumCols() != e.Columns.NumCols() {
			return nil, fmt.Errorf("insert source has %d columns, %s.%s expects %d",
				src.NumCols(), e.TableSchema, e.TableName, e.Columns.NumCols())
		}
		for i, col := range e.Columns.Cols {
			if src.Cols[i].Type != col.Type {
				return nil, fmt.Errorf("insert source column %d is %s, %s.%s column %s expects %s",
					i, src.Cols[i].Type, e.TableSchema, e.TableName, col.Name, col.Type)
			}
		}

		// The input may carry its own context requirements; derive a
		// compatible one rather than reusing ours directly.
		childCtx := ec.Derive()

		stream, err := e.Input.Execute(ctx, childCtx, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to execute insert input: %w", err)
		}

		// Drain the input and write as one unit of work.
		for {
			batch, err := stream.Next(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read insert input: %w", err)
			}
			if batch == nil {
				break
			}
			rows := make([][]any, 0, batch.NumRows())
			for i := 0; i < batch.NumRows(); i++ {
				rows = append(rows, batch.Row(i))
			}
			if err := ec.Tables.Insert(ctx, e.TableSchema, e.TableName, rows); err != nil {
				return nil, fmt.Errorf("failed to write rows: %w", err)
			}
		}

		count := e.Input.Metrics().OutputRows()
		e.metrics.AddOutputRows(1)
		return NewCountBatch(count), nil
	}), nil
}

// CreateTableAsExec creates a table shaped like its input and fills it with
// the input's rows, all as one operation.
type CreateTableAsExec struct {
	CatalogVersion catalog.Version
	TableSchema    string
	Name           string
	Input          Plan

	metrics Metrics
}

func (e *CreateTableAsExec) Schema() record.Schema { return OperationSchema }
func (e *CreateTableAsExec) OutputPartitions() int { return 1 }
func (e *CreateTableAsExec) Children() []Plan      { return []Plan{e.Input} }
func (e *CreateTableAsExec) Metrics() *Metrics     { return &e.metrics }
func (e *CreateTableAsExec) ExplainString() string {
	return fmt.Sprintf("CreateTableAsExec: %s.%s", e.TableSchema, e.Name)
}

func (e *CreateTableAsExec) Execute(_ context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: CreateTableAsExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}

	return NewOnceStream(OperationSchema, func(ctx context.Context) (*Batch, error) {
		cols := e.Input.Schema()
		_, err := ec.Mutator.MutateAndCommit(ctx, e.CatalogVersion, []catalog.Mutation{
			catalog.CreateTable{Schema: e.TableSchema, Name: e.Name, Columns: cols},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
		if err := ec.Tables.Provision(ctx, e.TableSchema, e.Name, cols); err != nil {
			return nil, fmt.Errorf("failed to provision table storage: %w", err)
		}

		childCtx := ec.Derive()
		stream, err := e.Input.Execute(ctx, childCtx, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to execute source query: %w", err)
		}
		for {
			batch, err := stream.Next(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read source query: %w", err)
			}
			if batch == nil {
				break
			}
			rows := make([][]any, 0, batch.NumRows())
			for i := 0; i < batch.NumRows(); i++ {
				rows = append(rows, batch.Row(i))
			}
			if err := ec.Tables.Insert(ctx, e.TableSchema, e.Name, rows); err != nil {
				return nil, fmt.Errorf("failed to write rows: %w", err)
			}
		}

		e.metrics.AddOutputRows(1)
		return NewOperationBatch("create_table_as"), nil
	}), nil
}
