package physical

import (
	"context"
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
)

// batchSize is the number of rows per scan output batch.
const batchSize = 1024

// ScanExec streams a base table out of the storage backend.
type ScanExec struct {
	TableSchema string
	TableName   string
	// Output is the projected schema of emitted batches.
	Output record.Schema
	// Projection is an optional list of column indices to keep.
	Projection []int
	// FilterColumn/FilterValue form an optional pushdown equality filter.
	FilterColumn string
	FilterValue  any
	HasFilter    bool

	metrics Metrics
}

func (e *ScanExec) Schema() record.Schema { return e.Output }
func (e *ScanExec) OutputPartitions() int { return 1 }
func (e *ScanExec) Children() []Plan      { return nil }
func (e *ScanExec) Metrics() *Metrics     { return &e.metrics }
func (e *ScanExec) ExplainString() string {
	return fmt.Sprintf("ScanExec: %s.%s", e.TableSchema, e.TableName)
}

func (e *ScanExec) Execute(ctx context.Context, ec *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: ScanExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}

	stored, err := ec.Tables.Columns(ctx, e.TableSchema, e.TableName)
	if err != nil {
		return nil, fmt.Errorf("physical: scan %s.%s: %w", e.TableSchema, e.TableName, err)
	}

	filterIdx := -1
	if e.HasFilter {
		filterIdx = stored.ColIndex(e.FilterColumn)
		if filterIdx < 0 {
			return nil, fmt.Errorf("physical: scan filter column %q not found", e.FilterColumn)
		}
	}

	// The whole table is materialized into batches up front. Fine for the
	// in-memory backend; a paging backend would stream instead.
	var rows [][]any
	err = ec.Tables.Scan(ctx, e.TableSchema, e.TableName, func(row []any) error {
		if filterIdx >= 0 && !scalarEq(row[filterIdx], e.FilterValue) {
			return nil
		}
		out := row
		if e.Projection != nil {
			out = make([]any, len(e.Projection))
			for i, idx := range e.Projection {
				out[i] = row[idx]
			}
		} else {
			out = append([]any(nil), row...)
		}
		rows = append(rows, out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("physical: scan %s.%s: %w", e.TableSchema, e.TableName, err)
	}

	var batches []*Batch
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		batch, err := NewBatch(e.Output, rows[start:end])
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	e.metrics.AddOutputRows(int64(len(rows)))
	return NewMemoryStream(e.Output, batches), nil
}

// ValuesExec emits constant rows.
type ValuesExec struct {
	Output record.Schema
	Rows   [][]any

	metrics Metrics
}

func (e *ValuesExec) Schema() record.Schema { return e.Output }
func (e *ValuesExec) OutputPartitions() int { return 1 }
func (e *ValuesExec) Children() []Plan      { return nil }
func (e *ValuesExec) Metrics() *Metrics     { return &e.metrics }
func (e *ValuesExec) ExplainString() string {
	return fmt.Sprintf("ValuesExec: %d rows", len(e.Rows))
}

func (e *ValuesExec) Execute(ctx context.Context, _ *ExecContext, partition int) (BatchStream, error) {
	if partition != 0 {
		return nil, fmt.Errorf("%w: ValuesExec only supports 1 partition, got %d",
			ErrInvalidPartition, partition)
	}
	if len(e.Rows) == 0 {
		return NewMemoryStream(e.Output, nil), nil
	}
	batch, err := NewBatch(e.Output, e.Rows)
	if err != nil {
		return nil, err
	}
	e.metrics.AddOutputRows(int64(len(e.Rows)))
	return NewMemoryStream(e.Output, []*Batch{batch}), nil
}

func scalarEq(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
