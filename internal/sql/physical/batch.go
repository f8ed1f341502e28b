package physical

import (
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
)

// Batch is a column-major batch of rows.
type Batch struct {
	Schema record.Schema
	// Columns[i] holds the values of column i, one per row.
	Columns [][]any
}

func (b *Batch) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

// Row materializes row i. The returned slice is freshly allocated.
func (b *Batch) Row(i int) []any {
	row := make([]any, len(b.Columns))
	for c := range b.Columns {
		row[c] = b.Columns[c][i]
	}
	return row
}

// NewBatch builds a batch from row-major values.
func NewBatch(schema record.Schema, rows [][]any) (*Batch, error) {
	cols := make([][]any, schema.NumCols())
	for i := range cols {
		cols[i] = make([]any, 0, len(rows))
	}
	for _, row := range rows {
		if len(row) != schema.NumCols() {
			return nil, fmt.Errorf("physical: row has %d values, schema has %d cols",
				len(row), schema.NumCols())
		}
		for c, v := range row {
			cols[c] = append(cols[c], v)
		}
	}
	return &Batch{Schema: schema, Columns: cols}, nil
}

// OperationSchema is the fixed schema shared by all status-only mutation
// operators.
var OperationSchema = record.Schema{
	Cols: []record.Column{{Name: "operation", Type: record.ColText}},
}

// CountSchema is the fixed schema of insert operators: the number of rows
// written.
var CountSchema = record.Schema{
	Cols: []record.Column{{Name: "count", Type: record.ColInt64}},
}

// NewOperationBatch emits the one status row of a completed mutation.
func NewOperationBatch(op string) *Batch {
	return &Batch{Schema: OperationSchema, Columns: [][]any{{op}}}
}

// NewCountBatch emits the one count row of a completed write.
func NewCountBatch(count int64) *Batch {
	return &Batch{Schema: CountSchema, Columns: [][]any{{count}}}
}
