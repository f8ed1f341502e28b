package physical

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/storage"
)

// ErrInvalidPartition means an operator was asked to execute a partition it
// does not have. Internal invariant violation, always fatal to that
// execution.
var ErrInvalidPartition = errors.New("physical: invalid partition")

// Metrics tracks per-operator execution counters.
type Metrics struct {
	outputRows atomic.Int64
}

func (m *Metrics) AddOutputRows(n int64) { m.outputRows.Add(n) }
func (m *Metrics) OutputRows() int64     { return m.outputRows.Load() }

// ExecContext carries the collaborators an operator needs at execute time.
type ExecContext struct {
	Mutator *catalog.Mutator
	Tables  storage.TableStore
	Logger  *slog.Logger
}

// Derive re-creates an execution context compatible with a nested plan.
// Write operators use it to drive their input inside the same unit of work.
func (ec *ExecContext) Derive() *ExecContext {
	cp := *ec
	return &cp
}

// Plan is a streaming physical operator.
type Plan interface {
	// Schema of the operator's output batches.
	Schema() record.Schema
	// OutputPartitions reports how many output partitions the operator
	// produces. Mutation operators are fixed at one to guarantee
	// exactly-once side effects.
	OutputPartitions() int
	Children() []Plan
	// Execute starts the given partition. Requesting a partition the
	// operator does not have fails with ErrInvalidPartition.
	Execute(ctx context.Context, ec *ExecContext, partition int) (BatchStream, error)
	Metrics() *Metrics
	// ExplainString is the operator's single-line display form.
	ExplainString() string
}
