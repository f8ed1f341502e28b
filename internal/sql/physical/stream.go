package physical

import (
	"context"

	"github.com/orcasql/orcasql/internal/record"
)

// BatchStream is a pull-based stream of batches. Next returns (nil, nil)
// once the stream is exhausted. The caller drives the stream at its own
// pace; abandoning it mid-iteration is allowed.
type BatchStream interface {
	Schema() record.Schema
	Next(ctx context.Context) (*Batch, error)
}

// onceStream runs a single unit of work on first poll and emits its one
// result batch. This is how mutation operators fit the streaming shape:
// the side effect happens exactly once, then exactly one row comes out.
type onceStream struct {
	schema record.Schema
	run    func(ctx context.Context) (*Batch, error)
	done   bool
}

// NewOnceStream wraps a one-shot unit of work as a stream.
func NewOnceStream(schema record.Schema, run func(ctx context.Context) (*Batch, error)) BatchStream {
	return &onceStream{schema: schema, run: run}
}

func (s *onceStream) Schema() record.Schema { return s.schema }

func (s *onceStream) Next(ctx context.Context) (*Batch, error) {
	if s.done {
		return nil, nil
	}
	s.done = true
	return s.run(ctx)
}

// memoryStream yields a fixed list of batches.
type memoryStream struct {
	schema  record.Schema
	batches []*Batch
}

func NewMemoryStream(schema record.Schema, batches []*Batch) BatchStream {
	return &memoryStream{schema: schema, batches: batches}
}

func (s *memoryStream) Schema() record.Schema { return s.schema }

func (s *memoryStream) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

// Drain pulls a stream to completion and reports the total row count.
func Drain(ctx context.Context, s BatchStream) (int64, error) {
	var rows int64
	for {
		batch, err := s.Next(ctx)
		if err != nil {
			return rows, err
		}
		if batch == nil {
			return rows, nil
		}
		rows += int64(batch.NumRows())
	}
}

// Collect pulls a stream to completion and materializes every row.
func Collect(ctx context.Context, s BatchStream) ([][]any, error) {
	var rows [][]any
	for {
		batch, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			return rows, nil
		}
		for i := 0; i < batch.NumRows(); i++ {
			rows = append(rows, batch.Row(i))
		}
	}
}
