// Package executor runs parsed SQL scripts against a session, one
// statement at a time.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/orcasql/orcasql/internal/engine"
	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/sql/logical"
	"github.com/orcasql/orcasql/internal/sql/parser"
	"github.com/orcasql/orcasql/internal/sql/physical"
	"github.com/orcasql/orcasql/internal/sql/planner"
)

// ErrUnimplementedPlan is returned when a statement plans to a logical
// node the executor does not know how to run.
var ErrUnimplementedPlan = errors.New("executor: unimplemented logical plan")

// explainSchema is the output shape of EXPLAIN statements.
var explainSchema = record.Schema{Cols: []record.Column{
	{Name: "plan", Type: record.ColText, Nullable: false},
}}

// Executor holds a queue of parsed statements and executes them in order
// against a single session. Parsing is eager: a syntax error anywhere in
// the script means no executor is created and nothing runs.
type Executor struct {
	statements []parser.Statement
	session    *engine.Session
}

// New parses sql into a statement queue bound to session.
func New(sql string, session *engine.Session) (*Executor, error) {
	stmts, err := parser.ParseScript(sql)
	if err != nil {
		return nil, err
	}
	return &Executor{statements: stmts, session: session}, nil
}

// Remaining reports how many statements have not been executed yet.
func (e *Executor) Remaining() int { return len(e.statements) }

// ExecuteNext runs the next statement in the queue. It returns (nil, nil)
// when the queue is empty. On error the failed statement has already been
// popped; the caller may keep going with the rest of the script.
func (e *Executor) ExecuteNext(ctx context.Context) (*Result, error) {
	if len(e.statements) == 0 {
		return nil, nil
	}
	stmt := e.statements[0]
	e.statements = e.statements[1:]

	state, err := e.session.CatalogSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := planner.New(state).PlanStatement(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return e.ExecutePlan(ctx, plan)
}

// ExecutePlan runs an already planned statement. Callers that receive
// plans over the wire use this instead of ExecuteNext.
func (e *Executor) ExecutePlan(ctx context.Context, plan logical.Plan) (*Result, error) {
	switch p := plan.(type) {
	case *logical.CreateTable:
		if err := e.session.CreateTable(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultCreateTable}, nil
	case *logical.CreateExternalTable:
		if err := e.session.CreateExternalTable(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultCreateTable}, nil
	case *logical.CreateTableAs:
		if err := e.session.CreateTableAs(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultCreateTable}, nil
	case *logical.CreateSchema:
		if err := e.session.CreateSchema(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultCreateSchema}, nil
	case *logical.DropTables:
		if err := e.session.DropTables(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultDropTables}, nil
	case *logical.DropSchemas:
		if err := e.session.DropSchemas(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultDropSchemas}, nil
	case *logical.AlterTable:
		if err := e.session.AlterTable(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultAlterTable}, nil
	case *logical.CreateCredentials:
		if err := e.session.CreateCredentials(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultCreateCredentials}, nil
	case *logical.DropCredentials:
		if err := e.session.DropCredentials(ctx, p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultDropCredentials}, nil
	case *logical.Insert:
		n, err := e.session.Insert(ctx, p)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: ResultWriteSuccess, RowsWritten: n}, nil
	case *logical.Query:
		phys, err := e.session.CreatePhysicalPlan(ctx, p)
		if err != nil {
			return nil, err
		}
		stream, err := e.session.ExecutePhysical(ctx, phys)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: ResultQuery, Stream: stream}, nil
	case *logical.SetVariable:
		if err := e.session.SetConfiguration(p); err != nil {
			return nil, err
		}
		return &Result{Kind: ResultSetLocal}, nil
	case *logical.Transaction:
		// Every statement auto-commits. Transaction control is accepted
		// for client compatibility and does nothing.
		switch p.Kind {
		case logical.TxBegin:
			return &Result{Kind: ResultBegin}, nil
		case logical.TxCommit:
			return &Result{Kind: ResultCommit}, nil
		case logical.TxRollback:
			return &Result{Kind: ResultRollback}, nil
		default:
			return nil, fmt.Errorf("executor: unknown transaction kind %d", int(p.Kind))
		}
	case *logical.Explain:
		batch, err := physical.NewBatch(explainSchema, [][]any{{p.Text}})
		if err != nil {
			return nil, err
		}
		stream := physical.NewMemoryStream(explainSchema, []*physical.Batch{batch})
		return &Result{Kind: ResultQuery, Stream: stream}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnimplementedPlan, plan.String())
	}
}
