package executor

import (
	"fmt"

	"github.com/orcasql/orcasql/internal/sql/physical"
)

// ResultKind tags the outcome of one executed statement.
type ResultKind int

const (
	// ResultQuery carries the output stream of a query.
	ResultQuery ResultKind = iota
	// ResultBegin means a transaction started.
	ResultBegin
	// ResultCommit means a transaction committed.
	ResultCommit
	// ResultRollback means a transaction rolled back.
	ResultRollback
	// ResultWriteSuccess means data was written.
	ResultWriteSuccess
	// ResultCreateTable means a table was created.
	ResultCreateTable
	// ResultCreateSchema means a schema was created.
	ResultCreateSchema
	// ResultSetLocal means a client-local variable was set.
	ResultSetLocal
	// ResultDropTables means tables were dropped.
	ResultDropTables
	// ResultDropSchemas means schemas were dropped.
	ResultDropSchemas
	// ResultAlterTable means a table was altered.
	ResultAlterTable
	// ResultCreateCredentials means credentials were stored.
	ResultCreateCredentials
	// ResultDropCredentials means credentials were dropped.
	ResultDropCredentials
)

// Result is the outcome of a single executed statement. Exactly one is
// produced per statement. ResultQuery is the only kind carrying an
// unconsumed stream; if the caller abandons it, no guarantee is made about
// the results of following statements in the same session.
type Result struct {
	Kind ResultKind

	// Stream is set for ResultQuery.
	Stream physical.BatchStream
	// RowsWritten is set for ResultWriteSuccess.
	RowsWritten int64
}

func (r *Result) String() string {
	switch r.Kind {
	case ResultQuery:
		return fmt.Sprintf("query (schema: %v)", r.Stream.Schema().Names())
	case ResultBegin:
		return "begin"
	case ResultCommit:
		return "commit"
	case ResultRollback:
		return "rollback"
	case ResultWriteSuccess:
		return fmt.Sprintf("write success (%d rows)", r.RowsWritten)
	case ResultCreateTable:
		return "create table"
	case ResultCreateSchema:
		return "create schema"
	case ResultSetLocal:
		return "set local"
	case ResultDropTables:
		return "drop tables"
	case ResultDropSchemas:
		return "drop schemas"
	case ResultAlterTable:
		return "alter table"
	case ResultCreateCredentials:
		return "create credentials"
	case ResultDropCredentials:
		return "drop credentials"
	default:
		return fmt.Sprintf("unknown result kind %d", int(r.Kind))
	}
}
