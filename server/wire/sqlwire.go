package wire

import (
	"encoding/json"

	"github.com/orcasql/orcasql/internal/sql/executor"
)

// ExecuteRequest is a single client request. Exactly one of SQL or Plan
// is set. SQL carries a script of one or more statements. Plan carries a
// pre-planned DDL node encoded with the logical plan codec, so a planner
// running elsewhere can ship work to this server.
type ExecuteRequest struct {
	ID   uint64          `json:"id"`
	SQL  string          `json:"sql,omitempty"`
	Plan json.RawMessage `json:"plan,omitempty"`
}

// StatementResult is the wire form of one executed statement's result.
// Query streams are fully materialized before being sent.
type StatementResult struct {
	Kind        string   `json:"kind"`
	Columns     []string `json:"columns,omitempty"`
	Rows        [][]any  `json:"rows,omitempty"`
	RowsWritten int64    `json:"rows_written,omitempty"`
}

// ExecuteResponse answers a request ID. On a mid-script failure Results
// holds the statements that succeeded before the error.
type ExecuteResponse struct {
	ID      uint64            `json:"id"`
	Results []StatementResult `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func kindString(k executor.ResultKind) string {
	switch k {
	case executor.ResultQuery:
		return "query"
	case executor.ResultBegin:
		return "begin"
	case executor.ResultCommit:
		return "commit"
	case executor.ResultRollback:
		return "rollback"
	case executor.ResultWriteSuccess:
		return "write_success"
	case executor.ResultCreateTable:
		return "create_table"
	case executor.ResultCreateSchema:
		return "create_schema"
	case executor.ResultSetLocal:
		return "set_local"
	case executor.ResultDropTables:
		return "drop_tables"
	case executor.ResultDropSchemas:
		return "drop_schemas"
	case executor.ResultAlterTable:
		return "alter_table"
	case executor.ResultCreateCredentials:
		return "create_credentials"
	case executor.ResultDropCredentials:
		return "drop_credentials"
	default:
		return "unknown"
	}
}
