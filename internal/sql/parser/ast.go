package parser

import "fmt"

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// TableRef is a possibly schema-qualified table name. Schema is empty for
// unqualified references; resolution happens at plan time.
type TableRef struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}

type ColumnDef struct {
	Name string
	Type string // "INT", "TEXT", "BOOL", "FLOAT"
}

// ----- schemas -----

type CreateSchemaStmt struct {
	Name        string
	IfNotExists bool
}

type DropSchemaStmt struct {
	Names    []string
	IfExists bool
	Cascade  bool
}

// ----- tables -----

type CreateTableStmt struct {
	Table       TableRef
	Columns     []ColumnDef
	IfNotExists bool
	// As is set for CREATE TABLE ... AS SELECT.
	As *SelectStmt
}

type CreateExternalTableStmt struct {
	Table       TableRef
	Columns     []ColumnDef
	Location    string
	Format      string
	IfNotExists bool
}

type DropTableStmt struct {
	Tables   []TableRef
	IfExists bool
}

type AlterTableStmt struct {
	Table    TableRef
	RenameTo string
}

// ----- credentials -----

type CreateCredentialsStmt struct {
	Name     string
	Provider string
	Options  map[string]string
}

type DropCredentialsStmt struct {
	Names    []string
	IfExists bool
}

// ----- DML / queries -----

type InsertStmt struct {
	Table TableRef
	// Rows is set for INSERT ... VALUES.
	Rows [][]Expr
	// Query is set for INSERT ... SELECT.
	Query *SelectStmt
}

type SelectStmt struct {
	// Columns is nil for SELECT *.
	Columns []string
	Table   TableRef
	Where   *WhereEq
}

// ----- session / transactions -----

type SetStmt struct {
	Name  string
	Value string
}

type BeginStmt struct{}
type CommitStmt struct{}
type RollbackStmt struct{}

type ExplainStmt struct {
	Stmt Statement
}

func (*CreateSchemaStmt) stmtNode()        {}
func (*DropSchemaStmt) stmtNode()          {}
func (*CreateTableStmt) stmtNode()         {}
func (*CreateExternalTableStmt) stmtNode() {}
func (*DropTableStmt) stmtNode()           {}
func (*AlterTableStmt) stmtNode()          {}
func (*CreateCredentialsStmt) stmtNode()   {}
func (*DropCredentialsStmt) stmtNode()     {}
func (*InsertStmt) stmtNode()              {}
func (*SelectStmt) stmtNode()              {}
func (*SetStmt) stmtNode()                 {}
func (*BeginStmt) stmtNode()               {}
func (*CommitStmt) stmtNode()              {}
func (*RollbackStmt) stmtNode()            {}
func (*ExplainStmt) stmtNode()             {}

// ----- Expressions -----

type Expr interface {
	exprNode()
	fmt.Stringer
}

type LiteralExpr struct {
	Value any
}

type ColumnExpr struct {
	Name string
}

func (*LiteralExpr) exprNode() {}
func (*ColumnExpr) exprNode()  {}

func (e *LiteralExpr) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + v + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *ColumnExpr) String() string { return "#" + e.Name }

// WhereEq is the single predicate form supported: <col> = <literal>.
type WhereEq struct {
	Column string
	Value  *LiteralExpr
}

func (w *WhereEq) String() string {
	return "#" + w.Column + " = " + w.Value.String()
}
