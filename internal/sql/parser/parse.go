package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// parseIdent validates an identifier (schema/table/column name).
// Rules (simple):
//   - must be exactly one token (no spaces)
//   - first char: letter or '_'
//   - rest: letter/digit/'_'
func parseIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing identifier")
	}

	parts := strings.Fields(s)
	if len(parts) != 1 {
		return "", fmt.Errorf("invalid identifier %q", s)
	}
	id := parts[0]

	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", fmt.Errorf("invalid identifier %q", id)
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("invalid identifier %q", id)
		}
	}

	return id, nil
}

// parseTableRef parses "name" or "schema.name".
func parseTableRef(s string) (TableRef, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		name, err := parseIdent(parts[0])
		if err != nil {
			return TableRef{}, err
		}
		return TableRef{Name: name}, nil
	case 2:
		schema, err := parseIdent(parts[0])
		if err != nil {
			return TableRef{}, err
		}
		name, err := parseIdent(parts[1])
		if err != nil {
			return TableRef{}, err
		}
		return TableRef{Schema: schema, Name: name}, nil
	default:
		return TableRef{}, fmt.Errorf("invalid table reference %q", s)
	}
}

// ParseScript parses a SQL script into an ordered list of statements.
// Statements are separated by ';'. Parsing is eager: the first malformed
// statement fails the whole script.
func ParseScript(sql string) ([]Statement, error) {
	pieces := splitStatements(sql)
	var stmts []Statement
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		stmt, err := parseStatement(piece)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// Parse parses a single SQL statement into an AST.
func Parse(sql string) (Statement, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	if s == "" {
		return nil, fmt.Errorf("empty statement")
	}
	return parseStatement(s)
}

func parseStatement(s string) (Statement, error) {
	up := strings.ToUpper(s)

	switch {
	// schemas
	case strings.HasPrefix(up, "CREATE SCHEMA"):
		return parseCreateSchema(s)
	case strings.HasPrefix(up, "DROP SCHEMA"):
		return parseDropSchema(s)

	// tables
	case strings.HasPrefix(up, "CREATE EXTERNAL TABLE"):
		return parseCreateExternalTable(s)
	case strings.HasPrefix(up, "CREATE TABLE"):
		return parseCreateTable(s)
	case strings.HasPrefix(up, "DROP TABLE"):
		return parseDropTable(s)
	case strings.HasPrefix(up, "ALTER TABLE"):
		return parseAlterTable(s)

	// credentials
	case strings.HasPrefix(up, "CREATE CREDENTIALS"):
		return parseCreateCredentials(s)
	case strings.HasPrefix(up, "DROP CREDENTIALS"):
		return parseDropCredentials(s)

	// dml / queries
	case strings.HasPrefix(up, "INSERT INTO"):
		return parseInsert(s)
	case strings.HasPrefix(up, "SELECT"):
		return parseSelect(s)

	// session
	case strings.HasPrefix(up, "SET "):
		return parseSet(s)
	case up == "BEGIN" || up == "BEGIN TRANSACTION":
		return &BeginStmt{}, nil
	case up == "COMMIT":
		return &CommitStmt{}, nil
	case up == "ROLLBACK":
		return &RollbackStmt{}, nil

	case strings.HasPrefix(up, "EXPLAIN "):
		inner, err := parseStatement(strings.TrimSpace(s[len("EXPLAIN "):]))
		if err != nil {
			return nil, err
		}
		return &ExplainStmt{Stmt: inner}, nil

	default:
		return nil, fmt.Errorf("unsupported statement: %q", s)
	}
}

func parseCreateSchema(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("CREATE SCHEMA"):])
	rest, ifNotExists := trimPrefixFold(rest, "IF NOT EXISTS")
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE SCHEMA syntax: %w", err)
	}
	return &CreateSchemaStmt{Name: name, IfNotExists: ifNotExists}, nil
}

func parseDropSchema(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("DROP SCHEMA"):])
	rest, ifExists := trimPrefixFold(rest, "IF EXISTS")

	cascade := false
	if up := strings.ToUpper(rest); strings.HasSuffix(up, " CASCADE") {
		cascade = true
		rest = strings.TrimSpace(rest[:len(rest)-len(" CASCADE")])
	}

	var names []string
	for _, part := range splitComma(rest) {
		name, err := parseIdent(part)
		if err != nil {
			return nil, fmt.Errorf("invalid DROP SCHEMA syntax: %w", err)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("invalid DROP SCHEMA syntax: no schema names")
	}
	return &DropSchemaStmt{Names: names, IfExists: ifExists, Cascade: cascade}, nil
}

func parseColumnDefs(defPart string) ([]ColumnDef, error) {
	defPart = strings.TrimSpace(defPart)
	if defPart == "" {
		return nil, fmt.Errorf("empty column list")
	}
	var cols []ColumnDef
	for _, def := range splitComma(defPart) {
		toks := strings.Fields(strings.TrimSpace(def))
		if len(toks) < 2 {
			return nil, fmt.Errorf("invalid column def: %q", def)
		}
		colName, err := parseIdent(toks[0])
		if err != nil {
			return nil, fmt.Errorf("invalid column name: %w", err)
		}
		cols = append(cols, ColumnDef{
			Name: colName,
			Type: strings.ToUpper(toks[1]),
		})
	}
	return cols, nil
}

func parseCreateTable(sql string) (Statement, error) {
	// "CREATE TABLE [IF NOT EXISTS] t (id INT, name TEXT)"
	// "CREATE TABLE t AS SELECT * FROM src"
	rest := strings.TrimSpace(sql[len("CREATE TABLE"):])
	rest, ifNotExists := trimPrefixFold(rest, "IF NOT EXISTS")

	if refPart, selPart := splitKeyword(rest, "AS"); strings.TrimSpace(selPart) != "" {
		ref, err := parseTableRef(refPart)
		if err != nil {
			return nil, fmt.Errorf("invalid CREATE TABLE AS syntax: %w", err)
		}
		sel, err := parseStatement(strings.TrimSpace(selPart))
		if err != nil {
			return nil, err
		}
		selStmt, ok := sel.(*SelectStmt)
		if !ok {
			return nil, fmt.Errorf("CREATE TABLE AS expects a SELECT, got %T", sel)
		}
		return &CreateTableStmt{Table: ref, IfNotExists: ifNotExists, As: selStmt}, nil
	}

	parts := strings.SplitN(rest, "(", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax")
	}

	ref, err := parseTableRef(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}

	cols, err := parseColumnDefs(strings.TrimSuffix(strings.TrimSpace(parts[1]), ")"))
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}

	return &CreateTableStmt{Table: ref, Columns: cols, IfNotExists: ifNotExists}, nil
}

func parseCreateExternalTable(sql string) (Statement, error) {
	// "CREATE EXTERNAL TABLE t (id INT) LOCATION 's3://b/k' [FORMAT 'csv']"
	rest := strings.TrimSpace(sql[len("CREATE EXTERNAL TABLE"):])
	rest, ifNotExists := trimPrefixFold(rest, "IF NOT EXISTS")

	parts := strings.SplitN(rest, "(", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid CREATE EXTERNAL TABLE syntax")
	}

	ref, err := parseTableRef(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE EXTERNAL TABLE syntax: %w", err)
	}

	defPart, after, ok := cutCloseParen(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid CREATE EXTERNAL TABLE syntax: unclosed column list")
	}

	cols, err := parseColumnDefs(defPart)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE EXTERNAL TABLE syntax: %w", err)
	}

	locPart, formatPart := splitKeyword(after, "FORMAT")
	locPart = strings.TrimSpace(locPart)
	up := strings.ToUpper(locPart)
	if !strings.HasPrefix(up, "LOCATION ") {
		return nil, fmt.Errorf("CREATE EXTERNAL TABLE requires LOCATION")
	}
	location, err := parseStringLiteral(strings.TrimSpace(locPart[len("LOCATION "):]))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION: %w", err)
	}

	format := ""
	if strings.TrimSpace(formatPart) != "" {
		format, err = parseStringLiteral(strings.TrimSpace(formatPart))
		if err != nil {
			return nil, fmt.Errorf("invalid FORMAT: %w", err)
		}
	}

	return &CreateExternalTableStmt{
		Table:       ref,
		Columns:     cols,
		Location:    location,
		Format:      format,
		IfNotExists: ifNotExists,
	}, nil
}

func parseDropTable(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("DROP TABLE"):])
	rest, ifExists := trimPrefixFold(rest, "IF EXISTS")

	var refs []TableRef
	for _, part := range splitComma(rest) {
		ref, err := parseTableRef(part)
		if err != nil {
			return nil, fmt.Errorf("invalid DROP TABLE syntax: %w", err)
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("invalid DROP TABLE syntax: no table names")
	}
	return &DropTableStmt{Tables: refs, IfExists: ifExists}, nil
}

func parseAlterTable(sql string) (Statement, error) {
	// "ALTER TABLE t RENAME TO t2"
	rest := strings.TrimSpace(sql[len("ALTER TABLE"):])
	refPart, opPart := splitKeyword(rest, "RENAME TO")
	if strings.TrimSpace(opPart) == "" {
		return nil, fmt.Errorf("only ALTER TABLE <table> RENAME TO <name> supported")
	}

	ref, err := parseTableRef(refPart)
	if err != nil {
		return nil, fmt.Errorf("invalid ALTER TABLE syntax: %w", err)
	}
	newName, err := parseIdent(opPart)
	if err != nil {
		return nil, fmt.Errorf("invalid ALTER TABLE syntax: %w", err)
	}
	return &AlterTableStmt{Table: ref, RenameTo: newName}, nil
}

func parseCreateCredentials(sql string) (Statement, error) {
	// "CREATE CREDENTIALS c PROVIDER 'gcp' [OPTIONS (key = 'value', ...)]"
	rest := strings.TrimSpace(sql[len("CREATE CREDENTIALS"):])
	namePart, provPart := splitKeyword(rest, "PROVIDER")
	if strings.TrimSpace(provPart) == "" {
		return nil, fmt.Errorf("CREATE CREDENTIALS requires PROVIDER")
	}

	name, err := parseIdent(namePart)
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE CREDENTIALS syntax: %w", err)
	}

	provRaw, optsPart := splitKeyword(provPart, "OPTIONS")
	provider, err := parseStringLiteral(strings.TrimSpace(provRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER: %w", err)
	}

	var opts map[string]string
	if strings.TrimSpace(optsPart) != "" {
		optsPart = strings.TrimSpace(optsPart)
		if !strings.HasPrefix(optsPart, "(") || !strings.HasSuffix(optsPart, ")") {
			return nil, fmt.Errorf("invalid OPTIONS syntax")
		}
		opts = make(map[string]string)
		inner := strings.TrimSpace(optsPart[1 : len(optsPart)-1])
		for _, kv := range splitComma(inner) {
			pair := strings.SplitN(kv, "=", 2)
			if len(pair) != 2 {
				return nil, fmt.Errorf("invalid OPTIONS entry: %q", kv)
			}
			k, err := parseIdent(pair[0])
			if err != nil {
				return nil, fmt.Errorf("invalid OPTIONS key: %w", err)
			}
			v, err := parseStringLiteral(strings.TrimSpace(pair[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid OPTIONS value: %w", err)
			}
			opts[k] = v
		}
	}

	return &CreateCredentialsStmt{Name: name, Provider: provider, Options: opts}, nil
}

func parseDropCredentials(sql string) (Statement, error) {
	rest := strings.TrimSpace(sql[len("DROP CREDENTIALS"):])
	rest, ifExists := trimPrefixFold(rest, "IF EXISTS")

	var names []string
	for _, part := range splitComma(rest) {
		name, err := parseIdent(part)
		if err != nil {
			return nil, fmt.Errorf("invalid DROP CREDENTIALS syntax: %w", err)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("invalid DROP CREDENTIALS syntax: no names")
	}
	return &DropCredentialsStmt{Names: names, IfExists: ifExists}, nil
}

func parseInsert(sql string) (Statement, error) {
	// "INSERT INTO t VALUES (1, 'abc'), (2, 'def')"
	// "INSERT INTO t SELECT * FROM src"
	rest := strings.TrimSpace(sql[len("INSERT INTO"):])

	if tablePart, selPart := splitKeyword(rest, "SELECT"); strings.TrimSpace(selPart) != "" {
		ref, err := parseTableRef(tablePart)
		if err != nil {
			return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
		}
		sel, err := parseSelect("SELECT " + strings.TrimSpace(selPart))
		if err != nil {
			return nil, err
		}
		return &InsertStmt{Table: ref, Query: sel.(*SelectStmt)}, nil
	}

	tablePart, valPart := splitKeyword(rest, "VALUES")
	if strings.TrimSpace(valPart) == "" {
		return nil, fmt.Errorf("invalid INSERT syntax")
	}

	ref, err := parseTableRef(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
	}

	var rows [][]Expr
	for _, tuple := range splitTuples(strings.TrimSpace(valPart)) {
		tuple = strings.TrimSpace(tuple)
		if !strings.HasPrefix(tuple, "(") || !strings.HasSuffix(tuple, ")") {
			return nil, fmt.Errorf("invalid INSERT values syntax: %q", tuple)
		}
		inner := strings.TrimSpace(tuple[1 : len(tuple)-1])
		var exprs []Expr
		for _, rv := range splitComma(inner) {
			lit, err := parseLiteral(strings.TrimSpace(rv))
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, &LiteralExpr{Value: lit})
		}
		rows = append(rows, exprs)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("invalid INSERT syntax: no values")
	}

	return &InsertStmt{Table: ref, Rows: rows}, nil
}

func parseSelect(sql string) (Statement, error) {
	// "SELECT * FROM t [WHERE col = literal]"
	// "SELECT a, b FROM t [WHERE col = literal]"
	rest := strings.TrimSpace(sql[len("SELECT"):])
	projPart, fromPart := splitKeyword(rest, "FROM")
	if strings.TrimSpace(fromPart) == "" {
		return nil, fmt.Errorf("invalid SELECT syntax: missing FROM")
	}

	var columns []string
	projPart = strings.TrimSpace(projPart)
	if projPart != "*" {
		for _, c := range splitComma(projPart) {
			name, err := parseIdent(c)
			if err != nil {
				return nil, fmt.Errorf("invalid SELECT column: %w", err)
			}
			columns = append(columns, name)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("invalid SELECT syntax: empty projection")
		}
	}

	tablePart, wherePart := splitKeyword(fromPart, "WHERE")
	ref, err := parseTableRef(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid SELECT syntax: %w", err)
	}

	var w *WhereEq
	if strings.TrimSpace(wherePart) != "" {
		we, err := parseWhereEq(wherePart)
		if err != nil {
			return nil, err
		}
		w = we
	}

	return &SelectStmt{Columns: columns, Table: ref, Where: w}, nil
}

func parseSet(sql string) (Statement, error) {
	// "SET name = value" or "SET name TO value"
	rest := strings.TrimSpace(sql[len("SET "):])

	var namePart, valPart string
	if l, r := splitKeyword(rest, "TO"); strings.TrimSpace(r) != "" {
		namePart, valPart = l, r
	} else {
		kv := strings.SplitN(rest, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid SET syntax")
		}
		namePart, valPart = kv[0], kv[1]
	}

	name, err := parseIdent(namePart)
	if err != nil {
		return nil, fmt.Errorf("invalid SET syntax: %w", err)
	}

	valPart = strings.TrimSpace(valPart)
	if v, err := parseStringLiteral(valPart); err == nil {
		valPart = v
	}
	return &SetStmt{Name: name, Value: valPart}, nil
}

func parseWhereEq(s string) (*WhereEq, error) {
	// very naive: "col = literal"
	s = strings.TrimSpace(s)
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 {
		return nil, fmt.Errorf("only WHERE <col> = <literal> supported")
	}

	col, err := parseIdent(kv[0])
	if err != nil {
		return nil, fmt.Errorf("invalid WHERE column: %w", err)
	}

	lit, err := parseLiteral(strings.TrimSpace(kv[1]))
	if err != nil {
		return nil, err
	}

	return &WhereEq{
		Column: col,
		Value:  &LiteralExpr{Value: lit},
	}, nil
}

func parseLiteral(rv string) (any, error) {
	up := strings.ToUpper(rv)

	// NULL
	if up == "NULL" {
		return nil, nil
	}

	// BOOL
	if up == "TRUE" {
		return true, nil
	}
	if up == "FALSE" {
		return false, nil
	}

	// STRING (single quotes)
	if len(rv) >= 2 && rv[0] == '\'' && rv[len(rv)-1] == '\'' {
		// NOTE: minimal; no escape support yet
		return rv[1 : len(rv)-1], nil
	}

	// INT64
	if i, err := strconv.ParseInt(rv, 10, 64); err == nil {
		return i, nil
	}

	// FLOAT64
	if f, err := strconv.ParseFloat(rv, 64); err == nil {
		return f, nil
	}

	return nil, fmt.Errorf("unsupported literal: %q", rv)
}

func parseStringLiteral(rv string) (string, error) {
	if len(rv) >= 2 && rv[0] == '\'' && rv[len(rv)-1] == '\'' {
		return rv[1 : len(rv)-1], nil
	}
	return "", fmt.Errorf("expected string literal, got %q", rv)
}

// trimPrefixFold strips an optional case-insensitive prefix made of space
// separated keywords. Returns the rest and whether the prefix was present.
func trimPrefixFold(s, prefix string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(up, prefix+" ") {
		return strings.TrimSpace(strings.TrimSpace(s)[len(prefix):]), true
	}
	return strings.TrimSpace(s), false
}

// splitKeyword splits "X <keyword> Y" case-insensitively, ignoring keyword
// text inside quotes. Returns (X, Y), or (s, "") if keyword is not present.
//
// NOTE (phase 1 limitation):
//   - requires spaces around keyword (" WHERE ").
func splitKeyword(s, keyword string) (string, string) {
	k := " " + strings.ToUpper(keyword) + " "
	inQuote := false
	for i := 0; i+len(k) <= len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case !inQuote && strings.EqualFold(s[i:i+len(k)], k):
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(k):])
		}
	}
	return s, ""
}

// splitComma splits a comma-separated list, ignoring commas inside quotes (simple version).
func splitComma(s string) []string {
	parts := []string{}
	cur := strings.Builder{}
	inQuote := false
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case ',':
			if inQuote {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// splitTuples splits "(..), (..)" on commas outside parens and quotes.
func splitTuples(s string) []string {
	parts := []string{}
	cur := strings.Builder{}
	inQuote := false
	depth := 0
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case '(':
			if !inQuote {
				depth++
			}
			cur.WriteRune(r)
		case ')':
			if !inQuote {
				depth--
			}
			cur.WriteRune(r)
		case ',':
			if inQuote || depth > 0 {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// splitStatements splits a script on ';' outside single quotes.
func splitStatements(s string) []string {
	parts := []string{}
	cur := strings.Builder{}
	inQuote := false
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case ';':
			if inQuote {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// cutCloseParen splits "inner) after" at the paren closing the list,
// honoring quotes.
func cutCloseParen(s string) (inner, after string, ok bool) {
	inQuote := false
	depth := 1
	for i, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth == 0 {
					return s[:i], strings.TrimSpace(s[i+1:]), true
				}
			}
		}
	}
	return "", "", false
}
