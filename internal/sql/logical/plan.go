package logical

import (
	"encoding/json"
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
)

// Plan is a planned statement intent. Exactly one plan is produced per
// parsed statement. Query wraps a data-flow plan; DDL variants are
// serializable extension nodes with no plan children.
type Plan interface {
	planNode()
	fmt.Stringer
}

// Value is a typed scalar constant. It round-trips through JSON without
// losing its Go type (plain `any` would decode integers as float64).
type Value struct {
	V any
}

type valueEnvelope struct {
	Type string          `json:"t"`
	Val  json.RawMessage `json:"v,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var t string
	switch v.V.(type) {
	case nil:
		return json.Marshal(valueEnvelope{Type: "null"})
	case int64:
		t = "int"
	case float64:
		t = "float"
	case bool:
		t = "bool"
	case string:
		t = "text"
	default:
		return nil, fmt.Errorf("logical: unsupported value type %T", v.V)
	}
	raw, err := json.Marshal(v.V)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{Type: t, Val: raw})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	switch env.Type {
	case "null":
		v.V = nil
		return nil
	case "int":
		var i int64
		if err := json.Unmarshal(env.Val, &i); err != nil {
			return err
		}
		v.V = i
	case "float":
		var f float64
		if err := json.Unmarshal(env.Val, &f); err != nil {
			return err
		}
		v.V = f
	case "bool":
		var x bool
		if err := json.Unmarshal(env.Val, &x); err != nil {
			return err
		}
		v.V = x
	case "text":
		var s string
		if err := json.Unmarshal(env.Val, &s); err != nil {
			return err
		}
		v.V = s
	default:
		return fmt.Errorf("logical: unknown value type %q", env.Type)
	}
	return nil
}

// FilterEq is the pushdown predicate form: <column> = <constant>.
type FilterEq struct {
	Column string `json:"column"`
	Value  Value  `json:"value"`
}

func (f *FilterEq) String() string {
	return fmt.Sprintf("#%s = %v", f.Column, f.Value.V)
}

// ScanSpec describes a resolved base table scan.
type ScanSpec struct {
	Schema string        `json:"schema"`
	Table  string        `json:"table"`
	// Columns is the projected output schema.
	Columns    record.Schema `json:"columns"`
	Projection []int         `json:"projection,omitempty"`
	Filter     *FilterEq     `json:"filter,omitempty"`
}

// ValuesSpec describes constant rows.
type ValuesSpec struct {
	Columns record.Schema `json:"columns"`
	Rows    [][]Value     `json:"rows"`
}

// Query is the data-flow variant: a resolved source to stream batches from.
type Query struct {
	Scan   *ScanSpec   `json:"scan,omitempty"`
	Values *ValuesSpec `json:"values,omitempty"`
}

// clone deep-copies the query so rewritten plan templates cannot alias the
// original's source tree.
func (q *Query) clone() *Query {
	if q == nil {
		return nil
	}
	cp := &Query{}
	if q.Scan != nil {
		scan := *q.Scan
		scan.Columns = record.Schema{Cols: append([]record.Column(nil), q.Scan.Columns.Cols...)}
		scan.Projection = append([]int(nil), q.Scan.Projection...)
		if q.Scan.Filter != nil {
			f := *q.Scan.Filter
			scan.Filter = &f
		}
		cp.Scan = &scan
	}
	if q.Values != nil {
		vals := ValuesSpec{
			Columns: record.Schema{Cols: append([]record.Column(nil), q.Values.Columns.Cols...)},
			Rows:    make([][]Value, len(q.Values.Rows)),
		}
		for i, row := range q.Values.Rows {
			vals.Rows[i] = append([]Value(nil), row...)
		}
		cp.Values = &vals
	}
	return cp
}

// OutputSchema reports the schema of the query's output batches.
func (q *Query) OutputSchema() record.Schema {
	if q.Scan != nil {
		return q.Scan.Columns
	}
	if q.Values != nil {
		return q.Values.Columns
	}
	return record.Schema{}
}

func (q *Query) String() string {
	switch {
	case q.Scan != nil:
		return fmt.Sprintf("Query: scan %s.%s", q.Scan.Schema, q.Scan.Table)
	case q.Values != nil:
		return fmt.Sprintf("Query: values (%d rows)", len(q.Values.Rows))
	default:
		return "Query: empty"
	}
}

// Insert is the write variant: drain Source and append its rows to a table.
type Insert struct {
	Schema  string        `json:"schema"`
	Table   string        `json:"table"`
	Columns record.Schema `json:"columns"`
	Source  *Query        `json:"source"`
}

func (p *Insert) String() string {
	return fmt.Sprintf("Insert: %s.%s", p.Schema, p.Table)
}

// SetVariable is the configuration variant: assign a client-local variable.
type SetVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (p *SetVariable) String() string {
	return fmt.Sprintf("SetVariable: %s = %s", p.Name, p.Value)
}

type TxKind int

const (
	TxBegin TxKind = iota
	TxCommit
	TxRollback
)

// Transaction marks an explicit transaction boundary statement. The engine
// runs in autocommit mode, so these execute as acknowledged no-ops.
type Transaction struct {
	Kind TxKind
}

func (p *Transaction) String() string {
	switch p.Kind {
	case TxBegin:
		return "Transaction: begin"
	case TxCommit:
		return "Transaction: commit"
	default:
		return "Transaction: rollback"
	}
}

// Explain carries the rendered relational plan text for an EXPLAIN
// statement.
type Explain struct {
	Text string
}

func (p *Explain) String() string { return "Explain" }

func (*Query) planNode()       {}
func (*Insert) planNode()      {}
func (*SetVariable) planNode() {}
func (*Transaction) planNode() {}
func (*Explain) planNode()     {}
