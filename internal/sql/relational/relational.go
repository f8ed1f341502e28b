package relational

import (
	"fmt"
	"strings"

	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/sql/parser"
)

// Plan is a pure-value tree of relational operators. Nodes own their
// children outright; there is no mutation after construction and no shared
// subtrees. The tree is used for analysis and explain output, not executed
// directly.
type Plan interface {
	fmt.Stringer
	format(sb *strings.Builder, depth int)
}

// ResolvedTable is a table reference resolved against the catalog.
type ResolvedTable struct {
	Schema  string
	Name    string
	Columns record.Schema
}

func (r ResolvedTable) String() string { return r.Schema + "." + r.Name }

// Filter evaluates a predicate on all input rows ("WHERE ...").
type Filter struct {
	Predicate *parser.WhereEq
	Input     Plan
}

// Project evaluates a list of expressions over the input ("SELECT ...").
type Project struct {
	Expressions []parser.Expr
	Input       Plan
}

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	default:
		return "right"
	}
}

// Join joins two plan nodes on a predicate.
type Join struct {
	Left  Plan
	Right Plan
	Type  JoinType
	On    *parser.WhereEq
}

// CrossJoin joins two plan nodes without a predicate.
type CrossJoin struct {
	Left  Plan
	Right Plan
}

// Scan is a base table scan.
type Scan struct {
	Table ResolvedTable
	// ProjectedSchema describes the table with the projection applied.
	ProjectedSchema record.Schema
	// Projection is an optional list of column indices to project.
	Projection []int
	// Filters is an optional list of pushdown predicates evaluated during
	// the scan.
	Filters []*parser.WhereEq
}

// Values holds constant rows.
type Values struct {
	Columns record.Schema
	Rows    [][]parser.Expr
}

func (p *Filter) String() string    { return render(p) }
func (p *Project) String() string   { return render(p) }
func (p *Join) String() string      { return render(p) }
func (p *CrossJoin) String() string { return render(p) }
func (p *Scan) String() string      { return render(p) }
func (p *Values) String() string    { return render(p) }

func render(p Plan) string {
	var sb strings.Builder
	p.format(&sb, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	if depth > 0 {
		sb.WriteString(strings.Repeat("| ", depth-1))
	}
}

func (p *Project) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	exprs := make([]string, len(p.Expressions))
	for i, e := range p.Expressions {
		exprs[i] = e.String()
	}
	fmt.Fprintf(sb, "Project: projections = [%s]\n", strings.Join(exprs, ", "))
	p.Input.format(sb, depth+1)
}

func (p *Filter) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	fmt.Fprintf(sb, "Filter: predicate = %s\n", p.Predicate)
	p.Input.format(sb, depth+1)
}

func (p *Join) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	fmt.Fprintf(sb, "Join: type = %s, operator = on (%s)\n", p.Type, p.On)
	p.Left.format(sb, depth+1)
	p.Right.format(sb, depth+1)
}

func (p *CrossJoin) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	sb.WriteString("Cross join:\n")
	p.Left.format(sb, depth+1)
	p.Right.format(sb, depth+1)
}

func (p *Scan) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	fmt.Fprintf(sb, "Scan: table = %s, ", p.Table)
	if p.Projection != nil {
		idxs := make([]string, len(p.Projection))
		for i, idx := range p.Projection {
			idxs[i] = fmt.Sprintf("%d", idx)
		}
		fmt.Fprintf(sb, "projection = [%s], ", strings.Join(idxs, ", "))
	} else {
		sb.WriteString("projection = None, ")
	}
	if p.Filters != nil {
		filters := make([]string, len(p.Filters))
		for i, f := range p.Filters {
			filters[i] = f.String()
		}
		fmt.Fprintf(sb, "filters = [%s]\n", strings.Join(filters, ", "))
	} else {
		sb.WriteString("filters = None\n")
	}
}

func (p *Values) format(sb *strings.Builder, depth int) {
	indent(sb, depth)
	sb.WriteString("Values: values = [\n")
	for _, row := range p.Rows {
		exprs := make([]string, len(row))
		for i, e := range row {
			exprs[i] = e.String()
		}
		fmt.Fprintf(sb, "[%s]\n", strings.Join(exprs, ", "))
	}
	sb.WriteString("]\n")
}
