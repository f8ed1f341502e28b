package relational

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orcasql/orcasql/internal/record"
	"github.com/orcasql/orcasql/internal/sql/parser"
)

var usersColumns = record.Schema{Cols: []record.Column{
	{Name: "id", Type: record.ColInt64},
	{Name: "name", Type: record.ColText, Nullable: true},
}}

// mapReader builds a StateReader over a schema -> table -> columns map.
func mapReader(defaultSchema string, schemas map[string]map[string]record.Schema) *StateReader {
	return &StateReader{
		DefaultSchema: defaultSchema,
		Lookup: func(schema string) (map[string]record.Schema, bool) {
			tables, ok := schemas[schema]
			return tables, ok
		},
		SchemaNames: func() []string {
			names := make([]string, 0, len(schemas))
			for name := range schemas {
				names = append(names, name)
			}
			sort.Strings(names)
			return names
		},
	}
}

func defaultReader() *StateReader {
	return mapReader("public", map[string]map[string]record.Schema{
		"public": {"users": usersColumns},
	})
}

func mustParse(t *testing.T, sql string) parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func TestRenderSelectStar(t *testing.T) {
	plan, err := Build(context.Background(), defaultReader(), mustParse(t, "SELECT * FROM users"))
	require.NoError(t, err)
	require.Equal(t,
		"Scan: table = public.users, projection = None, filters = None\n",
		plan.String())
}

func TestRenderProjectFilterScan(t *testing.T) {
	plan, err := Build(context.Background(), defaultReader(),
		mustParse(t, "SELECT name FROM users WHERE id = 3"))
	require.NoError(t, err)
	require.Equal(t,
		"Project: projections = [#name]\n"+
			"Filter: predicate = #id = 3\n"+
			"| Scan: table = public.users, projection = [1], filters = None\n",
		plan.String())
}

func TestRenderIndentDepth(t *testing.T) {
	// Hand-built three-level tree to pin the indent step.
	scan := &Scan{Table: ResolvedTable{Schema: "s", Name: "t", Columns: usersColumns}}
	filter := &Filter{
		Predicate: &parser.WhereEq{Column: "id", Value: &parser.LiteralExpr{Value: int64(1)}},
		Input:     scan,
	}
	project := &Project{
		Expressions: []parser.Expr{&parser.ColumnExpr{Name: "id"}},
		Input:       filter,
	}
	require.Equal(t,
		"Project: projections = [#id]\n"+
			"Filter: predicate = #id = 1\n"+
			"| Scan: table = s.t, projection = None, filters = None\n",
		project.String())
}

func TestRenderJoin(t *testing.T) {
	left := &Scan{Table: ResolvedTable{Schema: "s", Name: "a"}}
	right := &Scan{Table: ResolvedTable{Schema: "s", Name: "b"}}
	join := &Join{
		Left:  left,
		Right: right,
		Type:  JoinInner,
		On:    &parser.WhereEq{Column: "id", Value: &parser.LiteralExpr{Value: int64(1)}},
	}
	require.Equal(t,
		"Join: type = inner, operator = on (#id = 1)\n"+
			"Scan: table = s.a, projection = None, filters = None\n"+
			"Scan: table = s.b, projection = None, filters = None\n",
		join.String())
}

func TestRenderCrossJoin(t *testing.T) {
	cj := &CrossJoin{
		Left:  &Scan{Table: ResolvedTable{Schema: "s", Name: "a"}},
		Right: &Scan{Table: ResolvedTable{Schema: "s", Name: "b"}},
	}
	require.Equal(t,
		"Cross join:\n"+
			"Scan: table = s.a, projection = None, filters = None\n"+
			"Scan: table = s.b, projection = None, filters = None\n",
		cj.String())
}

func TestRenderValues(t *testing.T) {
	plan, err := Build(context.Background(), defaultReader(),
		mustParse(t, "INSERT INTO users VALUES (1, 'ada'), (2, NULL)"))
	require.NoError(t, err)
	require.Equal(t,
		"Values: values = [\n"+
			"[1, 'ada']\n"+
			"[2, NULL]\n"+
			"]\n",
		plan.String())
}

func TestRenderIsDeterministic(t *testing.T) {
	plan, err := Build(context.Background(), defaultReader(),
		mustParse(t, "SELECT id FROM users WHERE name = 'x'"))
	require.NoError(t, err)
	first := plan.String()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, plan.String())
	}
}

func TestResolveQualified(t *testing.T) {
	reader := mapReader("public", map[string]map[string]record.Schema{
		"public": {},
		"app":    {"users": usersColumns},
	})

	got, err := reader.ResolveTable(context.Background(), parser.TableRef{Schema: "app", Name: "users"})
	require.NoError(t, err)
	require.Equal(t, "app.users", got.String())

	_, err = reader.ResolveTable(context.Background(), parser.TableRef{Schema: "nope", Name: "users"})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestResolveDefaultSchemaWins(t *testing.T) {
	other := record.Schema{Cols: []record.Column{{Name: "x", Type: record.ColBool}}}
	reader := mapReader("public", map[string]map[string]record.Schema{
		"public": {"users": usersColumns},
		"app":    {"users": other},
	})

	got, err := reader.ResolveTable(context.Background(), parser.TableRef{Name: "users"})
	require.NoError(t, err)
	require.Equal(t, "public", got.Schema)
	require.Equal(t, usersColumns, got.Columns)
}

func TestResolveSearchesOtherSchemas(t *testing.T) {
	reader := mapReader("public", map[string]map[string]record.Schema{
		"public": {},
		"app":    {"users": usersColumns},
	})

	got, err := reader.ResolveTable(context.Background(), parser.TableRef{Name: "users"})
	require.NoError(t, err)
	require.Equal(t, "app", got.Schema)
}

func TestResolveAmbiguous(t *testing.T) {
	reader := mapReader("public", map[string]map[string]record.Schema{
		"public": {},
		"a":      {"users": usersColumns},
		"b":      {"users": usersColumns},
	})

	_, err := reader.ResolveTable(context.Background(), parser.TableRef{Name: "users"})
	require.ErrorIs(t, err, ErrAmbiguousReference)
}

func TestResolveNotFound(t *testing.T) {
	_, err := defaultReader().ResolveTable(context.Background(), parser.TableRef{Name: "ghost"})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestBuildUnknownColumn(t *testing.T) {
	_, err := Build(context.Background(), defaultReader(),
		mustParse(t, "SELECT ghost FROM users"))
	require.Error(t, err)
}
