package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{Cols: []Column{
	{Name: "id", Type: ColInt64, Nullable: false},
	{Name: "name", Type: ColText, Nullable: true},
	{Name: "active", Type: ColBool, Nullable: true},
	{Name: "score", Type: ColFloat64, Nullable: true},
}}

func TestSchemaNames(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "active", "score"}, testSchema.Names())
	assert.Equal(t, 4, testSchema.NumCols())
}

func TestSchemaColIndex(t *testing.T) {
	assert.Equal(t, 0, testSchema.ColIndex("id"))
	assert.Equal(t, 3, testSchema.ColIndex("score"))
	assert.Equal(t, -1, testSchema.ColIndex("missing"))
}

func TestSchemaProject(t *testing.T) {
	got, err := testSchema.Project([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "id"}, got.Names())

	_, err = testSchema.Project([]int{4})
	require.Error(t, err)
	_, err = testSchema.Project([]int{-1})
	require.Error(t, err)
}

func TestCheckRowCoercesInts(t *testing.T) {
	out, err := CheckRow(testSchema, []any{7, "ada", true, 1.5})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), "ada", true, 1.5}, out)

	out, err = CheckRow(testSchema, []any{int32(7), nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out[0])
}

func TestCheckRowNulls(t *testing.T) {
	out, err := CheckRow(testSchema, []any{int64(1), nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, nil, nil}, out)

	_, err = CheckRow(testSchema, []any{nil, "ada", nil, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT NULL")
}

func TestCheckRowTypeMismatch(t *testing.T) {
	for _, row := range [][]any{
		{"one", nil, nil, nil},
		{int64(1), 2, nil, nil},
		{int64(1), nil, "yes", nil},
		{int64(1), nil, nil, "1.5"},
	} {
		_, err := CheckRow(testSchema, row)
		require.Error(t, err, "row %v", row)
	}
}

func TestCheckRowArity(t *testing.T) {
	_, err := CheckRow(testSchema, []any{int64(1)})
	require.Error(t, err)
	_, err = CheckRow(testSchema, []any{int64(1), "a", true, 1.5, "extra"})
	require.Error(t, err)
}

func TestColumnTypeString(t *testing.T) {
	assert.Equal(t, "INT64", ColInt64.String())
	assert.Equal(t, "TEXT", ColText.String())
	assert.Equal(t, "BOOL", ColBool.String())
	assert.Equal(t, "FLOAT64", ColFloat64.String())
}
