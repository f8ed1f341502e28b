package logical

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/record"
)

var testColumns = record.Schema{Cols: []record.Column{
	{Name: "id", Type: record.ColInt64},
	{Name: "name", Type: record.ColText, Nullable: true},
}}

func allExtensionNodes() []ExtensionNode {
	return []ExtensionNode{
		&CreateTable{Schema: "public", Name: "users", Columns: testColumns, IfNotExists: true},
		&CreateExternalTable{
			Schema:   "public",
			Name:     "ext",
			Columns:  testColumns,
			Location: "s3://bucket/key",
			Format:   "csv",
		},
		&CreateTableAs{
			Schema: "public",
			Name:   "copy",
			Source: &Query{Values: &ValuesSpec{
				Columns: testColumns,
				Rows: [][]Value{
					{{V: int64(1)}, {V: "ada"}},
					{{V: int64(2)}, {V: nil}},
				},
			}},
		},
		&CreateSchema{Name: "analytics", IfNotExists: true},
		&DropTables{Schema: "public", Names: []string{"a", "b"}, IfExists: true},
		&DropSchemas{Names: []string{"analytics"}, Cascade: true},
		&AlterTable{Schema: "public", Name: "users", Operation: catalog.AlterTableOperation{RenameTo: "people"}},
		&CreateCredentials{Name: "prod", Provider: "gcp", Options: map[string]string{"sa": "key"}},
		&DropCredentials{Names: []string{"prod"}, IfExists: true},
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	for _, node := range allExtensionNodes() {
		t.Run(node.ExtensionName(), func(t *testing.T) {
			buf, err := Encode(node)
			require.NoError(t, err)

			got, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, node.ExtensionName(), got.ExtensionName())
			require.Equal(t, node, got)
		})
	}
}

func TestExtensionLeafShape(t *testing.T) {
	for _, node := range allExtensionNodes() {
		require.Nil(t, node.Inputs())
		require.Nil(t, node.Expressions())
		require.Equal(t, ExtensionSchema, node.OutputSchema())
	}
}

func TestExtensionFromTemplateClones(t *testing.T) {
	orig := &CreateSchema{Name: "a"}
	clone := orig.FromTemplate()
	require.Equal(t, orig, clone)
	require.NotSame(t, orig, clone)
}

func TestFromTemplateClonesQuerySource(t *testing.T) {
	orig := &CreateTableAs{
		Schema: "public",
		Name:   "copy",
		Source: &Query{Scan: &ScanSpec{
			Schema:     "public",
			Table:      "src",
			Columns:    testColumns,
			Projection: []int{0},
			Filter:     &FilterEq{Column: "id", Value: Value{V: int64(1)}},
		}},
	}

	clone := orig.FromTemplate().(*CreateTableAs)
	require.Equal(t, orig, clone)
	require.NotSame(t, orig.Source, clone.Source)

	// Mutating the clone's subtree must not reach the original.
	clone.Source.Scan.Table = "other"
	clone.Source.Scan.Filter.Column = "name"
	clone.Source.Scan.Projection[0] = 1
	require.Equal(t, "src", orig.Source.Scan.Table)
	require.Equal(t, "id", orig.Source.Scan.Filter.Column)
	require.Equal(t, []int{0}, orig.Source.Scan.Projection)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"name":"TruncateTable","payload":{}}`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeBadEnvelope(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeBadPayload(t *testing.T) {
	_, err := Decode([]byte(`{"name":"CreateSchema","payload":[1,2,3]}`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeAs(t *testing.T) {
	buf, err := Encode(&DropTables{Schema: "public", Names: []string{"t"}})
	require.NoError(t, err)

	node, err := Decode(buf)
	require.NoError(t, err)

	drop, err := DecodeAs[*DropTables](node)
	require.NoError(t, err)
	require.Equal(t, []string{"t"}, drop.Names)

	_, err = DecodeAs[*CreateSchema](node)
	require.ErrorIs(t, err, ErrDecode)
}

func TestValueRoundTripPreservesTypes(t *testing.T) {
	// Int values must come back as ints, not floats, after a wire trip.
	node := &CreateTableAs{
		Schema: "public",
		Name:   "t",
		Source: &Query{Values: &ValuesSpec{
			Columns: record.Schema{Cols: []record.Column{
				{Name: "n", Type: record.ColInt64},
				{Name: "f", Type: record.ColFloat64},
				{Name: "b", Type: record.ColBool},
				{Name: "s", Type: record.ColText, Nullable: true},
			}},
			Rows: [][]Value{
				{{V: int64(7)}, {V: 1.5}, {V: true}, {V: nil}},
			},
		}},
	}

	buf, err := Encode(node)
	require.NoError(t, err)
	got, err := Decode(buf)
	require.NoError(t, err)

	cta, err := DecodeAs[*CreateTableAs](got)
	require.NoError(t, err)
	row := cta.Source.Values.Rows[0]
	require.Equal(t, any(int64(7)), row[0].V)
	require.Equal(t, any(1.5), row[1].V)
	require.Equal(t, any(true), row[2].V)
	require.Nil(t, row[3].V)
}
