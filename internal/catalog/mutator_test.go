package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orcasql/orcasql/internal/record"
)

var usersSchema = record.Schema{Cols: []record.Column{
	{Name: "id", Type: record.ColInt64},
	{Name: "name", Type: record.ColText, Nullable: true},
}}

func TestMutatorCommitBumpsVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	v, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateSchema{Name: "app"},
	})
	require.NoError(t, err)
	require.Equal(t, Version(1), v)

	v, err = m.MutateAndCommit(ctx, 1, []Mutation{
		CreateTable{Schema: "app", Name: "users", Columns: usersSchema},
	})
	require.NoError(t, err)
	require.Equal(t, Version(2), v)

	state, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, Version(2), state.Version)
	entry, ok := state.Table("app", "users")
	require.True(t, ok)
	require.Equal(t, "users", entry.Name)
}

func TestMutatorStaleVersionConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{CreateSchema{Name: "a"}})
	require.NoError(t, err)

	// Committing against the old version fails and changes nothing.
	_, err = m.MutateAndCommit(ctx, 0, []Mutation{CreateSchema{Name: "b"}})
	require.ErrorIs(t, err, ErrVersionConflict)

	state, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, Version(1), state.Version)
	_, ok := state.Schemas["b"]
	require.False(t, ok)
}

func TestMutatorTwoSessionsSameDrop(t *testing.T) {
	// Two sessions plan the same DROP TABLE against version 1. The first
	// commit wins; the second must see a conflict, not a spurious
	// "table does not exist".
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateTable{Schema: DefaultSchema, Name: "users", Columns: usersSchema},
	})
	require.NoError(t, err)

	drop := DropTables{Schema: DefaultSchema, Names: []string{"users"}}

	v, err := m.MutateAndCommit(ctx, 1, []Mutation{drop})
	require.NoError(t, err)
	require.Equal(t, Version(2), v)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{drop})
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestMutatorBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	// Second mutation fails, so the first must not be visible either.
	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateSchema{Name: "good"},
		CreateTable{Schema: "missing", Name: "t", Columns: usersSchema},
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrVersionConflict)

	state, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, Version(0), state.Version)
	_, ok := state.Schemas["good"]
	require.False(t, ok)
}

func TestMutatorFailedApplyLeavesSnapshotIntact(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	before, err := m.Snapshot(ctx)
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 0, []Mutation{
		DropTables{Schema: DefaultSchema, Names: []string{"ghost"}},
	})
	require.Error(t, err)

	after, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.Same(t, before, after)
}

func TestCreateSchemaIfNotExists(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{CreateSchema{Name: "s"}})
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{CreateSchema{Name: "s"}})
	require.Error(t, err)

	v, err := m.MutateAndCommit(ctx, 1, []Mutation{CreateSchema{Name: "s", IfNotExists: true}})
	require.NoError(t, err)
	require.Equal(t, Version(2), v)
}

func TestDropSchemaRequiresCascadeWhenNotEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateSchema{Name: "s"},
		CreateTable{Schema: "s", Name: "t", Columns: usersSchema},
	})
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{DropSchemas{Names: []string{"s"}}})
	require.Error(t, err)

	v, err := m.MutateAndCommit(ctx, 1, []Mutation{
		DropSchemas{Names: []string{"s"}, Cascade: true},
	})
	require.NoError(t, err)
	require.Equal(t, Version(2), v)
}

func TestAlterTableRename(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateTable{Schema: DefaultSchema, Name: "old", Columns: usersSchema},
	})
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{
		AlterTable{Schema: DefaultSchema, Name: "old", Operation: AlterTableOperation{RenameTo: "new"}},
	})
	require.NoError(t, err)

	state, err := m.Snapshot(ctx)
	require.NoError(t, err)
	_, ok := state.Table(DefaultSchema, "old")
	require.False(t, ok)
	entry, ok := state.Table(DefaultSchema, "new")
	require.True(t, ok)
	require.Equal(t, "new", entry.Name)
	require.Equal(t, usersSchema, entry.Columns)
}

func TestAlterTableRenameCollision(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateTable{Schema: DefaultSchema, Name: "a", Columns: usersSchema},
		CreateTable{Schema: DefaultSchema, Name: "b", Columns: usersSchema},
	})
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{
		AlterTable{Schema: DefaultSchema, Name: "a", Operation: AlterTableOperation{RenameTo: "b"}},
	})
	require.Error(t, err)
}

func TestCredentialsLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateCredentials{Name: "gcp_prod", Provider: "gcp", Options: map[string]string{"key": "k"}},
	})
	require.NoError(t, err)

	state, err := m.Snapshot(ctx)
	require.NoError(t, err)
	cred, ok := state.Credentials["gcp_prod"]
	require.True(t, ok)
	require.Equal(t, "gcp", cred.Provider)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{
		CreateCredentials{Name: "gcp_prod", Provider: "gcp"},
	})
	require.Error(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{
		DropCredentials{Names: []string{"gcp_prod"}},
	})
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 2, []Mutation{
		DropCredentials{Names: []string{"gcp_prod"}},
	})
	require.Error(t, err)

	_, err = m.MutateAndCommit(ctx, 2, []Mutation{
		DropCredentials{Names: []string{"gcp_prod"}, IfExists: true},
	})
	require.NoError(t, err)
}

func TestCloneIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMutator(NewMemoryStore())

	_, err := m.MutateAndCommit(ctx, 0, []Mutation{
		CreateTable{Schema: DefaultSchema, Name: "t", Columns: usersSchema},
	})
	require.NoError(t, err)

	before, err := m.Snapshot(ctx)
	require.NoError(t, err)

	_, err = m.MutateAndCommit(ctx, 1, []Mutation{
		DropTables{Schema: DefaultSchema, Names: []string{"t"}},
	})
	require.NoError(t, err)

	// The snapshot taken before the drop still sees the table.
	_, ok := before.Table(DefaultSchema, "t")
	require.True(t, ok)
}
