package executor

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/engine"
	"github.com/orcasql/orcasql/internal/sql/physical"
)

func newTestSession(t *testing.T) *engine.Session {
	t.Helper()
	eng := engine.NewInMemory(slog.Default())
	sess, err := eng.NewSession(context.Background())
	require.NoError(t, err)
	return sess
}

func execAll(t *testing.T, ex *Executor) []*Result {
	t.Helper()
	ctx := context.Background()
	var out []*Result
	for {
		res, err := ex.ExecuteNext(ctx)
		require.NoError(t, err)
		if res == nil {
			return out
		}
		out = append(out, res)
	}
}

func TestExecutorParseErrorNoQueue(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("CREATE TABLE t (a INT); SELEKT * FROM t", sess)
	require.Error(t, err)
	require.Nil(t, ex)
}

func TestExecutorRemaining(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("CREATE SCHEMA s1; CREATE TABLE s1.t (a INT); INSERT INTO s1.t VALUES (1)", sess)
	require.NoError(t, err)
	require.Equal(t, 3, ex.Remaining())

	res, err := ex.ExecuteNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, ResultCreateSchema, res.Kind)
	require.Equal(t, 2, ex.Remaining())
}

func TestExecutorEmptyQueue(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("CREATE SCHEMA s1", sess)
	require.NoError(t, err)
	execAll(t, ex)

	res, err := ex.ExecuteNext(context.Background())
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestExecutorDDLAndInsert(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New(`
		CREATE TABLE users (id INT, name TEXT);
		INSERT INTO users VALUES (1, 'ada'), (2, 'bob');
		SELECT name FROM users WHERE id = 2
	`, sess)
	require.NoError(t, err)

	results := execAll(t, ex)
	require.Len(t, results, 3)

	require.Equal(t, ResultCreateTable, results[0].Kind)

	require.Equal(t, ResultWriteSuccess, results[1].Kind)
	require.Equal(t, int64(2), results[1].RowsWritten)

	require.Equal(t, ResultQuery, results[2].Kind)
	rows, err := physical.Collect(context.Background(), results[2].Stream)
	require.NoError(t, err)
	require.Equal(t, [][]any{{"bob"}}, rows)
}

func TestExecutorVersionAdvancesPerDDL(t *testing.T) {
	sess := newTestSession(t)
	require.Equal(t, catalog.Version(0), sess.CatalogVersion())

	ex, err := New("CREATE SCHEMA a; CREATE SCHEMA b; CREATE TABLE a.t (x INT)", sess)
	require.NoError(t, err)
	execAll(t, ex)

	// One committed mutation per statement, one version bump each.
	require.Equal(t, catalog.Version(3), sess.CatalogVersion())

	ex, err = New("ALTER TABLE a.t RENAME TO t2", sess)
	require.NoError(t, err)
	execAll(t, ex)
	require.Equal(t, catalog.Version(4), sess.CatalogVersion())
}

func TestExecutorAlterRename(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New(`
		CREATE TABLE t (a INT);
		INSERT INTO t VALUES (7);
		ALTER TABLE t RENAME TO t2;
		SELECT * FROM t2
	`, sess)
	require.NoError(t, err)

	results := execAll(t, ex)
	require.Len(t, results, 4)
	require.Equal(t, ResultAlterTable, results[2].Kind)

	rows, err := physical.Collect(context.Background(), results[3].Stream)
	require.NoError(t, err)
	require.Equal(t, [][]any{{int64(7)}}, rows)
}

func TestExecutorFailedStatementIsPopped(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("DROP TABLE missing; CREATE SCHEMA ok", sess)
	require.NoError(t, err)

	_, err = ex.ExecuteNext(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, ex.Remaining())

	res, err := ex.ExecuteNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, ResultCreateSchema, res.Kind)
}

func TestExecutorDropIfExists(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("DROP TABLE IF EXISTS missing", sess)
	require.NoError(t, err)
	results := execAll(t, ex)
	require.Len(t, results, 1)
	require.Equal(t, ResultDropTables, results[0].Kind)
}

func TestExecutorSetLocal(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("SET search_path = 'public'", sess)
	require.NoError(t, err)
	results := execAll(t, ex)
	require.Len(t, results, 1)
	require.Equal(t, ResultSetLocal, results[0].Kind)

	v, ok := sess.Var("search_path")
	require.True(t, ok)
	require.Equal(t, "public", v)
}

func TestExecutorTransactionStatements(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("BEGIN; COMMIT; BEGIN; ROLLBACK", sess)
	require.NoError(t, err)
	results := execAll(t, ex)
	require.Len(t, results, 4)
	require.Equal(t, ResultBegin, results[0].Kind)
	require.Equal(t, ResultCommit, results[1].Kind)
	require.Equal(t, ResultBegin, results[2].Kind)
	require.Equal(t, ResultRollback, results[3].Kind)
}

func TestExecutorExplain(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New("CREATE TABLE t (a INT, b TEXT); EXPLAIN SELECT a FROM t WHERE b = 'x'", sess)
	require.NoError(t, err)
	results := execAll(t, ex)
	require.Len(t, results, 2)
	require.Equal(t, ResultQuery, results[1].Kind)

	rows, err := physical.Collect(context.Background(), results[1].Stream)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	text, ok := rows[0][0].(string)
	require.True(t, ok)
	require.Contains(t, text, "Scan: table = public.t")
}

func TestExecutorRecoversAfterForeignCommit(t *testing.T) {
	ctx := context.Background()
	eng := engine.NewInMemory(slog.Default())

	a, err := eng.NewSession(ctx)
	require.NoError(t, err)
	b, err := eng.NewSession(ctx)
	require.NoError(t, err)

	ex, err := New("CREATE SCHEMA a", a)
	require.NoError(t, err)
	_, err = ex.ExecuteNext(ctx)
	require.NoError(t, err)

	// b was opened before a's commit. Planning against the current catalog
	// pins b to the committed version, so its DDL does not conflict.
	ex, err = New("CREATE SCHEMA b", b)
	require.NoError(t, err)
	res, err := ex.ExecuteNext(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultCreateSchema, res.Kind)
	require.Equal(t, catalog.Version(2), b.CatalogVersion())

	// A second re-planned statement on the same session also succeeds.
	ex, err = New("CREATE SCHEMA c", b)
	require.NoError(t, err)
	res, err = ex.ExecuteNext(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultCreateSchema, res.Kind)
}

func TestExecutorInsertSelectEmptySource(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New(`
		CREATE TABLE src (id INT, name TEXT);
		CREATE TABLE dst (id INT, name TEXT);
		INSERT INTO dst SELECT * FROM src
	`, sess)
	require.NoError(t, err)

	results := execAll(t, ex)
	require.Len(t, results, 3)
	require.Equal(t, ResultWriteSuccess, results[2].Kind)
	require.Equal(t, int64(0), results[2].RowsWritten)
}

func TestExecutorCredentials(t *testing.T) {
	sess := newTestSession(t)

	ex, err := New(`
		CREATE CREDENTIALS prod PROVIDER 'gcp' OPTIONS (service_account_key = 'k');
		DROP CREDENTIALS prod
	`, sess)
	require.NoError(t, err)
	results := execAll(t, ex)
	require.Len(t, results, 2)
	require.Equal(t, ResultCreateCredentials, results[0].Kind)
	require.Equal(t, ResultDropCredentials, results[1].Kind)
}
