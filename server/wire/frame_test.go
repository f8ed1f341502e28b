package wire

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/orcasql/orcasql/internal/engine"
	"github.com/orcasql/orcasql/internal/sql/logical"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := ExecuteRequest{ID: 42, SQL: "SELECT * FROM t"}
	require.NoError(t, WriteFrame(&buf, in))

	var out ExecuteRequest
	require.NoError(t, ReadFrame(&buf, &out))
	require.Equal(t, in, out)
}

func TestFrameMultiple(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, ExecuteRequest{ID: 1, SQL: "a"}))
	require.NoError(t, WriteFrame(&buf, ExecuteRequest{ID: 2, SQL: "b"}))

	var r1, r2 ExecuteRequest
	require.NoError(t, ReadFrame(&buf, &r1))
	require.NoError(t, ReadFrame(&buf, &r2))
	require.Equal(t, uint64(1), r1.ID)
	require.Equal(t, uint64(2), r2.ID)
}

func TestFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrameSize+1)
	buf.Write(hdr[:])

	var out ExecuteRequest
	err := ReadFrame(&buf, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "frame too large")
}

func TestFrameDecompressedTooLarge(t *testing.T) {
	// A tiny compressed frame must not be allowed to expand past the cap.
	raw := bytes.Repeat([]byte("a"), MaxFrameSize+1)
	compressed := zstdEncoder.EncodeAll(raw, nil)
	require.Less(t, len(compressed), MaxFrameSize)

	var buf bytes.Buffer
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(compressed)))
	buf.Write(hdr[:])
	buf.Write(compressed)

	var out ExecuteRequest
	err := ReadFrame(&buf, &out)
	require.ErrorIs(t, err, zstd.ErrDecoderSizeExceeded)
}

func TestFrameGarbagePayload(t *testing.T) {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], 4)
	buf.Write(hdr[:])
	buf.Write([]byte{0xde, 0xad, 0xbe, 0xef})

	var out ExecuteRequest
	require.Error(t, ReadFrame(&buf, &out))
}

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	eng := engine.NewInMemory(slog.Default())
	return &Server{Engine: eng, Logger: slog.Default()}, eng
}

func TestServerExecuteScript(t *testing.T) {
	srv, eng := newTestServer(t)
	ctx := context.Background()

	sess, err := eng.NewSession(ctx)
	require.NoError(t, err)

	resp := srv.execute(ctx, sess, &ExecuteRequest{
		ID:  7,
		SQL: "CREATE TABLE t (a INT); INSERT INTO t VALUES (1), (2); SELECT a FROM t",
	})
	require.Empty(t, resp.Error)
	require.Equal(t, uint64(7), resp.ID)
	require.Len(t, resp.Results, 3)

	require.Equal(t, "create_table", resp.Results[0].Kind)

	require.Equal(t, "write_success", resp.Results[1].Kind)
	require.Equal(t, int64(2), resp.Results[1].RowsWritten)

	require.Equal(t, "query", resp.Results[2].Kind)
	require.Equal(t, []string{"a"}, resp.Results[2].Columns)
	require.Equal(t, [][]any{{int64(1)}, {int64(2)}}, resp.Results[2].Rows)
}

func TestServerExecutePartialFailure(t *testing.T) {
	srv, eng := newTestServer(t)
	ctx := context.Background()

	sess, err := eng.NewSession(ctx)
	require.NoError(t, err)

	resp := srv.execute(ctx, sess, &ExecuteRequest{
		ID:  1,
		SQL: "CREATE SCHEMA s; DROP TABLE nope",
	})
	require.NotEmpty(t, resp.Error)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "create_schema", resp.Results[0].Kind)
}

func TestServerExecuteShippedPlan(t *testing.T) {
	srv, eng := newTestServer(t)
	ctx := context.Background()

	sess, err := eng.NewSession(ctx)
	require.NoError(t, err)

	encoded, err := logical.Encode(&logical.CreateSchema{Name: "remote"})
	require.NoError(t, err)

	resp := srv.execute(ctx, sess, &ExecuteRequest{ID: 9, Plan: encoded})
	require.Empty(t, resp.Error)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "create_schema", resp.Results[0].Kind)

	state, err := sess.CatalogSnapshot(ctx)
	require.NoError(t, err)
	_, ok := state.Schemas["remote"]
	require.True(t, ok)
}
