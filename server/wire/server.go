// Package wire implements the TCP protocol for remote statement
// execution: length-prefixed zstd-compressed JSON frames carrying SQL
// scripts or pre-planned DDL nodes.
package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/orcasql/orcasql/internal/engine"
	"github.com/orcasql/orcasql/internal/sql/executor"
	"github.com/orcasql/orcasql/internal/sql/logical"
	"github.com/orcasql/orcasql/internal/sql/physical"
)

// Server accepts client connections and executes their statements. Each
// connection gets its own session, so SET variables and catalog version
// pinning are connection-scoped.
type Server struct {
	Addr   string
	Engine *engine.Engine
	Logger *slog.Logger
}

// Serve listens on s.Addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("wire: listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	logger.Info("server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			logger.Warn("accept failed", "error", err)
			continue
		}
		go s.handleConn(ctx, conn, logger)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn, logger *slog.Logger) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Time{})

	sess, err := s.Engine.NewSession(ctx)
	if err != nil {
		logger.Error("open session failed", "error", err)
		return
	}
	logger = logger.With("session_id", sess.ID(), "remote", conn.RemoteAddr().String())
	logger.Debug("connection opened")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			logger.Debug("connection closed", "error", err)
			return
		}

		resp := s.execute(ctx, sess, &req)
		if err := WriteFrame(conn, resp); err != nil {
			logger.Warn("write response failed", "error", err)
			return
		}
	}
}

func (s *Server) execute(ctx context.Context, sess *engine.Session, req *ExecuteRequest) *ExecuteResponse {
	resp := &ExecuteResponse{ID: req.ID}

	if len(req.Plan) > 0 {
		node, err := logical.Decode(req.Plan)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		ex, err := executor.New("", sess)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		res, err := ex.ExecutePlan(ctx, node)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		sr, err := materialize(ctx, res)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Results = append(resp.Results, sr)
		return resp
	}

	ex, err := executor.New(req.SQL, sess)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	for {
		res, err := ex.ExecuteNext(ctx)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		if res == nil {
			return resp
		}
		sr, err := materialize(ctx, res)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Results = append(resp.Results, sr)
	}
}

// materialize drains a query result stream into a wire result.
func materialize(ctx context.Context, res *executor.Result) (StatementResult, error) {
	sr := StatementResult{Kind: kindString(res.Kind)}
	switch res.Kind {
	case executor.ResultQuery:
		sr.Columns = res.Stream.Schema().Names()
		rows, err := physical.Collect(ctx, res.Stream)
		if err != nil {
			return StatementResult{}, err
		}
		sr.Rows = rows
	case executor.ResultWriteSuccess:
		sr.RowsWritten = res.RowsWritten
	}
	return sr, nil
}
