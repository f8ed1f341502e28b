// Package orcasql is the top-level facade for the OrcaSQL engine.
// Embedders construct an Engine, open Sessions, and run statements
// through internal/sql/executor; the server in server/wire does the
// same over TCP.
package orcasql

import (
	"log/slog"

	"github.com/orcasql/orcasql/internal/engine"
)

type (
	Engine  = engine.Engine
	Session = engine.Session
)

// NewInMemory builds an engine backed by in-memory catalog and table
// storage. Pass nil to log with slog.Default.
func NewInMemory(logger *slog.Logger) *Engine {
	return engine.NewInMemory(logger)
}
