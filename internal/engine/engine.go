package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/orcasql/orcasql/internal/catalog"
	"github.com/orcasql/orcasql/internal/storage"
)

// Engine owns the shared catalog and storage backends and hands out
// sessions. All cross-session coordination happens through the catalog
// mutator's optimistic version protocol; nothing else writes catalog state.
type Engine struct {
	mutator *catalog.Mutator
	tables  storage.TableStore
	logger  *slog.Logger
}

func New(catStore catalog.Store, tables storage.TableStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		mutator: catalog.NewMutator(catStore),
		tables:  tables,
		logger:  logger,
	}
}

// NewInMemory builds an engine over in-memory catalog and table storage.
func NewInMemory(logger *slog.Logger) *Engine {
	return New(catalog.NewMemoryStore(), storage.NewMemoryStore(), logger)
}

// NewSession opens a session pinned to the latest committed catalog
// version.
func (e *Engine) NewSession(ctx context.Context) (*Session, error) {
	state, err := e.mutator.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: open session: %w", err)
	}
	id := uuid.New()
	e.logger.Debug("session opened", "session_id", id, "catalog_version", state.Version)
	return &Session{
		id:      id,
		mutator: e.mutator,
		tables:  e.tables,
		logger:  e.logger.With("session_id", id),
		vars:    make(map[string]string),
		version: state.Version,
	}, nil
}
