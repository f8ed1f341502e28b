package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrVersionConflict means the catalog changed between plan time and
	// commit time. Callers should re-plan against the new state rather than
	// retry blindly.
	ErrVersionConflict = errors.New("catalog: version conflict")
)

// Store is the persistence seam for catalog state. The mutator is a client
// of the store, not the storage engine itself.
type Store interface {
	// Snapshot returns the latest committed state. Callers must treat the
	// returned state as read-only.
	Snapshot(ctx context.Context) (*State, error)
	// CommitSwap installs next iff the committed version still equals
	// expected. On mismatch it fails with ErrVersionConflict and leaves the
	// committed state unchanged.
	CommitSwap(ctx context.Context, expected Version, next *State) (Version, error)
}

// MemoryStore keeps catalog state in memory behind a mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: NewState()}
}

func (s *MemoryStore) Snapshot(_ context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *MemoryStore) CommitSwap(_ context.Context, expected Version, next *State) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Version != expected {
		return s.state.Version, fmt.Errorf("%w: expected version %d, catalog at %d",
			ErrVersionConflict, expected, s.state.Version)
	}
	next.Version = expected + 1
	s.state = next
	return next.Version, nil
}

// Mutator is the sole authority for applying catalog mutations. Commits use
// optimistic concurrency: no locks are taken ahead of time, and a conflict
// is only detected at commit.
type Mutator struct {
	store Store
}

func NewMutator(store Store) *Mutator {
	return &Mutator{store: store}
}

// Snapshot exposes the store's latest committed state for planning reads.
func (m *Mutator) Snapshot(ctx context.Context) (*State, error) {
	return m.store.Snapshot(ctx)
}

// MutateAndCommit applies the batch as one atomic unit against the state at
// expected and commits the result. Either every mutation applies and the
// returned version is expected+1, or nothing is applied.
func (m *Mutator) MutateAndCommit(ctx context.Context, expected Version, mutations []Mutation) (Version, error) {
	current, err := m.store.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: snapshot: %w", err)
	}
	if current.Version != expected {
		return 0, fmt.Errorf("%w: expected version %d, catalog at %d",
			ErrVersionConflict, expected, current.Version)
	}

	// Stage the whole batch on a clone so a failing mutation mid-batch
	// leaves the committed state untouched.
	next := current.Clone()
	for _, mut := range mutations {
		if err := mut.apply(next); err != nil {
			return 0, err
		}
	}

	return m.store.CommitSwap(ctx, expected, next)
}
