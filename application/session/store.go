package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	"consultorio-backend/domain/core/aggregates"
)

// Listener observes committed snapshots, e.g. to push a re-render
type Listener func(aggregates.Snapshot)

// Store owns the current snapshot. All mutation funnels through one mutex:
// UI intents and remote-notification adoptions are serialized against each
// other, so no mutation ever observes a half-applied snapshot. Inside the
// critical section the order is fixed: derive next snapshot, persist to the
// local cache, broadcast.
type Store struct {
	mu        sync.Mutex
	current   aggregates.Snapshot
	cache     ports.SnapshotCache
	logger    *zap.Logger
	listeners []Listener
}

// NewStore creates a store holding the empty snapshot
func NewStore(cache ports.SnapshotCache, logger *zap.Logger) *Store {
	return &Store{
		current: aggregates.NewSnapshot(),
		cache:   cache,
		logger:  logger,
	}
}

// Load initializes the store from the local cache. Absent or unreadable cache
// content starts an empty snapshot; that is the first-launch path, not an
// error the caller has to handle.
func (s *Store) Load(ctx context.Context) {
	snapshot, ok, err := s.cache.Read(ctx)
	if err != nil {
		s.logger.Warn("Local cache unreadable, starting empty", zap.Error(err))
		return
	}
	if !ok {
		s.logger.Info("No cached snapshot, starting empty")
		return
	}

	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()

	s.logger.Info("Snapshot restored from local cache",
		zap.Int("patients", len(snapshot.Patients)),
	)
}

// Current returns a deep copy of the committed snapshot
func (s *Store) Current() aggregates.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Update derives the next snapshot by applying fn to a deep copy of the
// current one, commits it, persists it and notifies listeners. When fn
// returns an error nothing is committed and the previous snapshot stays
// untouched. The returned snapshot is the caller's to render from.
func (s *Store) Update(ctx context.Context, fn func(*aggregates.Snapshot) error) (aggregates.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return s.current.Clone(), err
	}
	next.LastUpdate = time.Now().UTC()

	s.commitLocked(ctx, next)
	return next.Clone(), nil
}

// Replace swaps in a whole snapshot, used for remote adoption and import
func (s *Store) Replace(ctx context.Context, snapshot aggregates.Snapshot) aggregates.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshot.Clone()
	next.LastUpdate = time.Now().UTC()

	s.commitLocked(ctx, next)
	return next.Clone()
}

// Subscribe registers a listener for committed snapshots. Listeners are
// invoked synchronously inside the serialization point and must be fast.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// commitLocked installs the snapshot, persists and broadcasts. Persistence
// failures are logged and swallowed: the UI must not block on durability.
func (s *Store) commitLocked(ctx context.Context, next aggregates.Snapshot) {
	s.current = next

	if err := s.cache.Write(ctx, next); err != nil {
		s.logger.Error("Local cache write failed, snapshot kept in memory", zap.Error(err))
	}

	for _, l := range s.listeners {
		l(next.Clone())
	}
}
