package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
)

// memCache is an in-memory SnapshotCache for tests
type memCache struct {
	mu       sync.Mutex
	snapshot aggregates.Snapshot
	written  bool
	failNext bool
	writes   int
}

func (c *memCache) Write(ctx context.Context, snapshot aggregates.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return errors.New("disk full")
	}
	c.snapshot = snapshot.Clone()
	c.written = true
	c.writes++
	return nil
}

func (c *memCache) Read(ctx context.Context) (aggregates.Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.written {
		return aggregates.NewSnapshot(), false, nil
	}
	return c.snapshot.Clone(), true, nil
}

func newPatient(t *testing.T, name string) entities.Patient {
	t.Helper()
	p, err := entities.NewPatient(name, "", "", "")
	require.NoError(t, err)
	return *p
}

func TestStore_LoadFirstLaunch(t *testing.T) {
	store := NewStore(&memCache{}, zap.NewNop())
	store.Load(context.Background())

	assert.True(t, store.Current().IsEmpty())
}

func TestStore_LoadRestoresCachedSnapshot(t *testing.T) {
	cache := &memCache{}
	snapshot := aggregates.NewSnapshot()
	snapshot.AddPatient(newPatient(t, "Ana"))
	require.NoError(t, cache.Write(context.Background(), snapshot))

	store := NewStore(cache, zap.NewNop())
	store.Load(context.Background())

	assert.Len(t, store.Current().Patients, 1)
}

func TestStore_UpdateCommitsAndPersists(t *testing.T) {
	cache := &memCache{}
	store := NewStore(cache, zap.NewNop())
	ctx := context.Background()

	snapshot, err := store.Update(ctx, func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, snapshot.Patients, 1)
	assert.False(t, snapshot.LastUpdate.IsZero())
	assert.Len(t, store.Current().Patients, 1)

	persisted, ok, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, persisted.Patients, 1)
}

func TestStore_FailedUpdateLeavesSnapshotUntouched(t *testing.T) {
	cache := &memCache{}
	store := NewStore(cache, zap.NewNop())
	ctx := context.Background()

	_, err := store.Update(ctx, func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	snapshot, err := store.Update(ctx, func(s *aggregates.Snapshot) error {
		s.Patients = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, snapshot.Patients, 1)
	assert.Len(t, store.Current().Patients, 1)
	assert.Equal(t, 1, cache.writes)
}

func TestStore_PersistenceFailureKeepsCommit(t *testing.T) {
	cache := &memCache{failNext: true}
	store := NewStore(cache, zap.NewNop())

	_, err := store.Update(context.Background(), func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	// Write failed but the in-memory snapshot keeps the change
	assert.Len(t, store.Current().Patients, 1)
}

func TestStore_CurrentReturnsIndependentCopy(t *testing.T) {
	store := NewStore(&memCache{}, zap.NewNop())
	_, err := store.Update(context.Background(), func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	got := store.Current()
	got.Patients[0].Name = "changed"

	assert.Equal(t, "Ana", store.Current().Patients[0].Name)
}

func TestStore_ListenersObserveCommits(t *testing.T) {
	store := NewStore(&memCache{}, zap.NewNop())

	var seen []int
	store.Subscribe(func(s aggregates.Snapshot) {
		seen = append(seen, len(s.Patients))
	})

	ctx := context.Background()
	_, err := store.Update(ctx, func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	// Failed mutation must not broadcast
	_, err = store.Update(ctx, func(s *aggregates.Snapshot) error {
		return errors.New("rejected")
	})
	require.Error(t, err)

	store.Replace(ctx, aggregates.NewSnapshot())

	assert.Equal(t, []int{1, 0}, seen)
}

func TestStore_ReplaceSwapsWholeSnapshot(t *testing.T) {
	store := NewStore(&memCache{}, zap.NewNop())
	ctx := context.Background()

	_, err := store.Update(ctx, func(s *aggregates.Snapshot) error {
		s.AddPatient(newPatient(t, "Ana"))
		return nil
	})
	require.NoError(t, err)

	next := aggregates.NewSnapshot()
	next.AddPatient(newPatient(t, "Luis"))
	next.AddPatient(newPatient(t, "Marta"))

	replaced := store.Replace(ctx, next)
	assert.Len(t, replaced.Patients, 2)
	assert.Len(t, store.Current().Patients, 2)
	assert.Equal(t, "Luis", store.Current().Patients[0].Name)
}
