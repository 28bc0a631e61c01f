package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
	"consultorio-backend/pkg/observability"
)

// fakeRemote is an in-memory RemoteStore recording every mutation
type fakeRemote struct {
	patients    map[valueobjects.PatientID]entities.Patient
	records     map[valueobjects.RecordID]entities.AttendanceRecord
	newest      time.Time
	failUpserts bool
	failList    bool
	upserts     int
	deletes     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		patients: make(map[valueobjects.PatientID]entities.Patient),
		records:  make(map[valueobjects.RecordID]entities.AttendanceRecord),
	}
}

func (f *fakeRemote) ListAll(ctx context.Context) (ports.RemoteSnapshot, error) {
	if f.failList {
		return ports.RemoteSnapshot{}, errors.New("remote unreachable")
	}
	patients := make([]entities.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		patients = append(patients, p.Clone())
	}
	return ports.RemoteSnapshot{Patients: patients, NewestUpdate: f.newest}, nil
}

func (f *fakeRemote) UpsertPatient(ctx context.Context, patient entities.Patient) error {
	if f.failUpserts {
		return errors.New("remote unreachable")
	}
	f.patients[patient.ID] = patient.Clone()
	f.upserts++
	return nil
}

func (f *fakeRemote) DeletePatient(ctx context.Context, id valueobjects.PatientID) error {
	delete(f.patients, id)
	f.deletes++
	return nil
}

func (f *fakeRemote) UpsertAttendance(ctx context.Context, patientID valueobjects.PatientID, record entities.AttendanceRecord) error {
	if f.failUpserts {
		return errors.New("remote unreachable")
	}
	f.records[record.ID] = record.Clone()
	f.upserts++
	return nil
}

func (f *fakeRemote) DeleteAttendance(ctx context.Context, id valueobjects.RecordID) error {
	delete(f.records, id)
	f.deletes++
	return nil
}

// fakeFeed delivers injected change events
type fakeFeed struct {
	events chan ports.ChangeEvent
}

func (f *fakeFeed) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	return f.events, nil
}

type memCache struct {
	snapshot aggregates.Snapshot
	written  bool
}

func (c *memCache) Write(ctx context.Context, snapshot aggregates.Snapshot) error {
	c.snapshot = snapshot.Clone()
	c.written = true
	return nil
}

func (c *memCache) Read(ctx context.Context) (aggregates.Snapshot, bool, error) {
	if !c.written {
		return aggregates.NewSnapshot(), false, nil
	}
	return c.snapshot.Clone(), true, nil
}

func newTestEngine(t *testing.T, remote *fakeRemote, queueSize int) (*Engine, *session.Store) {
	t.Helper()
	store := session.NewStore(&memCache{}, zap.NewNop())
	feed := &fakeFeed{events: make(chan ports.ChangeEvent, 8)}
	engine := NewEngine(
		remote,
		feed,
		store,
		"session-a",
		queueSize,
		time.Second,
		observability.NewCollector("test"),
		zap.NewNop(),
	)
	return engine, store
}

func seedPatient(t *testing.T, store *session.Store, name string) entities.Patient {
	t.Helper()
	p, err := entities.NewPatient(name, "", "", "")
	require.NoError(t, err)
	p.AddRecord()
	_, err = store.Update(context.Background(), func(s *aggregates.Snapshot) error {
		s.AddPatient(p.Clone())
		return nil
	})
	require.NoError(t, err)
	return *p
}

func TestEngine_PullAdoptsRemoteWhenLocalEmpty(t *testing.T) {
	remote := newFakeRemote()
	ana, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	remote.patients[ana.ID] = *ana
	remote.newest = time.Now().UTC()

	engine, store := newTestEngine(t, remote, 16)

	require.NoError(t, engine.Pull(context.Background()))

	current := store.Current()
	require.Len(t, current.Patients, 1)
	assert.Equal(t, ana.ID, current.Patients[0].ID)
	assert.Equal(t, StatusIdle, engine.Status())
}

func TestEngine_PullKeepsLocalAndPushesWholesale(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 64)
	ctx := context.Background()

	ana := seedPatient(t, store, "Ana")
	luis := seedPatient(t, store, "Luis")

	// Remote is stale: its newest update predates this session
	require.NoError(t, engine.Pull(ctx))
	engine.Flush(ctx)

	assert.Len(t, store.Current().Patients, 2)
	assert.Contains(t, remote.patients, ana.ID)
	assert.Contains(t, remote.patients, luis.ID)
	// One patient upsert plus one record upsert per patient
	assert.Equal(t, 4, remote.upserts)
	assert.Equal(t, StatusIdle, engine.Status())
}

func TestEngine_PullAdoptsFresherRemoteOverLocal(t *testing.T) {
	remote := newFakeRemote()
	marta, err := entities.NewPatient("Marta", "", "", "")
	require.NoError(t, err)
	remote.patients[marta.ID] = *marta
	remote.newest = time.Now().UTC().Add(time.Hour)

	engine, store := newTestEngine(t, remote, 16)
	seedPatient(t, store, "Ana")

	require.NoError(t, engine.Pull(context.Background()))

	current := store.Current()
	require.Len(t, current.Patients, 1)
	assert.Equal(t, marta.ID, current.Patients[0].ID)
}

func TestEngine_PullPreservesLocalDarkMode(t *testing.T) {
	remote := newFakeRemote()
	remote.newest = time.Now().UTC().Add(time.Hour)

	engine, store := newTestEngine(t, remote, 16)
	_, err := store.Update(context.Background(), func(s *aggregates.Snapshot) error {
		s.DarkMode = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, engine.Pull(context.Background()))

	assert.True(t, store.Current().DarkMode)
}

func TestEngine_PullFailureGoesOffline(t *testing.T) {
	remote := newFakeRemote()
	remote.failList = true

	engine, store := newTestEngine(t, remote, 16)
	seedPatient(t, store, "Ana")

	err := engine.Pull(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusOffline, engine.Status())
	// Local state is untouched by a failed pull
	assert.Len(t, store.Current().Patients, 1)
}

func TestEngine_PushFailureKeepsLocalChange(t *testing.T) {
	remote := newFakeRemote()
	remote.failUpserts = true

	engine, store := newTestEngine(t, remote, 16)
	ana := seedPatient(t, store, "Ana")

	engine.EnqueueUpsertPatient(ana)
	engine.Flush(context.Background())

	assert.Equal(t, StatusError, engine.Status())
	assert.NotContains(t, remote.patients, ana.ID)
	// The failed push is dropped, not retried, and local keeps the change
	assert.Len(t, store.Current().Patients, 1)

	engine.Flush(context.Background())
	assert.Zero(t, remote.upserts)
}

func TestEngine_DoublePushIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 16)
	ana := seedPatient(t, store, "Ana")

	engine.EnqueueUpsertPatient(ana)
	engine.EnqueueUpsertPatient(ana)
	engine.Flush(context.Background())

	assert.Len(t, remote.patients, 1)
	assert.Equal(t, 2, remote.upserts)
	assert.Equal(t, StatusIdle, engine.Status())
}

func TestEngine_DeleteCascadeReachesRemote(t *testing.T) {
	remote := newFakeRemote()
	engine, _ := newTestEngine(t, remote, 16)

	ana, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	remote.patients[ana.ID] = *ana

	engine.EnqueueDeletePatient(ana.ID)
	engine.Flush(context.Background())

	assert.NotContains(t, remote.patients, ana.ID)
	assert.Equal(t, 1, remote.deletes)
}

func TestEngine_FullQueueDropsOperation(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 1)
	ana := seedPatient(t, store, "Ana")

	engine.EnqueueUpsertPatient(ana)
	engine.EnqueueUpsertPatient(ana)

	assert.Equal(t, StatusError, engine.Status())

	engine.Flush(context.Background())
	assert.Equal(t, 1, remote.upserts)
}
