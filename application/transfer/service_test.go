package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/validators"
	pkgerrors "consultorio-backend/pkg/errors"
)

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

type recordingPusher struct {
	pushed []aggregates.Snapshot
}

func (p *recordingPusher) PushAll(snapshot aggregates.Snapshot) {
	p.pushed = append(p.pushed, snapshot)
}

func newTestService(t *testing.T) (*Service, *session.Store, *recordingPusher) {
	t.Helper()
	store := session.NewStore(&memCache{}, zap.NewNop())
	pusher := &recordingPusher{}
	svc := NewService(store, validators.NewPatientValidator(), pusher, zap.NewNop())
	return svc, store, pusher
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

func TestService_ExportImportRoundTrip(t *testing.T) {
	svc, store, pusher := newTestService(t)
	ana := seedPatient(t, store, "Ana")
	seedPatient(t, store, "Luis")

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	// The export is a flat JSON patient array
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Len(t, raw, 2)

	// Import into a fresh store restores the full dataset and pushes it
	svc2, store2, pusher2 := newTestService(t)
	snapshot, err := svc2.Import(context.Background(), &buf)
	require.NoError(t, err)

	assert.Len(t, snapshot.Patients, 2)
	assert.NotNil(t, store2.Current().Patient(ana.ID))
	assert.Len(t, store2.Current().Patient(ana.ID).Attendance, 1)
	require.Len(t, pusher2.pushed, 1)
	assert.Len(t, pusher2.pushed[0].Patients, 2)

	assert.Empty(t, pusher.pushed)
}

func TestService_ImportReplacesWholeDataset(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedPatient(t, store, "Ana")

	other, err := entities.NewPatient("Marta", "", "", "")
	require.NoError(t, err)
	data, err := json.Marshal([]entities.Patient{*other})
	require.NoError(t, err)

	snapshot, err := svc.Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, snapshot.Patients, 1)
	assert.Equal(t, other.ID, snapshot.Patients[0].ID)
}

func TestService_ImportRejectsMalformedPayload(t *testing.T) {
	svc, store, pusher := newTestService(t)
	seedPatient(t, store, "Ana")

	_, err := svc.Import(context.Background(), strings.NewReader(`{"not":"an array"}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	// A rejected import leaves the snapshot untouched and pushes nothing
	assert.Len(t, store.Current().Patients, 1)
	assert.Empty(t, pusher.pushed)
}

func TestService_ImportRejectsDuplicateIDs(t *testing.T) {
	svc, store, pusher := newTestService(t)

	p, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	data, err := json.Marshal([]entities.Patient{*p, *p})
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))
	assert.True(t, store.Current().IsEmpty())
	assert.Empty(t, pusher.pushed)
}
