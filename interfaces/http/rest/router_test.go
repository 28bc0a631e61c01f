package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apphandlers "consultorio-backend/application/commands/handlers"
	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	appsync "consultorio-backend/application/sync"
	"consultorio-backend/application/transfer"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/validators"
	"consultorio-backend/domain/core/valueobjects"
	"consultorio-backend/infrastructure/config"
	"consultorio-backend/pkg/observability"
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

type stubRemote struct{}

func (stubRemote) ListAll(ctx context.Context) (ports.RemoteSnapshot, error) {
	return ports.RemoteSnapshot{}, nil
}
func (stubRemote) UpsertPatient(ctx context.Context, patient entities.Patient) error { return nil }
func (stubRemote) DeletePatient(ctx context.Context, id valueobjects.PatientID) error {
	return nil
}
func (stubRemote) UpsertAttendance(ctx context.Context, patientID valueobjects.PatientID, record entities.AttendanceRecord) error {
	return nil
}
func (stubRemote) DeleteAttendance(ctx context.Context, id valueobjects.RecordID) error {
	return nil
}

type stubFeed struct{}

func (stubFeed) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	return make(chan ports.ChangeEvent), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewCollector("test")
	store := session.NewStore(&memCache{}, logger)
	engine := appsync.NewEngine(stubRemote{}, stubFeed{}, store, "session-test", 16, time.Second, metrics, logger)
	validator := validators.NewPatientValidator()
	handlerSet := apphandlers.NewSet(store, engine, validator, logger)
	transferSvc := transfer.NewService(store, validator, engine, logger)

	cfg := &config.Config{
		Environment: "test",
		EnableCORS:  false,
	}
	router := NewRouter(cfg, store, handlerSet, engine, transferSvc, metrics, logger)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_PatientLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/patients", `{"name":"Ana García"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	patient := data["patient"].(map[string]interface{})
	patientID := patient["id"].(string)
	require.NotEmpty(t, patientID)

	t.Run("state includes the patient", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/state", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snapshot := body["data"].(map[string]interface{})
		assert.Len(t, snapshot["patients"], 1)
	})

	t.Run("attendance record cycle", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/patients/"+patientID+"/attendance", "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		record := body["data"].(map[string]interface{})["record"].(map[string]interface{})
		recordID := record["id"].(string)
		assert.Equal(t, "unset", record["status"])

		base := srv.URL + "/api/v1/patients/" + patientID + "/attendance/" + recordID

		resp, body = doJSON(t, http.MethodPost, base+"/advance", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		record = body["data"].(map[string]interface{})["record"].(map[string]interface{})
		assert.Equal(t, "present", record["status"])

		resp, body = doJSON(t, http.MethodPut, base+"/amount", `{"amount":"150.50"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body = doJSON(t, http.MethodPost, base+"/paid/toggle", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		record = body["data"].(map[string]interface{})["record"].(map[string]interface{})
		assert.Equal(t, true, record["paid"])

		resp, _ = doJSON(t, http.MethodPut, base+"/status", `{"status":"vacation"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("stats reflect the data", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/stats", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stats := body["data"].(map[string]interface{})
		assert.EqualValues(t, 1, stats["totalPatients"])
		assert.EqualValues(t, 1, stats["totalAttendances"])
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/patients/"+patientID, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/patients/"+patientID+"?confirm=true", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/state", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snapshot := body["data"].(map[string]interface{})
		assert.Empty(t, snapshot["patients"])
	})
}

func TestRouter_DarkModeToggle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/preferences/dark-mode/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]interface{})["darkMode"])
}

func TestRouter_SyncStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "idle", data["status"])
	assert.Equal(t, "session-test", data["sessionId"])
}
