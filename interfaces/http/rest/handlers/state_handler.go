package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	apphandlers "consultorio-backend/application/commands/handlers"
	"consultorio-backend/application/projections"
	"consultorio-backend/application/session"
	appsync "consultorio-backend/application/sync"
	"consultorio-backend/application/transfer"
	"consultorio-backend/pkg/common"
)

// StateHandler exposes the tracked dataset, derived statistics, sync
// controls and transfer endpoints
type StateHandler struct {
	snapshots *session.Store
	handlers  *apphandlers.Set
	sync      *appsync.Engine
	transfer  *transfer.Service
	logger    *zap.Logger
}

// NewStateHandler creates a state handler
func NewStateHandler(
	snapshots *session.Store,
	handlers *apphandlers.Set,
	syncEngine *appsync.Engine,
	transferService *transfer.Service,
	logger *zap.Logger,
) *StateHandler {
	return &StateHandler{
		snapshots: snapshots,
		handlers:  handlers,
		sync:      syncEngine,
		transfer:  transferService,
		logger:    logger,
	}
}

// GetState handles GET /api/v1/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	snapshot := h.snapshots.Current()
	common.RespondJSON(w, http.StatusOK, snapshot)
}

// GetStats handles GET /api/v1/stats
func (h *StateHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.snapshots.Current()
	stats := projections.ComputeStats(snapshot.Patients)
	common.RespondJSON(w, http.StatusOK, stats)
}

// SyncStatus handles GET /api/v1/sync/status
func (h *StateHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    h.sync.Status(),
		"sessionId": h.sync.SessionID(),
	})
}

// SyncPull handles POST /api/v1/sync/pull
func (h *StateHandler) SyncPull(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.Pull(r.Context()); err != nil {
		common.RespondAppError(w, err)
		return
	}

	snapshot := h.snapshots.Current()
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     h.sync.Status(),
		"lastUpdate": snapshot.LastUpdate,
	})
}

// ToggleDarkMode handles POST /api/v1/preferences/dark-mode/toggle
func (h *StateHandler) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.handlers.ToggleDarkMode.Handle(r.Context(), commands.ToggleDarkModeCommand{})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"darkMode":   snapshot.DarkMode,
		"lastUpdate": snapshot.LastUpdate,
	})
}

// Export handles GET /api/v1/export
func (h *StateHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("patients-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.transfer.Export(r.Context(), w); err != nil {
		h.logger.Error("Export failed", zap.Error(err))
	}
}

// Import handles POST /api/v1/import
func (h *StateHandler) Import(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.transfer.Import(r.Context(), r.Body)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"imported":   len(snapshot.Patients),
		"lastUpdate": snapshot.LastUpdate,
	})
}
