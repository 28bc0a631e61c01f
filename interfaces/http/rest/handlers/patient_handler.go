package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	apphandlers "consultorio-backend/application/commands/handlers"
	"consultorio-backend/pkg/common"
	pkgerrors "consultorio-backend/pkg/errors"
)

// PatientHandler exposes patient lifecycle operations over HTTP
type PatientHandler struct {
	handlers *apphandlers.Set
	logger   *zap.Logger
}

// NewPatientHandler creates a patient handler
func NewPatientHandler(handlers *apphandlers.Set, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{
		handlers: handlers,
		logger:   logger,
	}
}

// Create handles POST /api/v1/patients
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddPatientCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	patient, snapshot, err := h.handlers.AddPatient.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"patient":    patient,
		"lastUpdate": snapshot.LastUpdate,
	})
}

// Delete handles DELETE /api/v1/patients/{patientID}
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeletePatientCommand{
		PatientID: chi.URLParam(r, "patientID"),
		Confirm:   r.URL.Query().Get("confirm") == "true",
	}

	snapshot, err := h.handlers.DeletePatient.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":    cmd.PatientID,
		"lastUpdate": snapshot.LastUpdate,
	})
}
