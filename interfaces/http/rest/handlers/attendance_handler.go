package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	apphandlers "consultorio-backend/application/commands/handlers"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/pkg/common"
	pkgerrors "consultorio-backend/pkg/errors"
)

// AttendanceHandler exposes attendance record operations over HTTP
type AttendanceHandler struct {
	handlers *apphandlers.Set
	logger   *zap.Logger
}

// NewAttendanceHandler creates an attendance handler
func NewAttendanceHandler(handlers *apphandlers.Set, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		handlers: handlers,
		logger:   logger,
	}
}

// Create handles POST /api/v1/patients/{patientID}/attendance
func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	cmd := commands.AddAttendanceCommand{
		PatientID: chi.URLParam(r, "patientID"),
	}

	record, snapshot, err := h.handlers.AddAttendance.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusCreated, record, snapshot)
}

// Delete handles DELETE /api/v1/patients/{patientID}/attendance/{recordID}
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteAttendanceCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
	}

	snapshot, err := h.handlers.DeleteAttendance.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":    cmd.RecordID,
		"lastUpdate": snapshot.LastUpdate,
	})
}

// Advance handles POST /api/v1/patients/{patientID}/attendance/{recordID}/advance
func (h *AttendanceHandler) Advance(w http.ResponseWriter, r *http.Request) {
	cmd := commands.AdvanceAttendanceCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
	}

	record, snapshot, err := h.handlers.AdvanceAttendance.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusOK, record, snapshot)
}

// SetStatus handles PUT /api/v1/patients/{patientID}/attendance/{recordID}/status
func (h *AttendanceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	cmd := commands.SetAttendanceStatusCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
		Status:    body.Status,
	}

	record, snapshot, err := h.handlers.SetAttendanceStatus.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusOK, record, snapshot)
}

// SetAmount handles PUT /api/v1/patients/{patientID}/attendance/{recordID}/amount
func (h *AttendanceHandler) SetAmount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	cmd := commands.SetAttendanceAmountCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
		Amount:    body.Amount,
	}

	record, snapshot, err := h.handlers.SetAttendanceAmount.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusOK, record, snapshot)
}

// SetDate handles PUT /api/v1/patients/{patientID}/attendance/{recordID}/date
func (h *AttendanceHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date time.Time `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	cmd := commands.SetAttendanceDateCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
		Date:      body.Date,
	}

	record, snapshot, err := h.handlers.SetAttendanceDate.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusOK, record, snapshot)
}

// TogglePaid handles POST /api/v1/patients/{patientID}/attendance/{recordID}/paid/toggle
func (h *AttendanceHandler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	cmd := commands.TogglePaidCommand{
		PatientID: chi.URLParam(r, "patientID"),
		RecordID:  chi.URLParam(r, "recordID"),
	}

	record, snapshot, err := h.handlers.TogglePaid.Handle(r.Context(), cmd)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	respondRecord(w, http.StatusOK, record, snapshot)
}

func respondRecord(w http.ResponseWriter, status int, record entities.AttendanceRecord, snapshot aggregates.Snapshot) {
	common.RespondJSON(w, status, map[string]interface{}{
		"record":     record,
		"lastUpdate": snapshot.LastUpdate,
	})
}
