package handlers

import (
	"context"

	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/validators"
	"consultorio-backend/domain/core/valueobjects"
	pkgerrors "consultorio-backend/pkg/errors"
)

// Every handler follows the same local-first flow: validate the command,
// derive the next snapshot through the session store (the serialization
// point), then enqueue the remote operation. The enqueue happens after the
// local commit on purpose: pushes are fire-and-forget relative to the UI.

// AddPatientHandler handles the AddPatientCommand
type AddPatientHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	validator *validators.PatientValidator
	logger    *zap.Logger
}

// NewAddPatientHandler creates a new handler instance
func NewAddPatientHandler(
	snapshots *session.Store,
	outbox ports.SyncOutbox,
	validator *validators.PatientValidator,
	logger *zap.Logger,
) *AddPatientHandler {
	return &AddPatientHandler{
		snapshots: snapshots,
		outbox:    outbox,
		validator: validator,
		logger:    logger,
	}
}

// Handle executes the add patient command and returns the created patient
// together with the snapshot to render from
func (h *AddPatientHandler) Handle(ctx context.Context, cmd commands.AddPatientCommand) (entities.Patient, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.Patient{}, h.snapshots.Current(), err
	}

	patient, err := entities.NewPatient(cmd.Name, cmd.Phone, cmd.Email, cmd.Notes)
	if err != nil {
		return entities.Patient{}, h.snapshots.Current(), err
	}
	if err := h.validator.ValidatePatient(patient); err != nil {
		return entities.Patient{}, h.snapshots.Current(), err
	}

	snapshot, err := h.snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		s.AddPatient(patient.Clone())
		return nil
	})
	if err != nil {
		return entities.Patient{}, snapshot, err
	}

	h.outbox.EnqueueUpsertPatient(patient.Clone())
	h.logger.Info("Patient added",
		zap.String("patientID", patient.ID.String()),
	)
	return patient.Clone(), snapshot, nil
}

// DeletePatientHandler handles the DeletePatientCommand
type DeletePatientHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewDeletePatientHandler creates a new handler instance
func NewDeletePatientHandler(
	snapshots *session.Store,
	outbox ports.SyncOutbox,
	logger *zap.Logger,
) *DeletePatientHandler {
	return &DeletePatientHandler{
		snapshots: snapshots,
		outbox:    outbox,
		logger:    logger,
	}
}

// Handle executes the delete patient command. Deleting a patient cascades to
// all of its attendance records, locally and remotely.
func (h *DeletePatientHandler) Handle(ctx context.Context, cmd commands.DeletePatientCommand) (aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	snapshot, err := h.snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		if !s.RemovePatient(patientID) {
			return pkgerrors.NewNotFoundError("patient")
		}
		return nil
	})
	if err != nil {
		return snapshot, err
	}

	h.outbox.EnqueueDeletePatient(patientID)
	h.logger.Info("Patient deleted",
		zap.String("patientID", patientID.String()),
	)
	return snapshot, nil
}
