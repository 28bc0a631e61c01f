package handlers

import (
	"context"

	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
	pkgerrors "consultorio-backend/pkg/errors"
)

// mutateRecord applies fn to one attendance record inside the serialization
// point and returns the committed record copy for the remote push
func mutateRecord(
	ctx context.Context,
	snapshots *session.Store,
	patientID valueobjects.PatientID,
	recordID valueobjects.RecordID,
	fn func(*entities.AttendanceRecord) error,
) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	var updated entities.AttendanceRecord
	snapshot, err := snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		patient := s.Patient(patientID)
		if patient == nil {
			return pkgerrors.NewNotFoundError("patient")
		}
		record := patient.Record(recordID)
		if record == nil {
			return pkgerrors.NewNotFoundError("attendance record")
		}
		if err := fn(record); err != nil {
			return err
		}
		patient.Touch()
		updated = record.Clone()
		return nil
	})
	return updated, snapshot, err
}

// AddAttendanceHandler handles the AddAttendanceCommand
type AddAttendanceHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewAddAttendanceHandler creates a new handler instance
func NewAddAttendanceHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *AddAttendanceHandler {
	return &AddAttendanceHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle appends a record with the default state: unset, zero amount, unpaid,
// dated now
func (h *AddAttendanceHandler) Handle(ctx context.Context, cmd commands.AddAttendanceCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	var created entities.AttendanceRecord
	snapshot, err := h.snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		patient := s.Patient(patientID)
		if patient == nil {
			return pkgerrors.NewNotFoundError("patient")
		}
		created = patient.AddRecord()
		return nil
	})
	if err != nil {
		return entities.AttendanceRecord{}, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, created.Clone())
	return created, snapshot, nil
}

// DeleteAttendanceHandler handles the DeleteAttendanceCommand
type DeleteAttendanceHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewDeleteAttendanceHandler creates a new handler instance
func NewDeleteAttendanceHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *DeleteAttendanceHandler {
	return &DeleteAttendanceHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle removes one attendance record
func (h *DeleteAttendanceHandler) Handle(ctx context.Context, cmd commands.DeleteAttendanceCommand) (aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	recordID := valueobjects.RecordID(cmd.RecordID)
	snapshot, err := h.snapshots.Update(ctx, func(s *aggregates.Snapshot) error {
		patient := s.Patient(patientID)
		if patient == nil {
			return pkgerrors.NewNotFoundError("patient")
		}
		if !patient.RemoveRecord(recordID) {
			return pkgerrors.NewNotFoundError("attendance record")
		}
		return nil
	})
	if err != nil {
		return snapshot, err
	}

	h.outbox.EnqueueDeleteAttendance(recordID)
	return snapshot, nil
}

// AdvanceAttendanceHandler handles the AdvanceAttendanceCommand, the only
// status operation the UI actually exposes
type AdvanceAttendanceHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewAdvanceAttendanceHandler creates a new handler instance
func NewAdvanceAttendanceHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *AdvanceAttendanceHandler {
	return &AdvanceAttendanceHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle moves the record one step along the status cycle
func (h *AdvanceAttendanceHandler) Handle(ctx context.Context, cmd commands.AdvanceAttendanceCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	updated, snapshot, err := mutateRecord(ctx, h.snapshots, patientID, valueobjects.RecordID(cmd.RecordID),
		func(r *entities.AttendanceRecord) error {
			r.Advance()
			return nil
		})
	if err != nil {
		return updated, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, updated)
	return updated, snapshot, nil
}

// SetAttendanceStatusHandler handles the SetAttendanceStatusCommand
type SetAttendanceStatusHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewSetAttendanceStatusHandler creates a new handler instance
func NewSetAttendanceStatusHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *SetAttendanceStatusHandler {
	return &SetAttendanceStatusHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle assigns a status directly
func (h *SetAttendanceStatusHandler) Handle(ctx context.Context, cmd commands.SetAttendanceStatusCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}
	status, err := valueobjects.ParseStatus(cmd.Status)
	if err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), pkgerrors.NewValidationError(err.Error()).WithField("status")
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	updated, snapshot, err := mutateRecord(ctx, h.snapshots, patientID, valueobjects.RecordID(cmd.RecordID),
		func(r *entities.AttendanceRecord) error {
			return r.SetStatus(status)
		})
	if err != nil {
		return updated, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, updated)
	return updated, snapshot, nil
}

// SetAttendanceAmountHandler handles the SetAttendanceAmountCommand
type SetAttendanceAmountHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewSetAttendanceAmountHandler creates a new handler instance
func NewSetAttendanceAmountHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *SetAttendanceAmountHandler {
	return &SetAttendanceAmountHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle assigns the billed amount
func (h *SetAttendanceAmountHandler) Handle(ctx context.Context, cmd commands.SetAttendanceAmountCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	updated, snapshot, err := mutateRecord(ctx, h.snapshots, patientID, valueobjects.RecordID(cmd.RecordID),
		func(r *entities.AttendanceRecord) error {
			return r.SetAmount(cmd.Amount)
		})
	if err != nil {
		return updated, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, updated)
	return updated, snapshot, nil
}

// SetAttendanceDateHandler handles the SetAttendanceDateCommand
type SetAttendanceDateHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewSetAttendanceDateHandler creates a new handler instance
func NewSetAttendanceDateHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *SetAttendanceDateHandler {
	return &SetAttendanceDateHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle reassigns the session date
func (h *SetAttendanceDateHandler) Handle(ctx context.Context, cmd commands.SetAttendanceDateCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	updated, snapshot, err := mutateRecord(ctx, h.snapshots, patientID, valueobjects.RecordID(cmd.RecordID),
		func(r *entities.AttendanceRecord) error {
			r.SetDate(cmd.Date)
			return nil
		})
	if err != nil {
		return updated, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, updated)
	return updated, snapshot, nil
}

// TogglePaidHandler handles the TogglePaidCommand
type TogglePaidHandler struct {
	snapshots *session.Store
	outbox    ports.SyncOutbox
	logger    *zap.Logger
}

// NewTogglePaidHandler creates a new handler instance
func NewTogglePaidHandler(snapshots *session.Store, outbox ports.SyncOutbox, logger *zap.Logger) *TogglePaidHandler {
	return &TogglePaidHandler{snapshots: snapshots, outbox: outbox, logger: logger}
}

// Handle flips the payment flag
func (h *TogglePaidHandler) Handle(ctx context.Context, cmd commands.TogglePaidCommand) (entities.AttendanceRecord, aggregates.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return entities.AttendanceRecord{}, h.snapshots.Current(), err
	}

	patientID := valueobjects.PatientID(cmd.PatientID)
	updated, snapshot, err := mutateRecord(ctx, h.snapshots, patientID, valueobjects.RecordID(cmd.RecordID),
		func(r *entities.AttendanceRecord) error {
			r.TogglePaid()
			return nil
		})
	if err != nil {
		return updated, snapshot, err
	}

	h.outbox.EnqueueUpsertAttendance(patientID, updated)
	return updated, snapshot, nil
}
