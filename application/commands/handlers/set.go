package handlers

import (
	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/validators"
)

// Set bundles every command handler for wiring into the HTTP layer
type Set struct {
	AddPatient    *AddPatientHandler
	DeletePatient *DeletePatientHandler

	AddAttendance       *AddAttendanceHandler
	DeleteAttendance    *DeleteAttendanceHandler
	AdvanceAttendance   *AdvanceAttendanceHandler
	SetAttendanceStatus *SetAttendanceStatusHandler
	SetAttendanceAmount *SetAttendanceAmountHandler
	SetAttendanceDate   *SetAttendanceDateHandler
	TogglePaid          *TogglePaidHandler

	ToggleDarkMode *ToggleDarkModeHandler
}

// NewSet wires all handlers against the shared session store and sync outbox
func NewSet(
	snapshots *session.Store,
	outbox ports.SyncOutbox,
	validator *validators.PatientValidator,
	logger *zap.Logger,
) *Set {
	return &Set{
		AddPatient:    NewAddPatientHandler(snapshots, outbox, validator, logger),
		DeletePatient: NewDeletePatientHandler(snapshots, outbox, logger),

		AddAttendance:       NewAddAttendanceHandler(snapshots, outbox, logger),
		DeleteAttendance:    NewDeleteAttendanceHandler(snapshots, outbox, logger),
		AdvanceAttendance:   NewAdvanceAttendanceHandler(snapshots, outbox, logger),
		SetAttendanceStatus: NewSetAttendanceStatusHandler(snapshots, outbox, logger),
		SetAttendanceAmount: NewSetAttendanceAmountHandler(snapshots, outbox, logger),
		SetAttendanceDate:   NewSetAttendanceDateHandler(snapshots, outbox, logger),
		TogglePaid:          NewTogglePaidHandler(snapshots, outbox, logger),

		ToggleDarkMode: NewToggleDarkModeHandler(snapshots, logger),
	}
}
