package commands

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"consultorio-backend/domain/core/entities"
	pkgerrors "consultorio-backend/pkg/errors"
)

// One command type per user intent. Commands are plain data: validation here
// is shape-level (required fields, uuid format, known enum values), the
// domain rules live in the entities and the patient validator.

var validate = validator.New()

func check(cmd interface{}) error {
	if err := validate.Struct(cmd); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return pkgerrors.NewValidationError("invalid command").WithField(errs[0].Field())
		}
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

// AddPatientCommand registers a new patient
type AddPatientCommand struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
	Email string `json:"email" validate:"omitempty,email"`
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// Validate checks the command shape
func (c AddPatientCommand) Validate() error { return check(c) }

// DeletePatientCommand removes a patient and cascades to all of its
// attendance records. Confirm must be set by the invoking collaborator;
// deletion never proceeds implicitly.
type DeletePatientCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	Confirm   bool   `json:"confirm" validate:"required"`
}

// Validate checks the command shape, including the confirmation flag
func (c DeletePatientCommand) Validate() error {
	if !c.Confirm {
		return pkgerrors.NewValidationError("patient deletion requires explicit confirmation").WithField("confirm")
	}
	return check(c)
}

// AddAttendanceCommand appends a new attendance record with default state
type AddAttendanceCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
}

// Validate checks the command shape
func (c AddAttendanceCommand) Validate() error { return check(c) }

// DeleteAttendanceCommand removes one attendance record
type DeleteAttendanceCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	RecordID  string `json:"recordId" validate:"required,uuid"`
}

// Validate checks the command shape
func (c DeleteAttendanceCommand) Validate() error { return check(c) }

// AdvanceAttendanceCommand moves a record one step along the status cycle
type AdvanceAttendanceCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	RecordID  string `json:"recordId" validate:"required,uuid"`
}

// Validate checks the command shape
func (c AdvanceAttendanceCommand) Validate() error { return check(c) }

// SetAttendanceStatusCommand assigns a status directly
type SetAttendanceStatusCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	RecordID  string `json:"recordId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=present absent holiday my_absence unset"`
}

// Validate checks the command shape
func (c SetAttendanceStatusCommand) Validate() error { return check(c) }

// SetAttendanceAmountCommand assigns the billed amount of a record
type SetAttendanceAmountCommand struct {
	PatientID string          `json:"patientId" validate:"required,uuid"`
	RecordID  string          `json:"recordId" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
}

// Validate checks the command shape and that the amount is not negative
func (c SetAttendanceAmountCommand) Validate() error {
	if err := check(c); err != nil {
		return err
	}
	if c.Amount.IsNegative() {
		return pkgerrors.NewValidationError("amount cannot be negative").WithField("amount")
	}
	return nil
}

// SetAttendanceDateCommand reassigns the session date of a record
type SetAttendanceDateCommand struct {
	PatientID string    `json:"patientId" validate:"required,uuid"`
	RecordID  string    `json:"recordId" validate:"required,uuid"`
	Date      time.Time `json:"date" validate:"required"`
}

// Validate checks the command shape
func (c SetAttendanceDateCommand) Validate() error { return check(c) }

// TogglePaidCommand flips a record's payment flag
type TogglePaidCommand struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	RecordID  string `json:"recordId" validate:"required,uuid"`
}

// Validate checks the command shape
func (c TogglePaidCommand) Validate() error { return check(c) }

// ToggleDarkModeCommand flips the display preference. Dark mode is a local
// preference: it persists in the snapshot but is never pushed to the remote
// store.
type ToggleDarkModeCommand struct{}

// Validate always succeeds, the command carries no payload
func (c ToggleDarkModeCommand) Validate() error { return nil }

// ImportPatientsCommand replaces the entire patient list from a transfer file
type ImportPatientsCommand struct {
	Patients []entities.Patient `json:"patients"`
}

// Validate checks the command shape; per-patient rules run in the handler
func (c ImportPatientsCommand) Validate() error {
	if c.Patients == nil {
		return pkgerrors.NewValidationError("patients payload is required").WithField("patients")
	}
	return nil
}
