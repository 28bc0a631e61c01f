package validators

import (
	"github.com/go-playground/validator/v10"

	"consultorio-backend/domain/core/entities"
	pkgerrors "consultorio-backend/pkg/errors"
)

// PatientValidator validates patient-related domain rules. It is pure: no
// I/O, no side effects, and a failed validation leaves the snapshot untouched.
type PatientValidator struct {
	validate *validator.Validate
}

// NewPatientValidator creates a validator with the default rules
func NewPatientValidator() *PatientValidator {
	return &PatientValidator{validate: validator.New()}
}

// ValidatePatient checks a fully constructed patient, including entities that
// arrive from import files or the remote store rather than local constructors.
func (v *PatientValidator) ValidatePatient(p *entities.Patient) error {
	if p == nil {
		return pkgerrors.NewValidationError("patient is required")
	}
	if err := v.validate.Var(p.ID.String(), "required,uuid"); err != nil {
		return pkgerrors.NewValidationError("patient ID must be a UUID").WithField("id")
	}
	if err := v.validate.Var(p.Name, "required,min=1,max=200"); err != nil {
		return pkgerrors.NewValidationError("name must be between 1 and 200 characters").WithField("name")
	}
	if err := v.validate.Var(p.Email, "omitempty,email"); err != nil {
		return pkgerrors.NewValidationError("email is malformed").WithField("email")
	}
	if err := v.validate.Var(p.Phone, "omitempty,max=50"); err != nil {
		return pkgerrors.NewValidationError("phone is too long").WithField("phone")
	}

	seen := make(map[string]struct{}, len(p.Attendance))
	for i := range p.Attendance {
		record := &p.Attendance[i]
		if err := v.validate.Var(record.ID.String(), "required,uuid"); err != nil {
			return pkgerrors.NewValidationError("attendance record ID must be a UUID").WithField("attendance.id")
		}
		if _, dup := seen[record.ID.String()]; dup {
			return pkgerrors.NewConflictError("duplicate attendance record ID").WithField("attendance.id")
		}
		seen[record.ID.String()] = struct{}{}
		if !record.Status.IsValid() {
			return pkgerrors.NewValidationError("unknown attendance status").WithField("attendance.status")
		}
		if record.Amount.IsNegative() {
			return pkgerrors.NewValidationError("amount cannot be negative").WithField("attendance.amount")
		}
	}
	return nil
}

// ValidatePatients validates a whole list, as imported from a transfer file
func (v *PatientValidator) ValidatePatients(patients []entities.Patient) error {
	ids := make(map[string]struct{}, len(patients))
	for i := range patients {
		if err := v.ValidatePatient(&patients[i]); err != nil {
			return err
		}
		if _, dup := ids[patients[i].ID.String()]; dup {
			return pkgerrors.NewConflictError("duplicate patient ID").WithField("id")
		}
		ids[patients[i].ID.String()] = struct{}{}
	}
	return nil
}
