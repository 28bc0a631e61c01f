package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"consultorio-backend/domain/core/valueobjects"
	pkgerrors "consultorio-backend/pkg/errors"
)

// AttendanceRecord is a single attendance session of a patient. Records are
// owned exclusively by their parent patient: deleting the patient deletes all
// of its records, and a record never references more than one patient.
type AttendanceRecord struct {
	ID        valueobjects.RecordID `json:"id"`
	Date      time.Time             `json:"date"`
	Status    valueobjects.Status   `json:"status"`
	Amount    decimal.Decimal       `json:"amount"`
	Paid      bool                  `json:"paid"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// NewAttendanceRecord creates a record with the default initial state:
// unset status, zero amount, unpaid, dated now.
func NewAttendanceRecord() AttendanceRecord {
	now := time.Now().UTC()
	return AttendanceRecord{
		ID:        valueobjects.NewRecordID(),
		Date:      now,
		Status:    valueobjects.StatusUnset,
		Amount:    decimal.Zero,
		Paid:      false,
		UpdatedAt: now,
	}
}

// Advance moves the status one step along the attendance cycle
func (r *AttendanceRecord) Advance() {
	r.Status = r.Status.Next()
	r.touch()
}

// SetStatus assigns a status directly. The cycle only constrains Advance;
// direct assignment to any known state is allowed.
func (r *AttendanceRecord) SetStatus(s valueobjects.Status) error {
	if !s.IsValid() {
		return pkgerrors.NewValidationError("unknown attendance status").WithField("status")
	}
	r.Status = s
	r.touch()
	return nil
}

// SetAmount assigns the billed amount. Zero means no charge.
func (r *AttendanceRecord) SetAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.NewValidationError("amount cannot be negative").WithField("amount")
	}
	r.Amount = amount
	r.touch()
	return nil
}

// SetDate reassigns the session date. Dates are user editable and may be out
// of insertion order.
func (r *AttendanceRecord) SetDate(date time.Time) {
	r.Date = date
	r.touch()
}

// TogglePaid flips the payment flag. paid=true with a zero amount is legal
// but vacuous in aggregation.
func (r *AttendanceRecord) TogglePaid() {
	r.Paid = !r.Paid
	r.touch()
}

// Billable reports whether the record carries a charge
func (r AttendanceRecord) Billable() bool {
	return r.Amount.IsPositive()
}

// Clone returns an independent copy of the record
func (r AttendanceRecord) Clone() AttendanceRecord {
	// decimal.Decimal is immutable, a shallow copy is a deep copy
	return r
}

func (r *AttendanceRecord) touch() {
	r.UpdatedAt = time.Now().UTC()
}
