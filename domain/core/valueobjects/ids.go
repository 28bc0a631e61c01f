package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// PatientID is a value object identifying a patient. IDs are immutable and
// globally unique once assigned.
type PatientID string

// NewPatientID creates a new random PatientID
func NewPatientID() PatientID {
	return PatientID(uuid.New().String())
}

// ParsePatientID creates a PatientID from an existing string
func ParsePatientID(raw string) (PatientID, error) {
	if raw == "" {
		return "", errors.New("patient ID cannot be empty")
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.New("patient ID must be a valid UUID")
	}
	return PatientID(raw), nil
}

// String returns the string representation
func (id PatientID) String() string {
	return string(id)
}

// IsZero checks if the PatientID is the zero value
func (id PatientID) IsZero() bool {
	return id == ""
}

// RecordID identifies an attendance record. Unique within its patient and, in
// practice, globally.
type RecordID string

// NewRecordID creates a new random RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

// ParseRecordID creates a RecordID from an existing string
func ParseRecordID(raw string) (RecordID, error) {
	if raw == "" {
		return "", errors.New("record ID cannot be empty")
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.New("record ID must be a valid UUID")
	}
	return RecordID(raw), nil
}

// String returns the string representation
func (id RecordID) String() string {
	return string(id)
}

// IsZero checks if the RecordID is the zero value
func (id RecordID) IsZero() bool {
	return id == ""
}
