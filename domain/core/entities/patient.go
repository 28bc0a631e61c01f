package entities

import (
	"strings"
	"time"

	"consultorio-backend/domain/core/valueobjects"
	pkgerrors "consultorio-backend/pkg/errors"
)

// Patient is the aggregate entity for one person treated by the practice.
// The attendance slice is owned exclusively by the patient; callers that need
// to hold onto a record must Clone it.
type Patient struct {
	ID         valueobjects.PatientID `json:"id"`
	Name       string                 `json:"name"`
	Phone      string                 `json:"phone,omitempty"`
	Email      string                 `json:"email,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	Attendance []AttendanceRecord     `json:"attendance"`
}

// NewPatient creates a patient with a fresh identity, empty attendance and
// both timestamps set to now
func NewPatient(name, phone, email, notes string) (*Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty").WithField("name")
	}

	now := time.Now().UTC()
	return &Patient{
		ID:         valueobjects.NewPatientID(),
		Name:       name,
		Phone:      phone,
		Email:      email,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
		Attendance: []AttendanceRecord{},
	}, nil
}

// AddRecord appends a freshly initialized attendance record and returns a
// copy of it
func (p *Patient) AddRecord() AttendanceRecord {
	record := NewAttendanceRecord()
	p.Attendance = append(p.Attendance, record)
	p.Touch()
	return record
}

// Record returns a pointer to the attendance record with the given id, or nil
func (p *Patient) Record(id valueobjects.RecordID) *AttendanceRecord {
	for i := range p.Attendance {
		if p.Attendance[i].ID == id {
			return &p.Attendance[i]
		}
	}
	return nil
}

// RemoveRecord deletes the record with the given id and reports whether it
// was present
func (p *Patient) RemoveRecord(id valueobjects.RecordID) bool {
	for i := range p.Attendance {
		if p.Attendance[i].ID == id {
			p.Attendance = append(p.Attendance[:i], p.Attendance[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}

// Touch bumps the updated timestamp
func (p *Patient) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy of the patient
func (p Patient) Clone() Patient {
	cp := p
	cp.Attendance = make([]AttendanceRecord, len(p.Attendance))
	copy(cp.Attendance, p.Attendance)
	return cp
}

// WithoutAttendance returns a copy of the patient with an empty attendance
// slice, the shape pushed to the remote patients collection
func (p Patient) WithoutAttendance() Patient {
	cp := p
	cp.Attendance = nil
	return cp
}
