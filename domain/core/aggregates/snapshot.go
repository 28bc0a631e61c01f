package aggregates

import (
	"time"

	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
)

// Snapshot is the full in-memory representation of the practice at a point in
// time: every patient with their attendance, plus display preferences. It is
// the single source of truth for rendering; the local cache and the remote
// store are projections of it. Snapshots are treated as values: mutation
// derives a new snapshot from a deep copy, the committed value is never
// written in place.
type Snapshot struct {
	Patients   []entities.Patient `json:"patients"`
	DarkMode   bool               `json:"darkMode"`
	LastUpdate time.Time          `json:"lastUpdate"`
}

// NewSnapshot returns the empty initial snapshot used on first launch
func NewSnapshot() Snapshot {
	return Snapshot{Patients: []entities.Patient{}}
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.Patients = make([]entities.Patient, len(s.Patients))
	for i := range s.Patients {
		cp.Patients[i] = s.Patients[i].Clone()
	}
	return cp
}

// IsEmpty reports whether the snapshot holds no patients
func (s Snapshot) IsEmpty() bool {
	return len(s.Patients) == 0
}

// Patient returns a pointer to the patient with the given id, or nil
func (s Snapshot) Patient(id valueobjects.PatientID) *entities.Patient {
	for i := range s.Patients {
		if s.Patients[i].ID == id {
			return &s.Patients[i]
		}
	}
	return nil
}

// AddPatient appends a patient to the snapshot
func (s *Snapshot) AddPatient(p entities.Patient) {
	s.Patients = append(s.Patients, p)
}

// RemovePatient deletes the patient with the given id together with all of
// its attendance records, and reports whether it was present
func (s *Snapshot) RemovePatient(id valueobjects.PatientID) bool {
	for i := range s.Patients {
		if s.Patients[i].ID == id {
			s.Patients = append(s.Patients[:i], s.Patients[i+1:]...)
			return true
		}
	}
	return false
}
