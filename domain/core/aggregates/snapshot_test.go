package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
)

func TestSnapshot_Patients(t *testing.T) {
	s := NewSnapshot()
	assert.True(t, s.IsEmpty())

	p, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	p.AddRecord()
	s.AddPatient(*p)

	assert.False(t, s.IsEmpty())
	require.NotNil(t, s.Patient(p.ID))
	assert.Nil(t, s.Patient(valueobjects.NewPatientID()))
}

func TestSnapshot_RemovePatientCascades(t *testing.T) {
	s := NewSnapshot()

	p, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	p.AddRecord()
	p.AddRecord()
	p.AddRecord()
	s.AddPatient(*p)

	other, err := entities.NewPatient("Luis", "", "", "")
	require.NoError(t, err)
	s.AddPatient(*other)

	// Records live only inside their patient, removal takes them along
	assert.True(t, s.RemovePatient(p.ID))
	assert.Len(t, s.Patients, 1)
	assert.Nil(t, s.Patient(p.ID))
	assert.NotNil(t, s.Patient(other.ID))

	assert.False(t, s.RemovePatient(p.ID))
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	p, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	record := p.AddRecord()
	s.AddPatient(*p)

	cp := s.Clone()
	cp.Patients[0].Name = "changed"
	cp.Patients[0].Attendance[0].Paid = true
	cp.DarkMode = true

	assert.Equal(t, "Ana", s.Patients[0].Name)
	assert.False(t, s.Patients[0].Record(record.ID).Paid)
	assert.False(t, s.DarkMode)
}
