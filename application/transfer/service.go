package transfer

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"consultorio-backend/application/commands"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/validators"
	pkgerrors "consultorio-backend/pkg/errors"
)

// pusher is the slice of the sync engine the transfer service needs
type pusher interface {
	PushAll(snapshot aggregates.Snapshot)
}

// Service handles the flat JSON export/import of the patient list. Import
// replaces the entire dataset and re-pushes it wholesale, the same path the
// initial-adoption rule takes.
type Service struct {
	snapshots *session.Store
	validator *validators.PatientValidator
	sync      pusher
	logger    *zap.Logger
}

// NewService creates a transfer service
func NewService(snapshots *session.Store, validator *validators.PatientValidator, sync pusher, logger *zap.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		validator: validator,
		sync:      sync,
		logger:    logger,
	}
}

// Export writes the current patient list as a flat JSON array
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	snapshot := s.snapshots.Current()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot.Patients); err != nil {
		return pkgerrors.NewInternalError("failed to encode export", err)
	}
	s.logger.Info("Exported patients", zap.Int("count", len(snapshot.Patients)))
	return nil
}

// Import parses a flat JSON array of patients, validates every entity,
// replaces the whole patient list and triggers a wholesale push. A parse or
// validation failure rejects the import with the snapshot untouched.
func (s *Service) Import(ctx context.Context, r io.Reader) (aggregates.Snapshot, error) {
	var patients []entities.Patient
	if err := json.NewDecoder(r).Decode(&patients); err != nil {
		return s.snapshots.Current(), pkgerrors.NewValidationError("import file is not a JSON patient array").WithCause(err)
	}

	cmd := commands.ImportPatientsCommand{Patients: patients}
	if err := cmd.Validate(); err != nil {
		return s.snapshots.Current(), err
	}
	if err := s.validator.ValidatePatients(patients); err != nil {
		return s.snapshots.Current(), err
	}

	snapshot, err := s.snapshots.Update(ctx, func(snap *aggregates.Snapshot) error {
		snap.Patients = patients
		return nil
	})
	if err != nil {
		return snapshot, err
	}

	s.sync.PushAll(snapshot)
	s.logger.Info("Imported patients, pushing wholesale", zap.Int("count", len(patients)))
	return snapshot, nil
}
