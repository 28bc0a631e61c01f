package ports

import (
	"context"
	"time"

	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
)

// SnapshotCache is the durable, always-available local store. It persists the
// whole snapshot as one document under a fixed key: last write wins, no
// partial-key access.
type SnapshotCache interface {
	// Write persists the snapshot. Callers treat failures as log-only: the
	// in-memory snapshot is never rolled back because a disk write failed.
	Write(ctx context.Context, snapshot aggregates.Snapshot) error

	// Read loads the persisted snapshot. ok is false on first launch, before
	// anything was ever written.
	Read(ctx context.Context) (snapshot aggregates.Snapshot, ok bool, err error)
}

// RemoteSnapshot is the result of pulling the remote store wholesale
type RemoteSnapshot struct {
	Patients []entities.Patient
	// NewestUpdate is the most recent updated_at across both remote
	// collections; zero when the remote store is empty.
	NewestUpdate time.Time
}

// RemoteStore is the durable store reachable only intermittently. Every
// operation carries the full entity payload, so interleaved pushes can only
// clobber at entity granularity, never corrupt an entity.
type RemoteStore interface {
	ListAll(ctx context.Context) (RemoteSnapshot, error)
	UpsertPatient(ctx context.Context, patient entities.Patient) error
	DeletePatient(ctx context.Context, id valueobjects.PatientID) error
	UpsertAttendance(ctx context.Context, patientID valueobjects.PatientID, record entities.AttendanceRecord) error
	DeleteAttendance(ctx context.Context, id valueobjects.RecordID) error
}

// ChangeEvent is one remote-side change notification
type ChangeEvent struct {
	Table string
	// Origin identifies the session that wrote the change. The sync engine
	// ignores events carrying its own session id.
	Origin string
}

// ChangeFeed is a push-based subscription to remote table events
type ChangeFeed interface {
	// Subscribe starts delivering events until ctx is cancelled. The returned
	// channel is closed when the subscription ends.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// SyncOutbox enqueues remote operations for the background push worker.
// Enqueueing is fire-and-forget relative to the caller: the local snapshot is
// already committed and rendered before the remote call resolves.
type SyncOutbox interface {
	EnqueueUpsertPatient(patient entities.Patient)
	EnqueueDeletePatient(id valueobjects.PatientID)
	EnqueueUpsertAttendance(patientID valueobjects.PatientID, record entities.AttendanceRecord)
	EnqueueDeleteAttendance(id valueobjects.RecordID)
}
