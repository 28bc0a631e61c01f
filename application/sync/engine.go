package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
	"consultorio-backend/domain/core/valueobjects"
	"consultorio-backend/pkg/observability"
)

// Status is the externally observable sync state signal
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

type opKind string

const (
	opUpsertPatient    opKind = "upsert_patient"
	opDeletePatient    opKind = "delete_patient"
	opUpsertAttendance opKind = "upsert_attendance"
	opDeleteAttendance opKind = "delete_attendance"
)

// operation is one queued remote mutation, carrying the full entity payload
type operation struct {
	kind      opKind
	patient   entities.Patient
	record    entities.AttendanceRecord
	patientID valueobjects.PatientID
	recordID  valueobjects.RecordID
}

// Engine keeps the local cache and the remote store eventually consistent
// without ever blocking local interaction.
//
// Push: local mutations are enqueued and drained by one background worker;
// a failed push is logged and dropped, it is neither retried nor rolled back
// locally. Local and remote may diverge until the next successful cycle;
// availability wins over strict consistency.
//
// Pull: on startup and on every foreign change-feed event the whole remote
// dataset is fetched. The initial-adoption rule decides the winner: a
// non-empty local snapshot beats a remote snapshot whose newest update
// predates this session's first pull, and is then pushed wholesale;
// otherwise the remote snapshot is adopted. First-writer-wins at whole
// dataset granularity. Known limitation: concurrent multi-device edits can
// clobber each other; that is the documented trade-off, not a bug to fix
// silently here.
type Engine struct {
	remote    ports.RemoteStore
	feed      ports.ChangeFeed
	snapshots *session.Store
	metrics   *observability.Collector
	logger    *zap.Logger
	breaker   *gobreaker.CircuitBreaker

	sessionID    string
	sessionStart time.Time
	firstPull    sync.Once

	ops       chan operation
	opTimeout time.Duration

	status atomic.Value

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewEngine creates a sync engine. sessionID tags every outgoing write so the
// change feed can tell this session's own echoes from foreign changes.
func NewEngine(
	remote ports.RemoteStore,
	feed ports.ChangeFeed,
	snapshots *session.Store,
	sessionID string,
	queueSize int,
	opTimeout time.Duration,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Engine {
	e := &Engine{
		remote:      remote,
		feed:        feed,
		snapshots:   snapshots,
		metrics:     metrics,
		logger:      logger,
		sessionID:   sessionID,
		ops:         make(chan operation, queueSize),
		opTimeout:   opTimeout,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
	e.status.Store(StatusIdle)
	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Remote circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return e
}

// SessionID returns the origin tag of this session
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Status returns the current sync status signal
func (e *Engine) Status() Status {
	return e.status.Load().(Status)
}

func (e *Engine) setStatus(s Status) {
	e.status.Store(s)
}

// Start launches the push worker and the change-feed listener, then performs
// the startup pull in the background. Local interaction never waits for it.
func (e *Engine) Start(ctx context.Context) {
	go e.runWorker(ctx)
	go e.runFeed(ctx)
	go func() {
		if err := e.Pull(ctx); err != nil {
			e.logger.Warn("Startup pull failed, operating locally", zap.Error(err))
		}
	}()
}

// Stop shuts the worker down. Queued pushes are drained best-effort; local
// state is already durable, so abandoning them on failure is safe.
func (e *Engine) Stop() {
	close(e.stopChan)
	<-e.stoppedChan
}

// EnqueueUpsertPatient queues a patient upsert
func (e *Engine) EnqueueUpsertPatient(patient entities.Patient) {
	e.enqueue(operation{kind: opUpsertPatient, patient: patient})
}

// EnqueueDeletePatient queues a patient delete, cascading remotely
func (e *Engine) EnqueueDeletePatient(id valueobjects.PatientID) {
	e.enqueue(operation{kind: opDeletePatient, patientID: id})
}

// EnqueueUpsertAttendance queues an attendance upsert
func (e *Engine) EnqueueUpsertAttendance(patientID valueobjects.PatientID, record entities.AttendanceRecord) {
	e.enqueue(operation{kind: opUpsertAttendance, patientID: patientID, record: record})
}

// EnqueueDeleteAttendance queues an attendance delete
func (e *Engine) EnqueueDeleteAttendance(id valueobjects.RecordID) {
	e.enqueue(operation{kind: opDeleteAttendance, recordID: id})
}

// PushAll enqueues an upsert for every entity in the snapshot, used for
// initial adoption and after an import replaced the dataset
func (e *Engine) PushAll(snapshot aggregates.Snapshot) {
	for i := range snapshot.Patients {
		patient := snapshot.Patients[i]
		e.EnqueueUpsertPatient(patient.Clone())
		for j := range patient.Attendance {
			e.EnqueueUpsertAttendance(patient.ID, patient.Attendance[j].Clone())
		}
	}
}

func (e *Engine) enqueue(op operation) {
	select {
	case e.ops <- op:
		e.metrics.OutboxDepth.Set(float64(len(e.ops)))
	default:
		// The queue is sized for hours of offline use; dropping beyond that
		// is the same accepted divergence as a failed push.
		e.logger.Warn("Outbox full, dropping remote operation",
			zap.String("kind", string(op.kind)),
		)
		e.metrics.SyncPushes.WithLabelValues(string(op.kind), "dropped").Inc()
		e.setStatus(StatusError)
	}
}

// Pull fetches the remote dataset and reconciles it with the local snapshot
// per the initial-adoption rule.
func (e *Engine) Pull(ctx context.Context) error {
	e.firstPull.Do(func() {
		e.sessionStart = time.Now().UTC()
	})

	e.setStatus(StatusSyncing)

	pullCtx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.remote.ListAll(pullCtx)
	})
	if err != nil {
		e.metrics.SyncPulls.WithLabelValues("failure").Inc()
		e.setStatus(StatusOffline)
		e.logger.Warn("Remote pull failed", zap.Error(err))
		return err
	}
	remoteSnapshot := result.(ports.RemoteSnapshot)
	e.metrics.SyncPulls.WithLabelValues("success").Inc()

	local := e.snapshots.Current()
	if !local.IsEmpty() && remoteSnapshot.NewestUpdate.Before(e.sessionStart) {
		// Local data predates remote knowledge of this session: local is
		// authoritative, overwrite remote wholesale.
		e.logger.Info("Adopting local snapshot, pushing wholesale",
			zap.Int("localPatients", len(local.Patients)),
			zap.Int("remotePatients", len(remoteSnapshot.Patients)),
		)
		e.PushAll(local)
	} else {
		adopted := local
		adopted.Patients = remoteSnapshot.Patients
		e.snapshots.Replace(ctx, adopted)
		e.logger.Info("Adopted remote snapshot",
			zap.Int("patients", len(remoteSnapshot.Patients)),
		)
	}

	e.setStatus(StatusIdle)
	return nil
}

// Flush processes every queued operation synchronously. Used on shutdown and
// in tests; the background worker uses the same processing path.
func (e *Engine) Flush(ctx context.Context) {
	for {
		select {
		case op := <-e.ops:
			e.process(ctx, op)
		default:
			e.metrics.OutboxDepth.Set(0)
			return
		}
	}
}

func (e *Engine) runWorker(ctx context.Context) {
	defer close(e.stoppedChan)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopChan:
			e.Flush(ctx)
			return
		case op := <-e.ops:
			e.process(ctx, op)
			e.metrics.OutboxDepth.Set(float64(len(e.ops)))
		}
	}
}

func (e *Engine) runFeed(ctx context.Context) {
	events, err := e.feed.Subscribe(ctx)
	if err != nil {
		e.logger.Warn("Change feed unavailable, remote edits will not be noticed", zap.Error(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopChan:
			return
		case ev, open := <-events:
			if !open {
				e.logger.Warn("Change feed closed")
				return
			}
			if ev.Origin == e.sessionID {
				continue
			}
			e.logger.Info("Foreign remote change, re-pulling",
				zap.String("table", ev.Table),
			)
			if err := e.Pull(ctx); err != nil {
				e.logger.Warn("Re-pull after remote change failed", zap.Error(err))
			}
		}
	}
}

// process executes one remote operation under the per-op timeout. Failures
// are terminal for the operation: logged, counted, never retried.
func (e *Engine) process(ctx context.Context, op operation) {
	opCtx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	_, err := e.breaker.Execute(func() (interface{}, error) {
		switch op.kind {
		case opUpsertPatient:
			return nil, e.remote.UpsertPatient(opCtx, op.patient)
		case opDeletePatient:
			return nil, e.remote.DeletePatient(opCtx, op.patientID)
		case opUpsertAttendance:
			return nil, e.remote.UpsertAttendance(opCtx, op.patientID, op.record)
		case opDeleteAttendance:
			return nil, e.remote.DeleteAttendance(opCtx, op.recordID)
		}
		return nil, nil
	})
	if err != nil {
		e.metrics.SyncPushes.WithLabelValues(string(op.kind), "failure").Inc()
		e.setStatus(StatusError)
		e.logger.Warn("Remote push failed, local state keeps the change",
			zap.String("kind", string(op.kind)),
			zap.Error(err),
		)
		return
	}

	e.metrics.SyncPushes.WithLabelValues(string(op.kind), "success").Inc()
	e.setStatus(StatusIdle)
}
