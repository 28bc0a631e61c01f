package localcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"consultorio-backend/domain/core/aggregates"
	pkgerrors "consultorio-backend/pkg/errors"
)

// snapshotFile is the fixed storage key: the whole snapshot lives in one
// document, written and read as a unit.
const snapshotFile = "state.json"

// FileStore persists the snapshot as a single JSON document on local disk.
// It is the only store guaranteed always available; writes are atomic
// (write temp file, rename over) so a crash never leaves a torn document.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file store rooted at dataDir, creating the
// directory when missing
func NewFileStore(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, pkgerrors.NewPersistenceError("failed to create data directory", err)
	}
	return &FileStore{
		path:   filepath.Join(dataDir, snapshotFile),
		logger: logger,
	}, nil
}

// Write persists the snapshot. Last write wins at whole-snapshot granularity;
// writing the same snapshot twice is idempotent.
func (fs *FileStore) Write(ctx context.Context, snapshot aggregates.Snapshot) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return pkgerrors.NewPersistenceError("failed to encode snapshot", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pkgerrors.NewPersistenceError("failed to write snapshot file", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return pkgerrors.NewPersistenceError("failed to replace snapshot file", err)
	}
	return nil
}

// Read loads the persisted snapshot. ok is false on first launch when nothing
// was ever written.
func (fs *FileStore) Read(ctx context.Context) (aggregates.Snapshot, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return aggregates.NewSnapshot(), false, nil
	}
	if err != nil {
		return aggregates.NewSnapshot(), false, pkgerrors.NewPersistenceError("failed to read snapshot file", err)
	}

	var snapshot aggregates.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		fs.logger.Warn("Cached snapshot is corrupt", zap.Error(err))
		return aggregates.NewSnapshot(), false, pkgerrors.NewPersistenceError("cached snapshot is corrupt", err)
	}
	if snapshot.Patients == nil {
		snapshot.Patients = aggregates.NewSnapshot().Patients
	}
	return snapshot, true, nil
}
