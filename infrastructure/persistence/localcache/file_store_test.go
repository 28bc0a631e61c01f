package localcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consultorio-backend/domain/core/aggregates"
	"consultorio-backend/domain/core/entities"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	return fs, dir
}

func TestFileStore_FirstLaunch(t *testing.T) {
	fs, _ := newTestStore(t)

	snapshot, ok, err := fs.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, snapshot.IsEmpty())
	assert.NotNil(t, snapshot.Patients)
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs, _ := newTestStore(t)
	ctx := context.Background()

	p, err := entities.NewPatient("Ana", "555-0100", "", "nota")
	require.NoError(t, err)
	p.AddRecord()

	snapshot := aggregates.NewSnapshot()
	snapshot.AddPatient(*p)
	snapshot.DarkMode = true

	require.NoError(t, fs.Write(ctx, snapshot))

	loaded, ok, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, loaded.DarkMode)
	require.Len(t, loaded.Patients, 1)
	assert.Equal(t, p.ID, loaded.Patients[0].ID)
	assert.Equal(t, "Ana", loaded.Patients[0].Name)
	assert.Len(t, loaded.Patients[0].Attendance, 1)
}

func TestFileStore_LastWriteWins(t *testing.T) {
	fs, _ := newTestStore(t)
	ctx := context.Background()

	first := aggregates.NewSnapshot()
	p, err := entities.NewPatient("Ana", "", "", "")
	require.NoError(t, err)
	first.AddPatient(*p)
	require.NoError(t, fs.Write(ctx, first))

	// Overwrite with the empty snapshot, only the last document survives
	require.NoError(t, fs.Write(ctx, aggregates.NewSnapshot()))

	loaded, ok, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, loaded.IsEmpty())
}

func TestFileStore_CorruptDocument(t *testing.T) {
	fs, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("{not json"), 0o644))

	snapshot, ok, err := fs.Read(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.True(t, snapshot.IsEmpty())
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	fs, dir := newTestStore(t)

	require.NoError(t, fs.Write(context.Background(), aggregates.NewSnapshot()))

	_, err := os.Stat(filepath.Join(dir, snapshotFile+".tmp"))
	assert.True(t, os.IsNotExist(err))
}
