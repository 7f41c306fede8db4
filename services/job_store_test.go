package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

func newTestJob(ttl time.Duration) *models.JobRecord {
	now := time.Now()
	return &models.JobRecord{
		ID:           uuid.New().String(),
		Filename:     "notes.csv",
		Format:       models.ExportCSV,
		DocumentKind: models.DocumentKindTabular,
		UnitCount:    2,
		Log: []models.ReplacementLogEntry{
			{Original: "BP", Shorthand: "bp", Replacement: "blood pressure", Location: models.Location{Row: 0, Column: 1, Offset: 0, Length: 2}},
		},
		Frequency: models.ReplacementFrequency{"bp": 1},
		Artifacts: map[string]models.Artifact{
			models.ArtifactOutput: {Name: "cleaned_data.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")},
			models.ArtifactLog:    {Name: LogFileName, ContentType: reportsContentType, Data: []byte("original,replacement,location\n")},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestInMemoryJobStore_SaveAndGet(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Minute)
	defer store.Close()
	ctx := context.Background()

	job := newTestJob(time.Hour)
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInMemoryJobStore_Missing(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Minute)
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeJobNotFound))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInMemoryJobStore_RejectsJobWithoutID(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Minute)
	defer store.Close()

	err := store.Save(context.Background(), &models.JobRecord{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestInMemoryJobStore_Expiry(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Hour)
	defer store.Close()
	ctx := context.Background()

	job := newTestJob(time.Minute)
	require.NoError(t, store.Save(ctx, job))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err := store.Get(ctx, job.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeJobNotFound))
	assert.Equal(t, int64(1), store.GetStats().Expired)
}

func TestInMemoryJobStore_SweepRemovesExpired(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestJob(time.Minute)))
	require.NoError(t, store.Save(ctx, newTestJob(time.Hour)))

	store.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	store.removeExpired()

	stats := store.GetStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Expired)
	assert.False(t, stats.LastSweep.IsZero())
}

func TestInMemoryJobStore_EvictsOldest(t *testing.T) {
	store := NewInMemoryJobStore(2, time.Minute)
	defer store.Close()
	ctx := context.Background()

	first := newTestJob(time.Hour)
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := newTestJob(time.Hour)
	third := newTestJob(time.Hour)

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, third))

	_, err := store.Get(ctx, first.ID)
	assert.Error(t, err)
	_, err = store.Get(ctx, third.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), store.GetStats().Evictions)
}

func TestInMemoryJobStore_Delete(t *testing.T) {
	store := NewInMemoryJobStore(10, time.Minute)
	defer store.Close()
	ctx := context.Background()

	job := newTestJob(time.Hour)
	require.NoError(t, store.Save(ctx, job))
	require.NoError(t, store.Delete(ctx, job.ID))

	_, err := store.Get(ctx, job.ID)
	assert.Error(t, err)
}

func newTestLocalJobStore(t *testing.T) *LocalJobStore {
	t.Helper()
	store, err := NewLocalJobStore(filepath.Join(t.TempDir(), "jobs"), time.Hour, NoopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocalJobStore_SaveAndGet(t *testing.T) {
	store := newTestLocalJobStore(t)
	ctx := context.Background()

	job := newTestJob(time.Hour)
	require.NoError(t, store.Save(ctx, job))

	assert.FileExists(t, filepath.Join(store.basePath, job.ID, jobMetadataFile))
	assert.FileExists(t, filepath.Join(store.basePath, job.ID, "cleaned_data.csv"))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Log, got.Log)
	assert.Equal(t, job.Frequency, got.Frequency)
	assert.Equal(t, []byte("a,b\n"), got.Artifacts[models.ArtifactOutput].Data)
	assert.Equal(t, LogFileName, got.Artifacts[models.ArtifactLog].Name)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLocalJobStore_RejectsTraversal(t *testing.T) {
	store := newTestLocalJobStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "../../etc")
	assert.True(t, errors.HasCode(err, errors.ErrCodeJobNotFound))

	job := newTestJob(time.Hour)
	job.ID = "../escape"
	err = store.Save(ctx, job)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestLocalJobStore_Expiry(t *testing.T) {
	store := newTestLocalJobStore(t)
	ctx := context.Background()

	job := newTestJob(time.Minute)
	require.NoError(t, store.Save(ctx, job))

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := store.Get(ctx, job.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeJobNotFound))
	assert.NoDirExists(t, filepath.Join(store.basePath, job.ID))
}

func TestLocalJobStore_SweepRemovesExpiredAndIncomplete(t *testing.T) {
	store := newTestLocalJobStore(t)
	ctx := context.Background()

	expired := newTestJob(time.Minute)
	live := newTestJob(24 * time.Hour)
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))

	// A directory without metadata is left over from an interrupted save
	require.NoError(t, os.MkdirAll(filepath.Join(store.basePath, uuid.New().String()), 0o755))

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	store.removeExpired()

	entries, err := os.ReadDir(store.basePath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, live.ID, entries[0].Name())
}

func TestLocalJobStore_Delete(t *testing.T) {
	store := newTestLocalJobStore(t)
	ctx := context.Background()

	job := newTestJob(time.Hour)
	require.NoError(t, store.Save(ctx, job))
	require.NoError(t, store.Delete(ctx, job.ID))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLocalJobStore_HealthCheck(t *testing.T) {
	store := newTestLocalJobStore(t)
	assert.NoError(t, store.HealthCheck(context.Background()))
	assert.NoFileExists(t, filepath.Join(store.basePath, ".health_check"))
}
