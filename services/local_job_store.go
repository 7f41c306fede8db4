package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

const jobMetadataFile = "job.json"

// LocalJobStore keeps jobs on the local filesystem, one directory per job:
// the record as job.json next to one file per artifact.
type LocalJobStore struct {
	basePath string
	logger   Logger
	now      func() time.Time

	janitor  *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewLocalJobStore creates the base directory and starts expiry sweeps
func NewLocalJobStore(basePath string, cleanupInterval time.Duration, logger Logger) (*LocalJobStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory %s: %w", basePath, err)
	}
	if logger == nil {
		logger = NoopLogger{}
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	store := &LocalJobStore{
		basePath: basePath,
		logger:   logger.With(String("component", "local_job_store")),
		now:      time.Now,
		janitor:  time.NewTicker(cleanupInterval),
		stopChan: make(chan struct{}),
	}
	go store.cleanup()

	return store, nil
}

// jobDir returns the directory of a job. Only uuids are accepted so an id can
// never address a path outside basePath.
func (l *LocalJobStore) jobDir(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", jobNotFound(id)
	}
	return filepath.Join(l.basePath, id), nil
}

// Save implements JobStore. The metadata file is written last, so a job whose
// artifacts are only partly written is never visible.
func (l *LocalJobStore) Save(ctx context.Context, job *models.JobRecord) error {
	if job == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidInput, "job must not be nil", nil)
	}
	dir, err := l.jobDir(job.ID)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidInput, "job id must be a uuid", nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storageFailed("create job directory", err)
	}

	for kind, artifact := range job.Artifacts {
		if err := ctx.Err(); err != nil {
			os.RemoveAll(dir)
			return err
		}
		path := filepath.Join(dir, filepath.Base(artifact.Name))
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			os.RemoveAll(dir)
			return storageFailed(fmt.Sprintf("write %s artifact", kind), err)
		}
	}

	meta, err := json.Marshal(job)
	if err != nil {
		os.RemoveAll(dir)
		return errors.NewInternalError(errors.ErrCodeSerializationError, "failed to encode job", err)
	}

	tmp := filepath.Join(dir, jobMetadataFile+".tmp")
	if err := os.WriteFile(tmp, meta, 0o644); err != nil {
		os.RemoveAll(dir)
		return storageFailed("write job metadata", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, jobMetadataFile)); err != nil {
		os.RemoveAll(dir)
		return storageFailed("commit job metadata", err)
	}
	return nil
}

// Get implements JobStore
func (l *LocalJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	dir, err := l.jobDir(id)
	if err != nil {
		return nil, err
	}

	job, err := l.readMetadata(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jobNotFound(id)
		}
		return nil, err
	}

	if l.now().After(job.ExpiresAt) {
		l.Delete(ctx, id)
		return nil, jobNotFound(id)
	}

	for kind, artifact := range job.Artifacts {
		data, err := os.ReadFile(filepath.Join(dir, filepath.Base(artifact.Name)))
		if err != nil {
			return nil, storageFailed(fmt.Sprintf("read %s artifact", kind), err)
		}
		artifact.Data = data
		job.Artifacts[kind] = artifact
	}
	return job, nil
}

func (l *LocalJobStore) readMetadata(dir string) (*models.JobRecord, error) {
	raw, err := os.ReadFile(filepath.Join(dir, jobMetadataFile))
	if err != nil {
		return nil, err
	}
	var job models.JobRecord
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeSerializationError, "failed to decode job", err)
	}
	return &job, nil
}

// Delete implements JobStore
func (l *LocalJobStore) Delete(ctx context.Context, id string) error {
	dir, err := l.jobDir(id)
	if err != nil {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return storageFailed("delete job", err)
	}
	return nil
}

// Count implements JobStore
func (l *LocalJobStore) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return 0, storageFailed("list jobs", err)
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.basePath, entry.Name(), jobMetadataFile)); err == nil {
			n++
		}
	}
	return n, nil
}

// HealthCheck verifies the base directory is writable
func (l *LocalJobStore) HealthCheck(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to job directory: %w", err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}

// Close stops the cleanup goroutine
func (l *LocalJobStore) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
		l.janitor.Stop()
	})
	return nil
}

func (l *LocalJobStore) cleanup() {
	for {
		select {
		case <-l.janitor.C:
			l.removeExpired()
		case <-l.stopChan:
			return
		}
	}
}

// removeExpired deletes job directories past their expiry
func (l *LocalJobStore) removeExpired() {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		l.logger.Error("Failed to list job directory", err)
		return
	}

	now := l.now()
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(l.basePath, entry.Name())
		job, err := l.readMetadata(dir)
		if err != nil || now.After(job.ExpiresAt) {
			if err := os.RemoveAll(dir); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		l.logger.Info("Expired jobs removed", Int("removed", removed))
	}
}

func storageFailed(action string, cause error) error {
	return errors.NewInternalError(errors.ErrCodeStorageFailed, "failed to "+action, cause)
}
