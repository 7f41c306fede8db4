package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

// JobStoreStats provides job store metrics
type JobStoreStats struct {
	Size      int       `json:"size"`
	MaxSize   int       `json:"max_size"`
	Saved     int64     `json:"saved"`
	Expired   int64     `json:"expired"`
	Evictions int64     `json:"evictions"`
	LastSweep time.Time `json:"last_sweep"`
}

// InMemoryJobStore implements JobStore with TTL expiry
type InMemoryJobStore struct {
	mu       sync.RWMutex
	data     map[string]*models.JobRecord
	maxSize  int
	stats    JobStoreStats
	now      func() time.Time
	janitor  *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewInMemoryJobStore creates a job store. maxSize <= 0 means unbounded.
func NewInMemoryJobStore(maxSize int, cleanupInterval time.Duration) *InMemoryJobStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	store := &InMemoryJobStore{
		data:     make(map[string]*models.JobRecord),
		maxSize:  maxSize,
		stats:    JobStoreStats{MaxSize: maxSize},
		now:      time.Now,
		janitor:  time.NewTicker(cleanupInterval),
		stopChan: make(chan struct{}),
	}

	go store.cleanup()

	return store
}

// Save implements JobStore
func (s *InMemoryJobStore) Save(ctx context.Context, job *models.JobRecord) error {
	if job == nil || job.ID == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidInput, "job must have an id", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[job.ID]; !exists && s.maxSize > 0 && len(s.data) >= s.maxSize {
		s.evictOldest()
	}
	s.data[job.ID] = job
	s.stats.Saved++
	return nil
}

// Get implements JobStore
func (s *InMemoryJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.data[id]
	if !exists {
		return nil, jobNotFound(id)
	}
	if s.now().After(job.ExpiresAt) {
		delete(s.data, id)
		s.stats.Expired++
		return nil, jobNotFound(id)
	}
	return job, nil
}

// Delete implements JobStore
func (s *InMemoryJobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// Count implements JobStore
func (s *InMemoryJobStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// GetStats returns store statistics
func (s *InMemoryJobStore) GetStats() JobStoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Size = len(s.data)
	return stats
}

// Close stops the cleanup goroutine
func (s *InMemoryJobStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.janitor.Stop()
	})
	return nil
}

// cleanup removes expired jobs periodically
func (s *InMemoryJobStore) cleanup() {
	for {
		select {
		case <-s.janitor.C:
			s.removeExpired()
		case <-s.stopChan:
			return
		}
	}
}

// removeExpired removes all expired jobs
func (s *InMemoryJobStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, job := range s.data {
		if now.After(job.ExpiresAt) {
			delete(s.data, id)
			s.stats.Expired++
		}
	}
	s.stats.LastSweep = now
}

// evictOldest removes the oldest job to make room for a new one
func (s *InMemoryJobStore) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, job := range s.data {
		if oldestID == "" || job.CreatedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = job.CreatedAt
		}
	}

	if oldestID != "" {
		delete(s.data, oldestID)
		s.stats.Evictions++
	}
}

func jobNotFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeJobNotFound, fmt.Sprintf("job %s not found or expired", id), models.ErrNotFound)
}
