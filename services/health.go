package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clinical-note-cleaner/errors"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

const defaultCheckTimeout = 5 * time.Second

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker interface for health checking
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// HealthService manages health checks for the system
type HealthService interface {
	RegisterChecker(checker HealthChecker)
	CheckHealth(ctx context.Context) SystemHealth
	CheckComponent(ctx context.Context, name string) (ComponentHealth, error)
	GetSystemInfo() map[string]interface{}
}

// DefaultHealthService implements HealthService
type DefaultHealthService struct {
	mu        sync.RWMutex
	checkers  map[string]HealthChecker
	startTime time.Time
	version   string
	timeout   time.Duration
	logger    Logger
}

// NewHealthService creates a new health service
func NewHealthService(version string, logger Logger) *DefaultHealthService {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &DefaultHealthService{
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   version,
		timeout:   defaultCheckTimeout,
		logger:    logger,
	}
}

// RegisterChecker registers a health checker
func (h *DefaultHealthService) RegisterChecker(checker HealthChecker) {
	h.mu.Lock()
	h.checkers[checker.Name()] = checker
	h.mu.Unlock()
	h.logger.Debug("Health checker registered", String("component", checker.Name()))
}

// CheckHealth runs every registered check concurrently
func (h *DefaultHealthService) CheckHealth(ctx context.Context) SystemHealth {
	start := time.Now()

	h.mu.RLock()
	checkers := make([]HealthChecker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	results := make([]ComponentHealth, len(checkers))
	var g errgroup.Group
	for i, checker := range checkers {
		i, checker := i, checker
		g.Go(func() error {
			results[i] = h.checkComponentWithTimeout(ctx, checker, h.timeout)
			return nil
		})
	}
	g.Wait()

	components := make(map[string]ComponentHealth, len(results))
	overallStatus := HealthStatusHealthy
	for _, componentHealth := range results {
		components[componentHealth.Name] = componentHealth

		switch componentHealth.Status {
		case HealthStatusUnhealthy:
			overallStatus = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overallStatus == HealthStatusHealthy {
				overallStatus = HealthStatusDegraded
			}
		}
	}

	h.logger.Debug("Health check completed",
		String("status", string(overallStatus)),
		Duration("duration", time.Since(start)),
		Int("components_checked", len(components)))

	return SystemHealth{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime),
		Version:    h.version,
		Components: components,
	}
}

// CheckComponent checks the health of a specific component
func (h *DefaultHealthService) CheckComponent(ctx context.Context, name string) (ComponentHealth, error) {
	h.mu.RLock()
	checker, exists := h.checkers[name]
	h.mu.RUnlock()
	if !exists {
		return ComponentHealth{}, errors.NewNotFoundError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("component %s not found", name), nil)
	}

	return h.checkComponentWithTimeout(ctx, checker, h.timeout), nil
}

// GetSystemInfo returns general system information
func (h *DefaultHealthService) GetSystemInfo() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"version":    h.version,
		"uptime":     time.Since(h.startTime).String(),
		"start_time": h.startTime.Format(time.RFC3339),
		"components": len(h.checkers),
	}
}

// checkComponentWithTimeout checks a component with a timeout
func (h *DefaultHealthService) checkComponentWithTimeout(ctx context.Context, checker HealthChecker, timeout time.Duration) ComponentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan ComponentHealth, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- ComponentHealth{
					Name:      checker.Name(),
					Status:    HealthStatusUnhealthy,
					Message:   fmt.Sprintf("Health check panicked: %v", r),
					Timestamp: time.Now(),
					Duration:  time.Since(start),
				}
			}
		}()

		result := checker.Check(timeoutCtx)
		result.Name = checker.Name()
		result.Duration = time.Since(start)
		resultChan <- result
	}()

	select {
	case result := <-resultChan:
		return result
	case <-timeoutCtx.Done():
		return ComponentHealth{
			Name:      checker.Name(),
			Status:    HealthStatusUnhealthy,
			Message:   "Health check timed out",
			Timestamp: time.Now(),
			Duration:  timeout,
		}
	}
}

// Pinger is anything that can verify its connection, such as the Postgres service
type Pinger interface {
	Health(ctx context.Context) error
}

// DatabaseHealthChecker checks database connectivity
type DatabaseHealthChecker struct {
	name string
	db   Pinger
}

// NewDatabaseHealthChecker creates a database health checker
func NewDatabaseHealthChecker(name string, db Pinger) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{name: name, db: db}
}

// Name returns the checker name
func (d *DatabaseHealthChecker) Name() string {
	return d.name
}

// Check performs the database health check
func (d *DatabaseHealthChecker) Check(ctx context.Context) ComponentHealth {
	health := ComponentHealth{Name: d.name, Timestamp: time.Now()}

	if err := d.db.Health(ctx); err != nil {
		health.Status = HealthStatusUnhealthy
		health.Message = err.Error()
	} else {
		health.Status = HealthStatusHealthy
		health.Message = "Database connection successful"
	}
	return health
}

// DictionaryHealthChecker reports the state of the active dictionary.
// An empty dictionary leaves the service running but cleans nothing, so it is degraded.
type DictionaryHealthChecker struct {
	name     string
	provider DictionaryProvider
}

// NewDictionaryHealthChecker creates a dictionary health checker
func NewDictionaryHealthChecker(name string, provider DictionaryProvider) *DictionaryHealthChecker {
	return &DictionaryHealthChecker{name: name, provider: provider}
}

// Name returns the checker name
func (d *DictionaryHealthChecker) Name() string {
	return d.name
}

// Check performs the dictionary health check
func (d *DictionaryHealthChecker) Check(ctx context.Context) ComponentHealth {
	dict := d.provider.Current()
	health := ComponentHealth{
		Name:      d.name,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"source":  d.provider.Source(),
			"entries": dict.Len(),
		},
	}

	if dict.Len() == 0 {
		health.Status = HealthStatusDegraded
		health.Message = "Dictionary is empty, text passes through unchanged"
		return health
	}
	health.Status = HealthStatusHealthy
	health.Message = fmt.Sprintf("%d dictionary entries loaded", dict.Len())
	return health
}

// JobStoreHealthChecker checks the job store.
// Stores with a HealthCheck method are probed as well.
type JobStoreHealthChecker struct {
	name  string
	store JobStore
}

// NewJobStoreHealthChecker creates a job store health checker
func NewJobStoreHealthChecker(name string, store JobStore) *JobStoreHealthChecker {
	return &JobStoreHealthChecker{name: name, store: store}
}

// Name returns the checker name
func (j *JobStoreHealthChecker) Name() string {
	return j.name
}

// Check performs the job store health check
func (j *JobStoreHealthChecker) Check(ctx context.Context) ComponentHealth {
	health := ComponentHealth{Name: j.name, Timestamp: time.Now()}

	store := j.store
	if monitored, ok := store.(*MonitoredJobStore); ok {
		store = monitored.Unwrap()
	}
	if probe, ok := store.(interface{ HealthCheck(context.Context) error }); ok {
		if err := probe.HealthCheck(ctx); err != nil {
			health.Status = HealthStatusUnhealthy
			health.Message = err.Error()
			return health
		}
	}

	count, err := j.store.Count(ctx)
	if err != nil {
		health.Status = HealthStatusUnhealthy
		health.Message = err.Error()
		return health
	}

	health.Status = HealthStatusHealthy
	health.Message = "Job store available"
	health.Details = map[string]interface{}{"jobs": count}
	return health
}

// MetricsHealthChecker checks metrics service health
type MetricsHealthChecker struct {
	name    string
	metrics MetricsService
}

// NewMetricsHealthChecker creates a metrics health checker
func NewMetricsHealthChecker(name string, metrics MetricsService) *MetricsHealthChecker {
	return &MetricsHealthChecker{name: name, metrics: metrics}
}

// Name returns the checker name
func (m *MetricsHealthChecker) Name() string {
	return m.name
}

// Check performs the metrics health check
func (m *MetricsHealthChecker) Check(ctx context.Context) ComponentHealth {
	allMetrics := m.metrics.GetMetrics()

	return ComponentHealth{
		Name:      m.name,
		Status:    HealthStatusHealthy,
		Message:   "Metrics collection active",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"sections":   len(allMetrics),
			"has_system": allMetrics["system"] != nil,
		},
	}
}
