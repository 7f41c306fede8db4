package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"clinical-note-cleaner/config"
	"clinical-note-cleaner/database"
	"clinical-note-cleaner/substitution"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ServiceContainer holds all service instances
type ServiceContainer struct {
	// Core services
	Dictionaries *SnapshotDictionaryProvider
	Parser       *FileDocumentParser
	Exporter     *FileExporter
	Chart        *FrequencyChart
	Jobs         JobStore
	Cleaner      *DefaultCleaningService

	// Database, set only for the postgres dictionary source
	PostgresService      *database.PostgresService
	DictionaryRepository *database.DictionaryRepository

	// Watcher is set when a file dictionary is watched for changes
	Watcher *DictionaryWatcher

	// Performance and monitoring
	MetricsService MetricsService
	Logger         Logger
	HealthService  HealthService
}

// ServiceFactory creates and configures all services
type ServiceFactory struct {
	config *config.Config
	output io.Writer
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(cfg *config.Config) *ServiceFactory {
	return &ServiceFactory{config: cfg, output: os.Stdout}
}

// WithLogOutput redirects service logs
func (f *ServiceFactory) WithLogOutput(w io.Writer) *ServiceFactory {
	f.output = w
	return f
}

// CreateServices creates and wires all services together. The initial
// dictionary load happens here, so a missing required dictionary fails startup.
func (f *ServiceFactory) CreateServices(ctx context.Context) (*ServiceContainer, error) {
	cfg := f.config

	logger := NewLoggerFromConfig(&LoggerConfig{
		Level:  ParseLogLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: f.output,
	})

	var metricsService MetricsService
	if cfg.Performance.MetricsEnabled {
		metricsService = NewInMemoryMetrics()
	}

	healthService := NewHealthService(Version, logger)
	container := &ServiceContainer{
		MetricsService: metricsService,
		Logger:         logger,
		HealthService:  healthService,
	}

	source, err := f.createDictionarySource(ctx, container)
	if err != nil {
		return nil, err
	}

	provider := NewDictionaryProvider(source, logger, metricsService)
	if err := provider.Init(ctx, cfg.Dictionary.Optional); err != nil {
		container.Close()
		return nil, err
	}
	container.Dictionaries = provider

	if cfg.Dictionary.Watch && cfg.Dictionary.Source == config.DictionarySourceFile {
		container.Watcher = NewDictionaryWatcher(provider, cfg.Dictionary.Path, logger)
	}

	jobs, err := f.createJobStore(logger)
	if err != nil {
		container.Close()
		return nil, err
	}
	if metricsService != nil {
		jobs = NewMonitoredJobStore(jobs, metricsService)
	}
	container.Jobs = jobs

	container.Parser = NewDocumentParser(logger)
	container.Exporter = NewExporter()
	container.Chart = NewFrequencyChart(cfg.Cleaning.ChartMaxBars)
	container.Cleaner = NewCleaningService(CleaningDependencies{
		Dictionaries: provider,
		Parser:       container.Parser,
		Exporter:     container.Exporter,
		Chart:        container.Chart,
		Jobs:         jobs,
		Metrics:      metricsService,
		Logger:       logger,
	}, CleanerConfig{
		NotesColumn:   cfg.Cleaning.NotesColumn,
		NormalizeText: cfg.Cleaning.NormalizeText,
		Policy: substitution.TokenizerPolicy{
			WordChars:   cfg.Tokenizer.WordChars,
			StrictEdges: cfg.Tokenizer.StrictEdges,
		},
		JobTTL: cfg.Jobs.TTL,
	})

	// Register health checkers
	healthService.RegisterChecker(NewDictionaryHealthChecker("dictionary", provider))
	healthService.RegisterChecker(NewJobStoreHealthChecker("jobs", jobs))
	if container.PostgresService != nil {
		healthService.RegisterChecker(NewDatabaseHealthChecker("database", container.PostgresService))
	}
	if metricsService != nil {
		healthService.RegisterChecker(NewMetricsHealthChecker("metrics", metricsService))
	}

	logger.Info("Services initialized",
		String("dictionary_source", provider.Source()),
		Int("dictionary_entries", provider.Current().Len()),
		String("job_store", cfg.Jobs.Store),
		Bool("metrics_enabled", metricsService != nil),
		Bool("dictionary_watch", container.Watcher != nil))

	return container, nil
}

func (f *ServiceFactory) createDictionarySource(ctx context.Context, container *ServiceContainer) (DictionarySource, error) {
	cfg := f.config
	if cfg.Dictionary.Source != config.DictionarySourcePostgres {
		return NewFileDictionarySource(cfg.Dictionary.Path), nil
	}

	postgresService, err := database.NewPostgresService(ctx, PostgresConfigFrom(cfg.Database))
	if err != nil {
		if cfg.Dictionary.Optional {
			container.Logger.Warn("Dictionary database unavailable", String("error", err.Error()))
			return unavailableSource{describe: "postgres:" + cfg.Dictionary.Table, err: err}, nil
		}
		return nil, fmt.Errorf("failed to create PostgreSQL service: %w", err)
	}

	repo := database.NewDictionaryRepository(postgresService, cfg.Dictionary.Table)
	container.PostgresService = postgresService
	container.DictionaryRepository = repo
	return NewPostgresDictionarySource(repo, repo.Table(), nil), nil
}

func (f *ServiceFactory) createJobStore(logger Logger) (JobStore, error) {
	cfg := f.config.Jobs
	if cfg.Store == config.JobStoreLocal {
		store, err := NewLocalJobStore(cfg.Path, cfg.CleanupInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create job store: %w", err)
		}
		return store, nil
	}
	return NewInMemoryJobStore(0, cfg.CleanupInterval), nil
}

// PostgresConfigFrom maps the application database settings onto the pool config
func PostgresConfigFrom(db config.DatabaseConfig) *database.PostgresConfig {
	pgConfig := database.DefaultPostgresConfig()
	pgConfig.Host = db.Host
	pgConfig.Port = db.Port
	pgConfig.Database = db.Database
	pgConfig.User = db.User
	pgConfig.Password = db.Password
	pgConfig.SSLMode = db.SSLMode
	pgConfig.MaxConns = int32(db.MaxConns)
	pgConfig.MinConns = int32(db.MinConns)
	return pgConfig
}

// Close releases the job store and database pool
func (c *ServiceContainer) Close() error {
	var err error
	if c.Jobs != nil {
		err = c.Jobs.Close()
	}
	if c.PostgresService != nil {
		c.PostgresService.Close()
	}
	return err
}

// unavailableSource stands in for a dictionary backend that could not be reached
type unavailableSource struct {
	describe string
	err      error
}

func (s unavailableSource) Load(ctx context.Context) (*substitution.Dictionary, error) {
	return nil, s.err
}

func (s unavailableSource) Describe() string {
	return s.describe
}
