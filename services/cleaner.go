package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/substitution"
)

// CleanerConfig holds the cleaning pipeline options
type CleanerConfig struct {
	// NotesColumn is the only column cleaned in tabular uploads; empty cleans every cell
	NotesColumn   string
	NormalizeText bool
	Policy        substitution.TokenizerPolicy
	JobTTL        time.Duration
}

// CleaningResult is the outcome of one Clean call
type CleaningResult struct {
	Job      *models.JobRecord
	Original models.Document
	Cleaned  models.Document
}

// CleaningDependencies are the collaborators of the cleaning service.
// Jobs and Metrics may be nil.
type CleaningDependencies struct {
	Dictionaries DictionaryProvider
	Parser       DocumentParser
	Exporter     DocumentExporter
	Chart        ChartRenderer
	Jobs         JobStore
	Metrics      MetricsService
	Logger       Logger
}

// DefaultCleaningService implements CleaningService
type DefaultCleaningService struct {
	deps   CleaningDependencies
	config CleanerConfig
	hasher *HashService
	now    func() time.Time
}

// NewCleaningService creates a cleaning service
func NewCleaningService(deps CleaningDependencies, config CleanerConfig) *DefaultCleaningService {
	if deps.Logger == nil {
		deps.Logger = NoopLogger{}
	}
	deps.Logger = deps.Logger.With(String("component", "cleaner"))
	if config.JobTTL <= 0 {
		config.JobTTL = time.Hour
	}
	return &DefaultCleaningService{deps: deps, config: config, hasher: NewHashService(), now: time.Now}
}

// Clean implements CleaningService
func (s *DefaultCleaningService) Clean(ctx context.Context, upload models.Upload) (*CleaningResult, error) {
	start := time.Now()
	result, err := s.clean(ctx, upload)

	tags := map[string]string{"format": formatTag(upload.Format)}
	s.recordDuration("clean.duration", time.Since(start), tags)
	if err != nil {
		s.increment("clean.errors", tags)
		return nil, err
	}
	s.increment("clean.requests", tags)
	s.setGauge("clean.last_replacements", float64(len(result.Job.Log)))
	return result, nil
}

func (s *DefaultCleaningService) clean(ctx context.Context, upload models.Upload) (*CleaningResult, error) {
	// Reject unknown formats before touching the file
	format, ok := models.ParseExportFormat(upload.Format)
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported export format %q", upload.Format), nil).
			WithDetails(fmt.Sprintf("supported formats: %v", models.SupportedExportFormats))
	}

	doc, err := s.deps.Parser.Parse(upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}

	doc, err = s.selectTargets(doc)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dict := s.deps.Dictionaries.Current()
	engine := substitution.NewEngine(dict, s.config.Policy)
	cleaned, log, err := engine.Substitute(doc)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeProcessingError, "substitution failed", err)
	}

	if s.config.NormalizeText {
		if cleaned, err = substitution.NormalizeDocument(cleaned); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeProcessingError, "normalization failed", err)
		}
	}

	artifacts, err := s.render(format, doc, cleaned, log)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &models.JobRecord{
		ID:           uuid.New().String(),
		Filename:     upload.Filename,
		InputSHA256:  s.hasher.CalculateHashFromBytes(upload.Content),
		Format:       format,
		DocumentKind: doc.Kind(),
		UnitCount:    len(doc.Units()),
		Log:          log,
		Frequency:    substitution.Frequency(log),
		Artifacts:    artifacts,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.config.JobTTL),
	}

	if s.deps.Jobs != nil {
		if err := s.deps.Jobs.Save(ctx, job); err != nil {
			return nil, err
		}
	}

	s.deps.Logger.Info("Upload cleaned",
		String("job_id", job.ID),
		String("filename", upload.Filename),
		String("input_sha256", job.InputSHA256),
		String("format", string(format)),
		Int("units", job.UnitCount),
		Int("replacements", len(log)),
		Int("dictionary_entries", dict.Len()))

	return &CleaningResult{Job: job, Original: doc, Cleaned: cleaned}, nil
}

// selectTargets restricts tabular documents to the configured notes column
func (s *DefaultCleaningService) selectTargets(doc models.Document) (models.Document, error) {
	table, ok := doc.(*models.TabularDocument)
	if !ok || s.config.NotesColumn == "" {
		return doc, nil
	}

	idx := table.ColumnIndex(s.config.NotesColumn)
	if idx < 0 {
		return nil, errors.NewValidationError(errors.ErrCodeMissingColumn,
			fmt.Sprintf("column %q not found", s.config.NotesColumn), nil).
			WithDetails(fmt.Sprintf("available columns: %v", table.Header))
	}

	targeted := *table
	targeted.Columns = []int{idx}
	return &targeted, nil
}

func (s *DefaultCleaningService) render(format models.ExportFormat, original, cleaned models.Document, log []models.ReplacementLogEntry) (map[string]models.Artifact, error) {
	output, err := s.deps.Exporter.Export(format, original, cleaned)
	if err != nil {
		return nil, err
	}
	logArtifact, err := s.deps.Exporter.ExportLog(log)
	if err != nil {
		return nil, err
	}
	counts := substitution.SortedFrequency(log)
	summary, err := s.deps.Exporter.ExportSummary(counts)
	if err != nil {
		return nil, err
	}

	artifacts := map[string]models.Artifact{
		models.ArtifactOutput:  output,
		models.ArtifactLog:     logArtifact,
		models.ArtifactSummary: summary,
	}

	// A chart needs at least one bar
	if len(counts) > 0 && s.deps.Chart != nil {
		var buf bytes.Buffer
		if err := s.deps.Chart.Render(&buf, counts); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to render chart", err)
		}
		artifacts[models.ArtifactChart] = models.Artifact{
			Name:        ChartFileName,
			ContentType: chartContentType,
			Data:        buf.Bytes(),
		}
	}
	return artifacts, nil
}

// CleanText implements CleaningService
func (s *DefaultCleaningService) CleanText(ctx context.Context, text string) (*models.CleanTextResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := substitution.NewEngine(s.deps.Dictionaries.Current(), s.config.Policy)
	cleaned, log := engine.SubstituteText(text)
	if s.config.NormalizeText {
		cleaned = substitution.NormalizeText(cleaned)
	}
	s.increment("clean_text.requests", nil)

	return &models.CleanTextResponse{
		Original:  text,
		Cleaned:   cleaned,
		Log:       log,
		Frequency: substitution.SortedFrequency(log),
	}, nil
}

func formatTag(name string) string {
	if format, ok := models.ParseExportFormat(name); ok {
		return string(format)
	}
	return "unsupported"
}

func (s *DefaultCleaningService) increment(name string, tags map[string]string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncrementCounter(name, tags)
	}
}

func (s *DefaultCleaningService) recordDuration(name string, d time.Duration, tags map[string]string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordDuration(name, d, tags)
	}
}

func (s *DefaultCleaningService) setGauge(name string, value float64) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SetGauge(name, value, nil)
	}
}
