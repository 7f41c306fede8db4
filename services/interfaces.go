package services

import (
	"context"
	"io"

	"clinical-note-cleaner/models"
	"clinical-note-cleaner/substitution"
)

// DictionarySource loads a shorthand dictionary from a backing store
type DictionarySource interface {
	Load(ctx context.Context) (*substitution.Dictionary, error)
	Describe() string
}

// DictionaryProvider serves the current dictionary snapshot
type DictionaryProvider interface {
	Current() *substitution.Dictionary
	Reload(ctx context.Context) (*substitution.Dictionary, error)
	Source() string
}

// DocumentParser turns an uploaded file into a Document
type DocumentParser interface {
	Parse(filename string, content []byte) (models.Document, error)
	SupportedExtensions() []string
}

// DocumentExporter renders cleaned documents and replacement reports
type DocumentExporter interface {
	Export(format models.ExportFormat, original, cleaned models.Document) (models.Artifact, error)
	ExportLog(log []models.ReplacementLogEntry) (models.Artifact, error)
	ExportSummary(counts []models.FrequencyCount) (models.Artifact, error)
}

// ChartRenderer draws the replacement frequency chart
type ChartRenderer interface {
	Render(w io.Writer, counts []models.FrequencyCount) error
}

// CleaningService runs uploads through the substitution pipeline
type CleaningService interface {
	Clean(ctx context.Context, upload models.Upload) (*CleaningResult, error)
	CleanText(ctx context.Context, text string) (*models.CleanTextResponse, error)
}

// JobStore keeps processed uploads addressable by job id
type JobStore interface {
	Save(ctx context.Context, job *models.JobRecord) error
	Get(ctx context.Context, id string) (*models.JobRecord, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}
