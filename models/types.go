package models

import (
	"errors"
	"time"
)

// Upload is a file submitted for cleaning
type Upload struct {
	Filename string
	Content  []byte
	Format   string
}

// Artifact is a rendered output file held by a job
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Artifact kinds addressable through the download endpoint
const (
	ArtifactOutput  = "output"
	ArtifactLog     = "log"
	ArtifactSummary = "summary"
	ArtifactChart   = "chart"
)

// JobRecord is a processed upload kept for later download
type JobRecord struct {
	ID           string                `json:"id"`
	Filename     string                `json:"filename"`
	InputSHA256  string                `json:"input_sha256"`
	Format       ExportFormat          `json:"format"`
	DocumentKind DocumentKind          `json:"document_kind"`
	UnitCount    int                   `json:"unit_count"`
	Log          []ReplacementLogEntry `json:"log"`
	Frequency    ReplacementFrequency  `json:"frequency"`
	Artifacts    map[string]Artifact   `json:"artifacts"`
	CreatedAt    time.Time             `json:"created_at"`
	ExpiresAt    time.Time             `json:"expires_at"`
}

// Common errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyText    = errors.New("text is required")
)
