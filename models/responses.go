package models

import "time"

// APIError represents standardized error response
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ArtifactLinks holds download URLs for the artifacts of a job
type ArtifactLinks struct {
	Output  string `json:"output"`
	Log     string `json:"log"`
	Summary string `json:"summary"`
	Chart   string `json:"chart,omitempty"`
}

// CleanJobResponse summarizes a processed upload
type CleanJobResponse struct {
	JobID            string           `json:"job_id"`
	Filename         string           `json:"filename"`
	InputSHA256      string           `json:"input_sha256"`
	Format           ExportFormat     `json:"format"`
	DocumentKind     DocumentKind     `json:"document_kind"`
	UnitCount        int              `json:"unit_count"`
	ReplacementCount int              `json:"replacement_count"`
	Frequency        []FrequencyCount `json:"frequency"`
	Downloads        ArtifactLinks    `json:"downloads"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
}

// CleanJobDetail is a job summary plus its full replacement log
type CleanJobDetail struct {
	CleanJobResponse
	Log []ReplacementLogEntry `json:"log"`
}

// CleanTextResponse is the result of cleaning a single piece of text
type CleanTextResponse struct {
	Original  string                `json:"original"`
	Cleaned   string                `json:"cleaned"`
	Log       []ReplacementLogEntry `json:"log"`
	Frequency []FrequencyCount      `json:"frequency"`
}

// DictionaryResponse lists the entries of the active dictionary
type DictionaryResponse struct {
	Source  string            `json:"source"`
	Count   int               `json:"count"`
	Entries []DictionaryEntry `json:"entries"`
}

// FormatsResponse lists accepted input and output formats
type FormatsResponse struct {
	Input  []string       `json:"input"`
	Output []ExportFormat `json:"output"`
}
