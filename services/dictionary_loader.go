package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/substitution"
)

// Column names of a CSV dictionary, compared after trimming and lower-casing
const (
	csvShorthandColumn = "shorthand"
	csvFullFormColumn  = "full_form"
)

// SupportedDictionaryExtensions lists the file dictionary formats
var SupportedDictionaryExtensions = []string{".csv", ".yaml", ".yml", ".toml", ".json"}

// FileDictionarySource loads a dictionary from a file, choosing the format by extension
type FileDictionarySource struct {
	path string
}

// NewFileDictionarySource creates a file-backed dictionary source
func NewFileDictionarySource(path string) *FileDictionarySource {
	return &FileDictionarySource{path: path}
}

// Path returns the file the source reads
func (s *FileDictionarySource) Path() string {
	return s.path
}

// Describe implements DictionarySource
func (s *FileDictionarySource) Describe() string {
	return "file:" + s.path
}

// Load implements DictionarySource
func (s *FileDictionarySource) Load(ctx context.Context) (*substitution.Dictionary, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return substitution.NewDictionary(entries)
}

// Entries reads the raw entries of the file without building a dictionary
func (s *FileDictionarySource) Entries(ctx context.Context) ([]models.DictionaryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeDictionaryUnavailable,
			fmt.Sprintf("cannot read dictionary %s", s.path), err)
	}
	return ParseDictionaryEntries(filepath.Ext(s.path), data)
}

// ParseDictionaryEntries decodes dictionary content in the format named by ext
func ParseDictionaryEntries(ext string, data []byte) ([]models.DictionaryEntry, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return parseCSVDictionary(data)
	case ".yaml", ".yml":
		values := make(map[string]interface{})
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, invalidDictionary("YAML", err)
		}
		return entriesFromValues(values)
	case ".toml":
		values := make(map[string]interface{})
		if err := toml.Unmarshal(data, &values); err != nil {
			return nil, invalidDictionary("TOML", err)
		}
		return entriesFromValues(values)
	case ".json":
		values := make(map[string]interface{})
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, invalidDictionary("JSON", err)
		}
		return entriesFromValues(values)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("unsupported dictionary format %q", ext), nil)
	}
}

// parseCSVDictionary reads a two-column shorthand,full_form table.
// Rows with an empty shorthand or full form are skipped; later rows win on duplicates.
func parseCSVDictionary(data []byte) ([]models.DictionaryEntry, error) {
	text, _ := decodeText(data)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidDictionary, "dictionary CSV is empty", nil)
	}
	if err != nil {
		return nil, invalidDictionary("CSV", err)
	}

	shortIdx, fullIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case csvShorthandColumn:
			shortIdx = i
		case csvFullFormColumn:
			fullIdx = i
		}
	}
	if shortIdx < 0 || fullIdx < 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidDictionary,
			fmt.Sprintf("dictionary CSV must have %q and %q columns", csvShorthandColumn, csvFullFormColumn), nil)
	}

	var entries []models.DictionaryEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalidDictionary("CSV", err)
		}
		if shortIdx >= len(record) || fullIdx >= len(record) {
			continue
		}

		shorthand := strings.TrimSpace(record[shortIdx])
		fullForm := strings.TrimSpace(record[fullIdx])
		if shorthand == "" || fullForm == "" {
			continue
		}
		entries = append(entries, models.DictionaryEntry{Shorthand: shorthand, FullForm: fullForm})
	}
	return entries, nil
}

// entriesFromValues converts a decoded shorthand -> full form mapping.
// Non-string values are rejected so that typos like a nested table fail loudly.
func entriesFromValues(values map[string]interface{}) ([]models.DictionaryEntry, error) {
	dict, err := substitution.NewDictionaryFromValues(values)
	if err != nil {
		return nil, err
	}
	return dict.Entries(), nil
}

func invalidDictionary(format string, cause error) error {
	return errors.NewValidationError(errors.ErrCodeInvalidDictionary,
		fmt.Sprintf("dictionary is not valid %s", format), cause)
}
