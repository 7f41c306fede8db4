package models

import (
	"sort"
	"strings"
)

// DictionaryEntry is one shorthand token and the full form it expands to
type DictionaryEntry struct {
	Shorthand string `json:"shorthand" yaml:"shorthand" toml:"shorthand" db:"shorthand"`
	FullForm  string `json:"full_form" yaml:"full_form" toml:"full_form" db:"full_form"`
}

// ReplacementLogEntry records a single substitution performed on a document.
// Original is the token text exactly as it appeared, Shorthand the dictionary
// key it matched.
type ReplacementLogEntry struct {
	Original    string   `json:"original"`
	Shorthand   string   `json:"shorthand"`
	Replacement string   `json:"replacement"`
	Location    Location `json:"location"`
}

// ReplacementFrequency counts occurrences per shorthand token
type ReplacementFrequency map[string]int

// FrequencyCount is a single shorthand/count pair
type FrequencyCount struct {
	Shorthand string `json:"shorthand"`
	FullForm  string `json:"full_form,omitempty"`
	Count     int    `json:"count"`
}

// Total returns the number of replacements counted
func (f ReplacementFrequency) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// Sorted returns counts ordered by count descending, then shorthand ascending
func (f ReplacementFrequency) Sorted() []FrequencyCount {
	counts := make([]FrequencyCount, 0, len(f))
	for k, n := range f {
		counts = append(counts, FrequencyCount{Shorthand: k, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Shorthand < counts[j].Shorthand
	})
	return counts
}

// ExportFormat is an output format for the cleaned document
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportTXT   ExportFormat = "txt"
	ExportExcel ExportFormat = "excel"
	ExportPDF   ExportFormat = "pdf"
)

// SupportedExportFormats lists every format the exporters can produce
var SupportedExportFormats = []ExportFormat{ExportCSV, ExportTXT, ExportExcel, ExportPDF}

// ParseExportFormat resolves a user-supplied format name.
// An empty name selects CSV; "xlsx" is accepted as an alias for Excel.
func ParseExportFormat(name string) (ExportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "csv":
		return ExportCSV, true
	case "txt", "text":
		return ExportTXT, true
	case "excel", "xlsx":
		return ExportExcel, true
	case "pdf":
		return ExportPDF, true
	default:
		return "", false
	}
}

// Extension returns the file extension for the format, without the dot
func (f ExportFormat) Extension() string {
	if f == ExportExcel {
		return "xlsx"
	}
	return string(f)
}

// ContentType returns the MIME type used when serving the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportTXT:
		return "text/plain; charset=utf-8"
	case ExportExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}
