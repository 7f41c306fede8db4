package substitution

import "clinical-note-cleaner/models"

// Frequency counts log entries per shorthand key
func Frequency(log []models.ReplacementLogEntry) models.ReplacementFrequency {
	freq := make(models.ReplacementFrequency)
	for _, entry := range log {
		freq[entry.Shorthand]++
	}
	return freq
}

// SortedFrequency returns counts ordered by count descending with full forms
// filled in from the log
func SortedFrequency(log []models.ReplacementLogEntry) []models.FrequencyCount {
	fullForms := make(map[string]string)
	for _, entry := range log {
		fullForms[entry.Shorthand] = entry.Replacement
	}

	counts := Frequency(log).Sorted()
	for i := range counts {
		counts[i].FullForm = fullForms[counts[i].Shorthand]
	}
	return counts
}
