package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinical-note-cleaner/models"
)

func TestFrequency(t *testing.T) {
	log := []models.ReplacementLogEntry{
		{Original: "BP", Shorthand: "bp", Replacement: "blood pressure"},
		{Original: "pt", Shorthand: "pt", Replacement: "patient"},
		{Original: "bp", Shorthand: "bp", Replacement: "blood pressure"},
		{Original: "hr", Shorthand: "hr", Replacement: "heart rate"},
	}

	freq := Frequency(log)
	assert.Equal(t, models.ReplacementFrequency{"bp": 2, "pt": 1, "hr": 1}, freq)
	assert.Equal(t, len(log), freq.Total())

	assert.Equal(t, []models.FrequencyCount{
		{Shorthand: "bp", FullForm: "blood pressure", Count: 2},
		{Shorthand: "hr", FullForm: "heart rate", Count: 1},
		{Shorthand: "pt", FullForm: "patient", Count: 1},
	}, SortedFrequency(log))
}

func TestFrequency_EmptyLog(t *testing.T) {
	assert.Empty(t, Frequency(nil))
	assert.Empty(t, SortedFrequency(nil))
	assert.Equal(t, 0, Frequency(nil).Total())
}
