package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

func TestNewDictionary_NormalizesKeys(t *testing.T) {
	dict, err := NewDictionary([]models.DictionaryEntry{
		{Shorthand: " BP ", FullForm: " Blood Pressure "},
		{Shorthand: "Hr", FullForm: "heart rate"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, dict.Len())
	full, ok := dict.Lookup("bp")
	assert.True(t, ok)
	assert.Equal(t, "Blood Pressure", full)

	full, ok = dict.Lookup("HR")
	assert.True(t, ok)
	assert.Equal(t, "heart rate", full)

	_, ok = dict.Lookup("rr")
	assert.False(t, ok)
}

func TestNewDictionary_DuplicatesLaterWins(t *testing.T) {
	dict, err := NewDictionary([]models.DictionaryEntry{
		{Shorthand: "pt", FullForm: "physical therapy"},
		{Shorthand: "PT", FullForm: "patient"},
	})
	require.NoError(t, err)

	full, _ := dict.Lookup("pt")
	assert.Equal(t, "patient", full)
	assert.Equal(t, []string{"pt"}, dict.Duplicates())
}

func TestNewDictionary_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.DictionaryEntry
	}{
		{"empty shorthand", []models.DictionaryEntry{{Shorthand: "  ", FullForm: "blank"}}},
		{"empty full form", []models.DictionaryEntry{{Shorthand: "bp", FullForm: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict, err := NewDictionary(tt.entries)
			assert.Nil(t, dict)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidDictionary))
		})
	}
}

func TestNewDictionaryFromValues_RejectsNonString(t *testing.T) {
	_, err := NewDictionaryFromValues(map[string]interface{}{
		"bp": "blood pressure",
		"hr": 72,
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidDictionary))
	assert.Contains(t, err.Error(), `"hr"`)

	dict, err := NewDictionaryFromValues(map[string]interface{}{"bp": "blood pressure"})
	require.NoError(t, err)
	assert.Equal(t, 1, dict.Len())
}

func TestDictionary_EntriesSorted(t *testing.T) {
	dict := mustDictionary(t, map[string]string{"sob": "shortness of breath", "bp": "blood pressure", "c/o": "complains of"})

	assert.Equal(t, []models.DictionaryEntry{
		{Shorthand: "bp", FullForm: "blood pressure"},
		{Shorthand: "c/o", FullForm: "complains of"},
		{Shorthand: "sob", FullForm: "shortness of breath"},
	}, dict.Entries())
}

func TestDictionary_NilIsEmpty(t *testing.T) {
	var dict *Dictionary

	assert.Equal(t, 0, dict.Len())
	assert.Empty(t, dict.Entries())
	assert.Nil(t, dict.Duplicates())
	_, ok := dict.Lookup("bp")
	assert.False(t, ok)
}
