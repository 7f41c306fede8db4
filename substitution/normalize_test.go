package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-note-cleaner/models"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Pt c/o pain!!  (severe)", "Pt c/o pain severe"},
		{"  bp 150/90, hr 80.  ", "bp 150/90, hr 80"},
		{"élevé\t\tfièvre", "élevé fièvre"},
		{"", ""},
		{"***", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeDocument(t *testing.T) {
	doc := models.NewLineDocument([]string{"blood pressure!", "heart  rate."})

	out, err := NormalizeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"blood pressure", "heart rate"}, out.(*models.LineDocument).Lines)
}
