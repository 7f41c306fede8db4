package substitution

import (
	"strings"
	"unicode"

	"clinical-note-cleaner/models"
)

// NormalizeText drops every character that is not a word character,
// whitespace, ',' or '/', then collapses whitespace runs to one space.
func NormalizeText(text string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r == '_' || r == ',' || r == '/':
			return r
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Join(strings.Fields(kept), " ")
}

// NormalizeDocument applies NormalizeText to every unit of doc
func NormalizeDocument(doc models.Document) (models.Document, error) {
	units := doc.Units()
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = NormalizeText(unit.Text)
	}
	return doc.WithUnits(texts)
}
