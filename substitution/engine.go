// Package substitution expands clinical shorthand into full-form terms.
//
// The engine is pure: it takes a document and an immutable dictionary and
// returns a cleaned copy of the document together with an ordered log of
// every replacement. It performs no I/O and keeps no state between calls,
// so one Engine may be shared by concurrent requests.
package substitution

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"clinical-note-cleaner/models"
)

// Engine applies a dictionary to documents
type Engine struct {
	dict   *Dictionary
	policy TokenizerPolicy
}

// NewEngine creates an engine. A nil dictionary makes every run a pass-through.
func NewEngine(dict *Dictionary, policy TokenizerPolicy) *Engine {
	return &Engine{dict: dict, policy: policy}
}

// Dictionary returns the dictionary the engine was built with
func (e *Engine) Dictionary() *Dictionary {
	return e.dict
}

// Substitute replaces every dictionary token in doc.
// Units are visited in document order (row-major for tables, line order for
// text) and left to right within a unit, which is also the log order.
func (e *Engine) Substitute(doc models.Document) (models.Document, []models.ReplacementLogEntry, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("document is nil")
	}

	units := doc.Units()
	texts := make([]string, len(units))
	log := make([]models.ReplacementLogEntry, 0)

	for i, unit := range units {
		var unitLog []models.ReplacementLogEntry
		texts[i], unitLog = e.substituteUnit(unit)
		log = append(log, unitLog...)
	}

	cleaned, err := doc.WithUnits(texts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild document: %w", err)
	}
	return cleaned, log, nil
}

// SubstituteText cleans a single line of text
func (e *Engine) SubstituteText(text string) (string, []models.ReplacementLogEntry) {
	cleaned, log := e.substituteUnit(models.TextUnit{Row: 0, Column: models.NoColumn, Text: text})
	if log == nil {
		log = make([]models.ReplacementLogEntry, 0)
	}
	return cleaned, log
}

// substituteUnit scans one unit, preferring the longest key at each position
func (e *Engine) substituteUnit(unit models.TextUnit) (string, []models.ReplacementLogEntry) {
	text := unit.Text
	if e.dict.Len() == 0 || text == "" {
		return text, nil
	}

	// Byte offset of every rune start, plus len(text) as a sentinel
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	runeCount := len(offsets)
	offsets = append(offsets, len(text))

	var (
		b    strings.Builder
		log  []models.ReplacementLogEntry
		last int
		prev rune = utf8.RuneError
	)

	for k := 0; k < runeCount; {
		cur, _ := utf8.DecodeRuneInString(text[offsets[k]:])

		// A word-start key can never begin in the middle of a word
		if (k > 0 && e.policy.joins(prev, cur)) || !e.dict.mayStartWith(cur) {
			prev = cur
			k++
			continue
		}

		matched := 0
		maxLen := e.dict.maxKeyRunes
		if rest := runeCount - k; rest < maxLen {
			maxLen = rest
		}
		for n := maxLen; n >= 1; n-- {
			start, end := offsets[k], offsets[k+n]
			full, ok := e.dict.entries[strings.ToLower(text[start:end])]
			if !ok || !e.policy.AllowsMatch(text, start, end) {
				continue
			}

			b.WriteString(text[last:start])
			b.WriteString(full)
			last = end
			log = append(log, models.ReplacementLogEntry{
				Original:    text[start:end],
				Shorthand:   strings.ToLower(text[start:end]),
				Replacement: full,
				Location: models.Location{
					Row:    unit.Row,
					Column: unit.Column,
					Offset: start,
					Length: end - start,
				},
			})
			matched = n
			break
		}

		if matched == 0 {
			prev = cur
			k++
			continue
		}
		prev, _ = utf8.DecodeLastRuneInString(text[:offsets[k+matched]])
		k += matched
	}

	if log == nil {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), log
}

// Substitute is a convenience wrapper building a one-off engine
func Substitute(doc models.Document, dict *Dictionary, policy TokenizerPolicy) (models.Document, []models.ReplacementLogEntry, error) {
	return NewEngine(dict, policy).Substitute(doc)
}
