package substitution

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

// Dictionary is an immutable shorthand lookup table.
// Keys are stored normalized (trimmed, lower-cased); full forms are kept as authored.
// A nil *Dictionary is valid and behaves as an empty dictionary.
type Dictionary struct {
	entries     map[string]string
	keys        []string
	duplicates  []string
	maxKeyRunes int
	firstRunes  map[rune]struct{}
}

// NormalizeKey returns the lookup form of a shorthand token
func NormalizeKey(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// NewDictionary builds a dictionary from ordered entries.
// When two entries normalize to the same key the later one wins; the key is
// reported by Duplicates. An empty shorthand or full form is a structural error.
func NewDictionary(entries []models.DictionaryEntry) (*Dictionary, error) {
	d := &Dictionary{
		entries:    make(map[string]string, len(entries)),
		firstRunes: make(map[rune]struct{}),
	}

	for i, entry := range entries {
		key := NormalizeKey(entry.Shorthand)
		full := strings.TrimSpace(entry.FullForm)
		if key == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidDictionary,
				fmt.Sprintf("entry %d has an empty shorthand", i+1), nil)
		}
		if full == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidDictionary,
				fmt.Sprintf("shorthand %q has an empty full form", entry.Shorthand), nil)
		}
		if _, seen := d.entries[key]; seen {
			d.duplicates = append(d.duplicates, key)
		}
		d.entries[key] = full
	}

	d.keys = make([]string, 0, len(d.entries))
	for key := range d.entries {
		d.keys = append(d.keys, key)
		if n := utf8.RuneCountInString(key); n > d.maxKeyRunes {
			d.maxKeyRunes = n
		}
		first, _ := utf8.DecodeRuneInString(key)
		d.firstRunes[first] = struct{}{}
	}
	sort.Strings(d.keys)

	return d, nil
}

// NewDictionaryFromMap builds a dictionary from a plain mapping.
// Keys are applied in sorted order so duplicate resolution is deterministic.
func NewDictionaryFromMap(m map[string]string) (*Dictionary, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]models.DictionaryEntry, len(keys))
	for i, k := range keys {
		entries[i] = models.DictionaryEntry{Shorthand: k, FullForm: m[k]}
	}
	return NewDictionary(entries)
}

// NewDictionaryFromValues builds a dictionary from loosely typed decoded data
// (YAML, TOML, JSON). Any value that is not a string fails validation.
func NewDictionaryFromValues(m map[string]interface{}) (*Dictionary, error) {
	typed := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidDictionary,
				fmt.Sprintf("shorthand %q maps to a %T, expected a string", k, v), nil)
		}
		typed[k] = s
	}
	return NewDictionaryFromMap(typed)
}

// Lookup returns the full form for a token, matching case-insensitively
func (d *Dictionary) Lookup(token string) (string, bool) {
	if d == nil {
		return "", false
	}
	full, ok := d.entries[NormalizeKey(token)]
	return full, ok
}

// Len returns the number of distinct shorthand keys
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns the dictionary content ordered by shorthand
func (d *Dictionary) Entries() []models.DictionaryEntry {
	if d == nil {
		return []models.DictionaryEntry{}
	}
	out := make([]models.DictionaryEntry, len(d.keys))
	for i, k := range d.keys {
		out[i] = models.DictionaryEntry{Shorthand: k, FullForm: d.entries[k]}
	}
	return out
}

// Duplicates returns keys that appeared more than once at construction
func (d *Dictionary) Duplicates() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.duplicates...)
}

// mayStartWith reports whether some key begins with r (case-insensitively)
func (d *Dictionary) mayStartWith(r rune) bool {
	_, ok := d.firstRunes[unicode.ToLower(r)]
	if !ok {
		// Keys are lowered with strings.ToLower, which can differ from
		// unicode.ToLower for a few special cases.
		_, ok = d.firstRunes[r]
	}
	return ok
}
