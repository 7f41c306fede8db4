package substitution

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// edgePunctuation is what StrictEdges accepts next to a match besides whitespace
const edgePunctuation = `.,;:!?()[]{}"'`

// TokenizerPolicy decides where a dictionary key may match inside a unit.
//
// The base rule is that a match never splits a run of word characters: the
// character before the match and the first character of the match may not
// both be word characters, and likewise at the end. Letters, digits, marks
// and '_' are word characters; WordChars adds more (for example "-" so that
// "bp-like" counts as one word). Keys made of symbols such as "c/o" match
// verbatim under the same rule.
//
// StrictEdges additionally requires the characters around a match to be
// whitespace, the unit edge or sentence punctuation.
type TokenizerPolicy struct {
	WordChars   string `json:"word_chars" yaml:"word_chars"`
	StrictEdges bool   `json:"strict_edges" yaml:"strict_edges"`
}

// DefaultTokenizerPolicy returns the policy used when none is configured
func DefaultTokenizerPolicy() TokenizerPolicy {
	return TokenizerPolicy{}
}

// IsWordRune reports whether r belongs to a word under this policy
func (p TokenizerPolicy) IsWordRune(r rune) bool {
	if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
		return true
	}
	return p.WordChars != "" && strings.ContainsRune(p.WordChars, r)
}

// joins reports whether a and b are part of the same word
func (p TokenizerPolicy) joins(a, b rune) bool {
	return p.IsWordRune(a) && p.IsWordRune(b)
}

func isEdgeRune(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(edgePunctuation, r)
}

// AllowsMatch reports whether text[start:end] may be replaced as a whole token
func (p TokenizerPolicy) AllowsMatch(text string, start, end int) bool {
	if start >= end {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text[start:])
	last, _ := utf8.DecodeLastRuneInString(text[:end])

	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if p.joins(prev, first) {
			return false
		}
		if p.StrictEdges && !isEdgeRune(prev) {
			return false
		}
	}

	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if p.joins(last, next) {
			return false
		}
		if p.StrictEdges && !isEdgeRune(next) {
			return false
		}
	}

	return true
}
