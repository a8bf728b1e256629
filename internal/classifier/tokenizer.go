// internal/classifier/tokenizer.go
package classifier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenize lower-cases s and splits it on every run of characters outside
// [a-z0-9]. Empty fragments are dropped, so an empty string yields nil.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(lower(s), isSeparator)
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}

// lower applies full Unicode lower-casing. A Caser is stateful, so one is
// built per call to keep Tokenize safe for concurrent use.
func lower(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}

// tokenSet is a membership view over a token sequence.
type tokenSet map[string]struct{}

func newTokenSet(tokens []string) tokenSet {
	set := make(tokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func (s tokenSet) has(word string) bool {
	_, ok := s[word]
	return ok
}

func (s tokenSet) hasAny(words []string) bool {
	for _, w := range words {
		if s.has(w) {
			return true
		}
	}
	return false
}
