// internal/classifier/classifier.go
package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Classifier derives a category and priority from an incident report. Its
// tables are copied at construction and never mutated, so a Classifier can
// be shared between goroutines.
type Classifier struct {
	rules  []CategoryRule
	boosts []ServiceBoost
}

type Option func(*Classifier)

// WithRules replaces the category table.
func WithRules(rules ...CategoryRule) Option {
	return func(c *Classifier) {
		c.rules = copyRules(rules)
	}
}

// WithServiceBoosts replaces the serviceAffected substring boosts.
func WithServiceBoosts(boosts ...ServiceBoost) Option {
	return func(c *Classifier) {
		c.boosts = append([]ServiceBoost(nil), boosts...)
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules:  copyRules(DefaultRules),
		boosts: append([]ServiceBoost(nil), DefaultServiceBoosts...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = New()

// Classify runs the reference tables over input.
func Classify(input IncidentInput) ClassificationResult {
	return defaultClassifier.Classify(input)
}

func (c *Classifier) Classify(input IncidentInput) ClassificationResult {
	tokens := append(Tokenize(input.Title), Tokenize(input.Description)...)
	set := newTokenSet(tokens)

	severity := input.Severity
	if severity == "" {
		severity = DefaultSeverity
	}

	return ClassificationResult{
		Category: c.scoreCategory(set, input.RootCauseCategory, input.ServiceAffected),
		Priority: determinePriority(set, input.Severity, input.IncidentFrequency, input.Tags),
		Severity: severity,
	}
}

type categoryScore struct {
	category string
	count    int
}

// scoreCategory counts keyword hits per category, applies the structured
// field boosts and returns the first category with the highest non-zero
// count.
func (c *Classifier) scoreCategory(tokens tokenSet, rootCause, service string) string {
	scores := make([]categoryScore, 0, len(c.rules))
	index := make(map[string]int, len(c.rules))
	for _, rule := range c.rules {
		count := 0
		for _, kw := range rule.Keywords {
			if tokens.has(kw) {
				count++
			}
		}
		if i, ok := index[rule.Category]; ok {
			scores[i].count += count
			continue
		}
		index[rule.Category] = len(scores)
		scores = append(scores, categoryScore{category: rule.Category, count: count})
	}

	if rootCause != "" {
		if i, ok := index[capitalize(lower(rootCause))]; ok {
			scores[i].count++
		}
	}

	if service != "" {
		sa := lower(service)
		for _, b := range c.boosts {
			if b.Contains == "" || !strings.Contains(sa, b.Contains) {
				continue
			}
			i, ok := index[b.Category]
			if !ok {
				i = len(scores)
				index[b.Category] = i
				scores = append(scores, categoryScore{category: b.Category})
			}
			scores[i].count++
		}
	}

	best, bestCount := CategoryGeneral, 0
	for _, s := range scores {
		if s.count > bestCount {
			best, bestCount = s.category, s.count
		}
	}
	return best
}

// capitalize upper-cases the first rune only, so "api" becomes "Api" and
// does not name the API category.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func copyRules(rules []CategoryRule) []CategoryRule {
	out := make([]CategoryRule, len(rules))
	for i, r := range rules {
		out[i] = CategoryRule{
			Category: r.Category,
			Keywords: append([]string(nil), r.Keywords...),
		}
	}
	return out
}
