// internal/classifier/priority.go
package classifier

import "strings"

type prioritySignals struct {
	tokens    tokenSet
	severity  string
	frequency string
	tags      []string
}

// priorityRule is one tier of the precedence cascade.
type priorityRule struct {
	name     string
	priority string
	matches  func(prioritySignals) bool
}

// priorityRules is evaluated top to bottom; the first match wins. The last
// rule always matches.
var priorityRules = []priorityRule{
	{name: "severity-critical", priority: PriorityP0, matches: func(s prioritySignals) bool {
		return contains(criticalSeverities, s.severity)
	}},
	{name: "severity-high", priority: PriorityP1, matches: func(s prioritySignals) bool {
		return contains(highSeverities, s.severity)
	}},
	{name: "frequency-continuous", priority: PriorityP0, matches: func(s prioritySignals) bool {
		return s.frequency == frequencyContinuous
	}},
	{name: "frequency-intermittent", priority: PriorityP1, matches: func(s prioritySignals) bool {
		return s.frequency == frequencyIntermittent
	}},
	{name: "high-keyword", priority: PriorityP0, matches: func(s prioritySignals) bool {
		return s.tokens.hasAny(highPriorityWords)
	}},
	{name: "escalation-tag", priority: PriorityP0, matches: func(s prioritySignals) bool {
		for _, t := range escalationTags {
			if contains(s.tags, t) {
				return true
			}
		}
		return false
	}},
	{name: "medium-keyword", priority: PriorityP1, matches: func(s prioritySignals) bool {
		return s.tokens.hasAny(mediumPriorityWords)
	}},
	{name: "default", priority: PriorityP2, matches: func(prioritySignals) bool {
		return true
	}},
}

func determinePriority(tokens tokenSet, severity, frequency, tags string) string {
	signals := prioritySignals{
		tokens:    tokens,
		severity:  lower(severity),
		frequency: lower(frequency),
		tags:      splitTags(tags),
	}
	for _, rule := range priorityRules {
		if rule.matches(signals) {
			return rule.priority
		}
	}
	return PriorityP2
}

// splitTags lower-cases a comma separated tag list and trims each entry.
func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(lower(tags), ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
