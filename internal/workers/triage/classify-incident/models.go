// internal/workers/triage/classify-incident/models.go
package classifyincident

import "incident-triage/internal/classifier"

type Input = classifier.IncidentInput

type Output struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Severity string `json:"severity"`
}
