// internal/models/incident.go
package models

import "time"

// Incident is a persisted incident record. Optional text fields are empty
// when absent.
type Incident struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Severity          string    `json:"severity"`
	Category          string    `json:"category"`
	Priority          string    `json:"priority"`
	Status            string    `json:"status"`
	Metadata          string    `json:"metadata,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	WebsiteType       string    `json:"websiteType,omitempty"`
	IncidentFrequency string    `json:"incidentFrequency,omitempty"`
	ServiceAffected   string    `json:"serviceAffected,omitempty"`
	RootCauseCategory string    `json:"rootCauseCategory,omitempty"`
	Tags              string    `json:"tags,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

const (
	StatusOpen          = "Open"
	StatusInvestigating = "Investigating"
	StatusInProgress    = "In Progress"
	StatusResolved      = "Resolved"
	StatusClosed        = "Closed"
)

// Statuses lists the accepted lifecycle states in workflow order.
var Statuses = []string{
	StatusOpen,
	StatusInvestigating,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
