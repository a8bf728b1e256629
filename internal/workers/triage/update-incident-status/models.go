// internal/workers/triage/update-incident-status/models.go
package updateincidentstatus

import (
	"context"

	"incident-triage/internal/models"
)

type Input struct {
	IncidentID int64  `json:"incidentId"`
	Status     string `json:"status"`
}

type Output struct {
	IncidentID int64  `json:"incidentId"`
	Status     string `json:"status"`
	UpdatedAt  string `json:"updatedAt"`
	Indexed    bool   `json:"indexed"`
}

type IncidentStore interface {
	UpdateStatus(ctx context.Context, id int64, status string) error
	Get(ctx context.Context, id int64) (*models.Incident, error)
}

// Indexer refreshes the searchable copy after a status change.
type Indexer interface {
	Index(ctx context.Context, inc *models.Incident) error
}
