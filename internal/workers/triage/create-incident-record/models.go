// internal/workers/triage/create-incident-record/models.go
package createincidentrecord

import (
	"context"
	"time"

	"incident-triage/internal/classifier"
	"incident-triage/internal/models"
)

type Input struct {
	classifier.IncidentInput
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status,omitempty"`
}

type Output struct {
	IncidentID         int64  `json:"incidentId"`
	Category           string `json:"category"`
	Priority           string `json:"priority"`
	Severity           string `json:"severity"`
	Status             string `json:"status"`
	CreatedAt          string `json:"createdAt"`
	Indexed            bool   `json:"indexed"`
	NotificationID     string `json:"notificationId,omitempty"`
	NotificationStatus string `json:"notificationStatus,omitempty"`
}

type IncidentStore interface {
	Create(ctx context.Context, inc *models.Incident) (int64, error)
}

type Indexer interface {
	Index(ctx context.Context, inc *models.Incident) error
}

type Pager interface {
	Notify(ctx context.Context, inc *models.Incident) (*models.Notification, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
