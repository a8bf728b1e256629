// internal/models/notification.go
package models

import "time"

const (
	NotificationSent    = "sent"
	NotificationSkipped = "skipped"
	NotificationFailed  = "failed"
)

// Notification records the outcome of paging for one incident.
type Notification struct {
	ID         string    `json:"id"`
	IncidentID int64     `json:"incidentId"`
	Priority   string    `json:"priority"`
	Channels   []string  `json:"channels,omitempty"` // "sns", "ses"
	Status     string    `json:"status"`
	SentAt     time.Time `json:"sentAt,omitempty"`
}
