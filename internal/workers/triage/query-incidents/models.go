// internal/workers/triage/query-incidents/models.go
package queryincidents

import (
	"context"

	"incident-triage/internal/models"
	"incident-triage/internal/search"
)

type Input struct {
	QueryType  models.QueryType `json:"queryType"`
	IncidentID int64            `json:"incidentId,omitempty"`
	search.Query
}

type Output struct {
	QueryType models.QueryType  `json:"queryType"`
	Incidents []models.Incident `json:"incidents"`
	Count     int               `json:"count"`
	TotalHits int64             `json:"totalHits"`
}

type IncidentStore interface {
	List(ctx context.Context) ([]models.Incident, error)
	Get(ctx context.Context, id int64) (*models.Incident, error)
}

type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}
