// internal/workers/triage/query-incidents/handler.go
package queryincidents

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/common/observability"
	"incident-triage/internal/models"
	"incident-triage/internal/store"
	"incident-triage/internal/workers/triage/jobs"
)

const (
	TaskType = "query-incidents"
)

type Handler struct {
	config   *Config
	store    IncidentStore
	searcher Searcher
	runner   *jobs.Runner
}

// NewHandler builds the query handler. A nil searcher makes search queries
// filter the store listing instead.
func NewHandler(config *Config, st IncidentStore, searcher Searcher, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		config:   config,
		store:    st,
		searcher: searcher,
		runner:   jobs.NewRunner(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
	input := &Input{}
	if qt, ok := vars["queryType"].(string); ok {
		input.QueryType = models.QueryType(qt)
	}
	if id, ok := vars["incidentId"].(float64); ok {
		input.IncidentID = int64(id)
	}
	input.Text, _ = vars["text"].(string)
	input.Category, _ = vars["category"].(string)
	input.Priority, _ = vars["priority"].(string)
	input.Status, _ = vars["status"].(string)
	if size, ok := vars["size"].(float64); ok {
		input.Size = int(size)
	}
	return h.Execute(ctx, input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewIncidentValidationFailedError("input cannot be nil")
	}

	var (
		incidents []models.Incident
		total     int64
		err       error
	)
	switch input.QueryType {
	case models.QueryTypeAll:
		incidents, err = h.store.List(ctx)
		if err != nil {
			return nil, storeError(ctx, input, err)
		}
		total = int64(len(incidents))
	case models.QueryTypeByID:
		if input.IncidentID <= 0 {
			return nil, errors.NewIncidentValidationFailedError("incidentId is required for byId queries")
		}
		inc, err := h.store.Get(ctx, input.IncidentID)
		if err != nil {
			return nil, storeError(ctx, input, err)
		}
		incidents, total = []models.Incident{*inc}, 1
	case models.QueryTypeSearch:
		incidents, total, err = h.search(ctx, input)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewInvalidQueryTypeError(string(input.QueryType))
	}

	if incidents == nil {
		incidents = []models.Incident{}
	}

	h.runner.Logger().Debug("incidents queried", map[string]interface{}{
		"queryType": input.QueryType,
		"count":     len(incidents),
	})

	return &Output{
		QueryType: input.QueryType,
		Incidents: incidents,
		Count:     len(incidents),
		TotalHits: total,
	}, nil
}

func (h *Handler) search(ctx context.Context, input *Input) ([]models.Incident, int64, error) {
	if h.searcher == nil {
		all, err := h.store.List(ctx)
		if err != nil {
			return nil, 0, storeError(ctx, input, err)
		}
		matched := filterIncidents(all, input)
		total := int64(len(matched))
		if size := input.Size; size > 0 && len(matched) > size {
			matched = matched[:size]
		}
		return matched, total, nil
	}

	result, err := h.searcher.Search(ctx, input.Query)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, 0, errors.NewSearchTimeoutError(err)
		}
		return nil, 0, errors.NewSearchQueryFailedError(err)
	}
	return result.Incidents, result.TotalHits, nil
}

func storeError(ctx context.Context, input *Input, err error) error {
	switch {
	case stderrors.Is(err, store.ErrIncidentNotFound):
		return errors.NewIncidentNotFoundError(input.IncidentID, err)
	case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return errors.NewQueryTimeoutError(string(input.QueryType), err)
	default:
		return errors.NewQueryExecutionFailedError(string(input.QueryType), err)
	}
}

// filterIncidents applies exact field filters and a case-insensitive text
// match over title, description and tags.
func filterIncidents(incidents []models.Incident, input *Input) []models.Incident {
	text := strings.ToLower(strings.TrimSpace(input.Text))
	out := make([]models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if input.Category != "" && inc.Category != input.Category {
			continue
		}
		if input.Priority != "" && inc.Priority != input.Priority {
			continue
		}
		if input.Status != "" && inc.Status != input.Status {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(inc.Title+" "+inc.Description+" "+inc.Tags), text) {
			continue
		}
		out = append(out, inc)
	}
	return out
}
