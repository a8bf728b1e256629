// internal/workers/triage/update-incident-status/handler.go
package updateincidentstatus

import (
	"context"
	stderrors "errors"
	"time"

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
	TaskType = "update-incident-status"
)

type Handler struct {
	config  *Config
	store   IncidentStore
	indexer Indexer
	runner  *jobs.Runner
	now     func() time.Time
}

// NewHandler wires the status worker. indexer may be nil when search is
// disabled.
func NewHandler(config *Config, st IncidentStore, indexer Indexer, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		config:  config,
		store:   st,
		indexer: indexer,
		runner:  jobs.NewRunner(TaskType, config.Timeout, log, obs),
		now:     time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
	input := &Input{}
	// json numbers arrive as float64
	if id, ok := vars["incidentId"].(float64); ok {
		input.IncidentID = int64(id)
	}
	input.Status, _ = vars["status"].(string)
	return h.Execute(ctx, input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewIncidentValidationFailedError("input cannot be nil")
	}
	if input.IncidentID <= 0 {
		return nil, errors.NewIncidentValidationFailedError("incidentId must be a positive integer")
	}
	if !models.IsValidStatus(input.Status) {
		return nil, errors.NewInvalidStatusError(input.Status)
	}

	if err := h.store.UpdateStatus(ctx, input.IncidentID, input.Status); err != nil {
		switch {
		case stderrors.Is(err, store.ErrIncidentNotFound):
			return nil, errors.NewIncidentNotFoundError(input.IncidentID, err)
		case stderrors.Is(err, store.ErrInvalidStatus):
			return nil, errors.NewInvalidStatusError(input.Status)
		case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
			return nil, errors.NewQueryTimeoutError("updateStatus", err)
		default:
			return nil, errors.NewQueryExecutionFailedError("updateStatus", err)
		}
	}

	log := h.runner.Logger().WithFields(map[string]interface{}{"incidentId": input.IncidentID})
	log.Info("incident status updated", map[string]interface{}{"status": input.Status})

	return &Output{
		IncidentID: input.IncidentID,
		Status:     input.Status,
		UpdatedAt:  h.now().UTC().Format(time.RFC3339),
		Indexed:    h.reindex(ctx, log, input.IncidentID),
	}, nil
}

// reindex reloads the updated row and writes it to the search index.
// Failures are logged and never fail the job.
func (h *Handler) reindex(ctx context.Context, log logger.Logger, id int64) bool {
	if h.indexer == nil {
		return false
	}
	inc, err := h.store.Get(ctx, id)
	if err != nil {
		log.Warn("reload for indexing failed", map[string]interface{}{"error": err})
		return false
	}
	if err := h.indexer.Index(ctx, inc); err != nil {
		log.Warn("incident indexing failed", map[string]interface{}{"error": err})
		return false
	}
	return true
}
