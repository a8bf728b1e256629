// internal/workers/triage/create-incident-record/handler.go
package createincidentrecord

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"incident-triage/internal/classifier"
	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/common/metrics"
	"incident-triage/internal/common/observability"
	"incident-triage/internal/models"
	"incident-triage/internal/store"
	"incident-triage/internal/workers/triage/jobs"
)

const (
	TaskType = "create-incident-record"
)

type Handler struct {
	config     *Config
	classifier *classifier.Classifier
	store      IncidentStore
	indexer    Indexer
	pager      Pager
	runner     *jobs.Runner
}

type HandlerOptions struct {
	Config     *Config
	Classifier *classifier.Classifier
	Store      IncidentStore
	Indexer    Indexer // optional
	Pager      Pager   // optional
	Logger     logger.Logger
	Obs        *observability.Observability
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
	}
	cls := opts.Classifier
	if cls == nil {
		cls = classifier.New()
	}
	return &Handler{
		config:     cfg,
		classifier: cls,
		store:      opts.Store,
		indexer:    opts.Indexer,
		pager:      opts.Pager,
		runner:     jobs.NewRunner(TaskType, cfg.Timeout, opts.Logger, opts.Obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
	input := &Input{IncidentInput: classifier.FromVariables(vars)}
	input.Phone, _ = vars["phone"].(string)
	input.Status, _ = vars["status"].(string)
	return h.Execute(ctx, input)
}

// Execute classifies and persists the incident, then indexes and pages it.
// Indexing and paging failures are logged and never fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewIncidentValidationFailedError("input cannot be nil")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.NewIncidentValidationFailedError("title is required")
	}
	if input.Status != "" && !models.IsValidStatus(input.Status) {
		return nil, errors.NewInvalidStatusError(input.Status)
	}

	result := h.classifier.Classify(input.IncidentInput)
	metrics.IncidentsClassified.WithLabelValues(result.Category, result.Priority).Inc()

	inc := &models.Incident{
		Title:             input.Title,
		Description:       input.Description,
		Severity:          result.Severity,
		Category:          result.Category,
		Priority:          result.Priority,
		Status:            input.Status,
		Metadata:          input.Metadata,
		Phone:             input.Phone,
		WebsiteType:       input.WebsiteType,
		IncidentFrequency: input.IncidentFrequency,
		ServiceAffected:   input.ServiceAffected,
		RootCauseCategory: input.RootCauseCategory,
		Tags:              input.Tags,
	}

	if _, err := h.store.Create(ctx, inc); err != nil {
		return nil, mapStoreError(ctx, err)
	}
	metrics.IncidentsCreated.Inc()

	log := h.runner.Logger().WithFields(map[string]interface{}{"incidentId": inc.ID})
	log.Info("incident created", map[string]interface{}{
		"category": inc.Category,
		"priority": inc.Priority,
	})

	output := &Output{
		IncidentID: inc.ID,
		Category:   inc.Category,
		Priority:   inc.Priority,
		Severity:   inc.Severity,
		Status:     inc.Status,
		CreatedAt:  formatTime(inc.CreatedAt),
	}

	if h.indexer != nil {
		if err := h.indexer.Index(ctx, inc); err != nil {
			log.Warn("incident indexing failed", map[string]interface{}{"error": err})
		} else {
			output.Indexed = true
		}
	}

	if h.pager != nil {
		notification, err := h.pager.Notify(ctx, inc)
		if err != nil {
			log.Warn("incident paging failed", map[string]interface{}{
				"error": errors.NewNotificationSendFailedError("pager", err),
			})
		}
		if notification != nil {
			output.NotificationID = notification.ID
			output.NotificationStatus = notification.Status
			metrics.NotificationsTotal.WithLabelValues(notification.Status).Inc()
		}
	}

	return output, nil
}

func mapStoreError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, store.ErrInvalidStatus):
		return errors.NewIncidentValidationFailedError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return errors.NewQueryTimeoutError("create", err)
	default:
		return errors.NewDatabaseInsertFailedError(err)
	}
}
