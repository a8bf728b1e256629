// internal/workers/triage/classify-incident/handler.go
package classifyincident

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"incident-triage/internal/classifier"
	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/common/metrics"
	"incident-triage/internal/common/observability"
	"incident-triage/internal/workers/triage/jobs"
)

const (
	TaskType = "classify-incident"
)

type Handler struct {
	config     *Config
	classifier *classifier.Classifier
	runner     *jobs.Runner
}

func NewHandler(config *Config, cls *classifier.Classifier, log logger.Logger, obs *observability.Observability) *Handler {
	if cls == nil {
		cls = classifier.New()
	}
	return &Handler{
		config:     config,
		classifier: cls,
		runner:     jobs.NewRunner(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
	input := classifier.FromVariables(vars)
	return h.Execute(ctx, &input)
}

// Execute classifies one incident. It never fails for a non-nil input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewIncidentValidationFailedError("input cannot be nil")
	}

	result := h.classifier.Classify(*input)
	metrics.IncidentsClassified.WithLabelValues(result.Category, result.Priority).Inc()

	h.runner.Logger().Debug("incident classified", map[string]interface{}{
		"category": result.Category,
		"priority": result.Priority,
		"severity": result.Severity,
	})

	return &Output{
		Category: result.Category,
		Priority: result.Priority,
		Severity: result.Severity,
	}, nil
}
