// internal/workers/triage/jobs/runner.go
package jobs

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/common/metrics"
	"incident-triage/internal/common/observability"
	"incident-triage/internal/common/validation"
	"incident-triage/pkg/registry"
)

const commandTimeout = 10 * time.Second

// Runner carries what every triage handler needs to process a job: logging,
// metrics, tracing and the complete/fail protocol.
type Runner struct {
	taskType string
	timeout  time.Duration
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	registry *registry.ActivityRegistry
}

func NewRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Runner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
		registry: registry.Default(),
	}
}

func (r *Runner) Logger() logger.Logger { return r.logger }

// Process parses and validates the job variables and runs fn on them under
// the job timeout. It does not talk to the broker.
func (r *Runner) Process(job entities.Job, fn func(ctx context.Context, vars map[string]interface{}) (interface{}, error)) (interface{}, error) {
	vars, err := r.Variables(job)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.obs.StartSpan(ctx, r.taskType,
		attribute.Int64("jobKey", job.Key),
		attribute.Int64("processInstanceKey", job.ProcessInstanceKey),
	)
	output, err := fn(ctx, vars)
	observability.EndSpan(span, err)
	return output, err
}

// Run processes job and completes it with the output or fails it through
// the error handler.
func (r *Runner) Run(client worker.JobClient, job entities.Job, fn func(ctx context.Context, vars map[string]interface{}) (interface{}, error)) {
	start := time.Now()
	done := metrics.JobStarted(r.taskType)

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	output, err := r.Process(job, fn)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err != nil {
		stdErr := errors.Normalize(err)
		r.errors.HandleJobError(ctx, client, job, stdErr)
		done(string(stdErr.Code))
		r.record(ctx, start, "failed")
		return
	}

	r.completeJob(ctx, client, job, output)
	done("")
	r.record(ctx, start, "completed")
}

// Variables decodes the job variables and validates them against the
// activity's registered input schema.
func (r *Runner) Variables(job entities.Job) (map[string]interface{}, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}

	result, err := validation.Validate(r.registry.InputSchema(r.taskType), vars)
	if err != nil {
		return nil, errors.NewIncidentValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewIncidentValidationFailedError(result.Summary())
	}
	return vars, nil
}

func (r *Runner) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	r.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key})
}

func (r *Runner) record(ctx context.Context, start time.Time, status string) {
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), status)
}
