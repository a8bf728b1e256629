// internal/workers/triage/classify-incident/handler_test.go
package classifyincident

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-triage/internal/classifier"
	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/workers/triage/jobs"
)

func createTestHandler(t *testing.T, opts ...classifier.Option) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, classifier.New(opts...), logger.NewTestLogger(t), nil)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  Output
	}{
		{
			name:  "payment outage",
			input: Input{Title: "Payment gateway down", Description: "checkout fails", Severity: "critical"},
			want:  Output{Category: "Payments", Priority: "P0", Severity: "critical"},
		},
		{
			name:  "login timeout",
			input: Input{Title: "Users cannot login", Description: "auth service timeout"},
			want:  Output{Category: "Authentication", Priority: "P1", Severity: "medium"},
		},
		{
			name:  "empty report",
			input: Input{},
			want:  Output{Category: "General", Priority: "P2", Severity: "medium"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t)
			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *out)
		})
	}
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Execute(context.Background(), nil)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeIncidentValidationFailed, stdErr.Code)
}

func TestHandler_ProcessJobVariables(t *testing.T) {
	h := createTestHandler(t)
	job := jobs.NewTestJob(TaskType, 11, map[string]interface{}{
		"title":    "login broken",
		"severity": 4,
		"tags":     []string{"urgent"},
	})

	out, err := h.runner.Process(job, h.process)

	require.NoError(t, err)
	assert.Equal(t, &Output{Category: "Authentication", Priority: "P0", Severity: "4"}, out)
}

func TestHandler_ProcessTreatsMistypedFieldsAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]interface{}
		want *Output
	}{
		{
			name: "numeric title and boolean severity",
			vars: map[string]interface{}{"title": 42, "description": "checkout timeout", "severity": true},
			want: &Output{Category: "Network", Priority: "P1", Severity: "medium"},
		},
		{
			name: "tag list instead of string",
			vars: map[string]interface{}{"title": "page blank", "tags": []string{"urgent"}},
			want: &Output{Category: "General", Priority: "P2", Severity: "medium"},
		},
		{
			name: "object fields",
			vars: map[string]interface{}{"title": map[string]interface{}{"text": "db down"}, "serviceAffected": 7},
			want: &Output{Category: "General", Priority: "P2", Severity: "medium"},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t)

			out, err := h.runner.Process(jobs.NewTestJob(TaskType, int64(20+i), tt.vars), h.process)

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestHandler_CustomServiceBoosts(t *testing.T) {
	h := createTestHandler(t, classifier.WithServiceBoosts(classifier.ServiceBoost{Contains: "ledger", Category: "Payments"}))

	out, err := h.Execute(context.Background(), &Input{Title: "slow", ServiceAffected: "Ledger-API"})

	require.NoError(t, err)
	assert.Equal(t, "Payments", out.Category)
}
