// internal/workers/triage/update-incident-status/handler_test.go
package updateincidentstatus

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
	"incident-triage/internal/store"
	"incident-triage/internal/workers/triage/jobs"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockStore) Get(ctx context.Context, id int64) (*models.Incident, error) {
	args := m.Called(ctx, id)
	inc, _ := args.Get(0).(*models.Incident)
	return inc, args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) Index(ctx context.Context, inc *models.Incident) error {
	return m.Called(ctx, inc).Error(0)
}

func createTestHandler(t *testing.T, st IncidentStore) *Handler {
	return createIndexingHandler(t, st, nil)
}

func createIndexingHandler(t *testing.T, st IncidentStore, idx Indexer) *Handler {
	h := NewHandler(&Config{Timeout: 5 * time.Second}, st, idx, logger.NewTestLogger(t), nil)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	return h
}

func TestHandler_Execute_Success(t *testing.T) {
	st := &MockStore{}
	st.On("UpdateStatus", mock.Anything, int64(9), "Resolved").Return(nil)

	out, err := createTestHandler(t, st).Execute(context.Background(), &Input{IncidentID: 9, Status: "Resolved"})

	require.NoError(t, err)
	assert.Equal(t, &Output{IncidentID: 9, Status: "Resolved", UpdatedAt: "2024-03-01T12:30:00Z"}, out)
	st.AssertExpectations(t)
}

func TestHandler_Execute_ReindexesUpdatedIncident(t *testing.T) {
	updated := &models.Incident{ID: 9, Title: "checkout down", Status: "Resolved"}

	t.Run("indexed", func(t *testing.T) {
		st := &MockStore{}
		st.On("UpdateStatus", mock.Anything, int64(9), "Resolved").Return(nil)
		st.On("Get", mock.Anything, int64(9)).Return(updated, nil)
		idx := &MockIndexer{}
		idx.On("Index", mock.Anything, updated).Return(nil)

		out, err := createIndexingHandler(t, st, idx).Execute(context.Background(), &Input{IncidentID: 9, Status: "Resolved"})

		require.NoError(t, err)
		assert.True(t, out.Indexed)
		st.AssertExpectations(t)
		idx.AssertExpectations(t)
	})

	t.Run("index failure keeps the update", func(t *testing.T) {
		st := &MockStore{}
		st.On("UpdateStatus", mock.Anything, int64(9), "Resolved").Return(nil)
		st.On("Get", mock.Anything, int64(9)).Return(updated, nil)
		idx := &MockIndexer{}
		idx.On("Index", mock.Anything, updated).Return(stderrors.New("cluster red"))

		out, err := createIndexingHandler(t, st, idx).Execute(context.Background(), &Input{IncidentID: 9, Status: "Resolved"})

		require.NoError(t, err)
		assert.Equal(t, "Resolved", out.Status)
		assert.False(t, out.Indexed)
	})

	t.Run("reload failure skips indexing", func(t *testing.T) {
		st := &MockStore{}
		st.On("UpdateStatus", mock.Anything, int64(9), "Resolved").Return(nil)
		st.On("Get", mock.Anything, int64(9)).Return(nil, stderrors.New("connection reset"))
		idx := &MockIndexer{}

		out, err := createIndexingHandler(t, st, idx).Execute(context.Background(), &Input{IncidentID: 9, Status: "Resolved"})

		require.NoError(t, err)
		assert.False(t, out.Indexed)
		idx.AssertNotCalled(t, "Index", mock.Anything, mock.Anything)
	})
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		storeErr  error
		wantCode  errors.ErrorCode
		wantRetry bool
	}{
		{name: "nil input", wantCode: errors.ErrCodeIncidentValidationFailed},
		{name: "zero id", input: &Input{Status: "Open"}, wantCode: errors.ErrCodeIncidentValidationFailed},
		{name: "unknown status", input: &Input{IncidentID: 1, Status: "Done"}, wantCode: errors.ErrCodeInvalidStatus},
		{
			name:     "missing incident",
			input:    &Input{IncidentID: 404, Status: "Closed"},
			storeErr: fmt.Errorf("update incident 404: %w", store.ErrIncidentNotFound),
			wantCode: errors.ErrCodeIncidentNotFound,
		},
		{
			name:      "timeout",
			input:     &Input{IncidentID: 2, Status: "Closed"},
			storeErr:  fmt.Errorf("update incident: %w", context.DeadlineExceeded),
			wantCode:  errors.ErrCodeQueryTimeout,
			wantRetry: true,
		},
		{
			name:      "database failure",
			input:     &Input{IncidentID: 2, Status: "Closed"},
			storeErr:  stderrors.New("connection reset"),
			wantCode:  errors.ErrCodeQueryExecutionFailed,
			wantRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &MockStore{}
			if tt.storeErr != nil {
				st.On("UpdateStatus", mock.Anything, tt.input.IncidentID, tt.input.Status).Return(tt.storeErr)
			}

			_, err := createTestHandler(t, st).Execute(context.Background(), tt.input)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetry, stdErr.Retryable)
			st.AssertExpectations(t)
		})
	}
}

func TestHandler_Process(t *testing.T) {
	st := &MockStore{}
	st.On("UpdateStatus", mock.Anything, int64(42), "In Progress").Return(nil)
	h := createTestHandler(t, st)

	out, err := h.runner.Process(jobs.NewTestJob(TaskType, 1, map[string]interface{}{
		"incidentId": 42,
		"status":     "In Progress",
	}), h.process)

	require.NoError(t, err)
	assert.Equal(t, int64(42), out.(*Output).IncidentID)
	st.AssertExpectations(t)
}

func TestHandler_ProcessRejectsSchemaViolations(t *testing.T) {
	st := &MockStore{}
	h := createTestHandler(t, st)

	_, err := h.runner.Process(jobs.NewTestJob(TaskType, 1, map[string]interface{}{
		"incidentId": "forty-two",
		"status":     "Resolved",
	}), h.process)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeIncidentValidationFailed, stdErr.Code)
	st.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
