// internal/workers/triage/create-incident-record/handler_test.go
package createincidentrecord

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"incident-triage/internal/classifier"
	"incident-triage/internal/common/errors"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
	"incident-triage/internal/store"
	"incident-triage/internal/workers/triage/jobs"
)

var createdAt = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, inc *models.Incident) (int64, error) {
	args := m.Called(ctx, inc)
	return args.Get(0).(int64), args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) Index(ctx context.Context, inc *models.Incident) error {
	return m.Called(ctx, inc).Error(0)
}

type MockPager struct {
	mock.Mock
}

func (m *MockPager) Notify(ctx context.Context, inc *models.Incident) (*models.Notification, error) {
	args := m.Called(ctx, inc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

// persisted simulates the store assigning identity fields.
func persisted(id int64) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		inc := args.Get(1).(*models.Incident)
		inc.ID = id
		if inc.Status == "" {
			inc.Status = models.StatusOpen
		}
		inc.CreatedAt = createdAt
	}
}

func createTestHandler(t *testing.T, st IncidentStore, idx Indexer, pager Pager) *Handler {
	return NewHandler(HandlerOptions{
		Config:  &Config{Timeout: 5 * time.Second},
		Store:   st,
		Indexer: idx,
		Pager:   pager,
		Logger:  logger.NewTestLogger(t),
	})
}

func createInput() *Input {
	return &Input{
		IncidentInput: classifier.IncidentInput{
			Title:           "Payment gateway down",
			Description:     "checkout fails for all cards",
			Severity:        "critical",
			ServiceAffected: "payment-api",
		},
		Phone: "555-0100",
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	st := &MockStore{}
	idx := &MockIndexer{}
	pager := &MockPager{}

	st.On("Create", mock.Anything, mock.MatchedBy(func(inc *models.Incident) bool {
		return inc.Category == "Payments" && inc.Priority == "P0" && inc.Severity == "critical" &&
			inc.Phone == "555-0100" && inc.ServiceAffected == "payment-api"
	})).Return(int64(21), nil).Run(persisted(21))
	idx.On("Index", mock.Anything, mock.MatchedBy(func(inc *models.Incident) bool { return inc.ID == 21 })).Return(nil)
	pager.On("Notify", mock.Anything, mock.Anything).Return(&models.Notification{
		ID: "n-1", IncidentID: 21, Status: models.NotificationSent,
	}, nil)

	h := createTestHandler(t, st, idx, pager)
	out, err := h.Execute(context.Background(), createInput())

	require.NoError(t, err)
	assert.Equal(t, &Output{
		IncidentID:         21,
		Category:           "Payments",
		Priority:           "P0",
		Severity:           "critical",
		Status:             "Open",
		CreatedAt:          "2024-02-10T08:00:00Z",
		Indexed:            true,
		NotificationID:     "n-1",
		NotificationStatus: "sent",
	}, out)
	st.AssertExpectations(t)
	idx.AssertExpectations(t)
	pager.AssertExpectations(t)
}

func TestHandler_Execute_SideEffectFailuresDoNotFail(t *testing.T) {
	st := &MockStore{}
	idx := &MockIndexer{}
	pager := &MockPager{}

	st.On("Create", mock.Anything, mock.Anything).Return(int64(3), nil).Run(persisted(3))
	idx.On("Index", mock.Anything, mock.Anything).Return(stderrors.New("cluster red"))
	pager.On("Notify", mock.Anything, mock.Anything).Return(&models.Notification{
		ID: "n-2", Status: models.NotificationFailed,
	}, stderrors.New("throttled"))

	h := createTestHandler(t, st, idx, pager)
	out, err := h.Execute(context.Background(), createInput())

	require.NoError(t, err)
	assert.Equal(t, int64(3), out.IncidentID)
	assert.False(t, out.Indexed)
	assert.Equal(t, "failed", out.NotificationStatus)
}

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		wantCode errors.ErrorCode
	}{
		{"nil input", nil, errors.ErrCodeIncidentValidationFailed},
		{"blank title", &Input{IncidentInput: classifier.IncidentInput{Title: "   "}}, errors.ErrCodeIncidentValidationFailed},
		{"bad status", &Input{IncidentInput: classifier.IncidentInput{Title: "x"}, Status: "Done"}, errors.ErrCodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &MockStore{}
			h := createTestHandler(t, st, nil, nil)

			_, err := h.Execute(context.Background(), tt.input)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_StoreFailure(t *testing.T) {
	st := &MockStore{}
	st.On("Create", mock.Anything, mock.Anything).Return(int64(0), stderrors.New("connection refused"))

	h := createTestHandler(t, st, nil, nil)
	_, err := h.Execute(context.Background(), createInput())

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_ProcessWithPostgresStore(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	incidentStore := store.New(db, logger.NewTestLogger(t), store.WithClock(func() time.Time { return createdAt }))
	h := createTestHandler(t, incidentStore, nil, nil)

	sqlMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO incidents`)).
		WithArgs("Database connection failure", nil, "medium", "Database", "P2", "Investigating",
			nil, nil, nil, nil, nil, nil, nil, createdAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	job := jobs.NewTestJob(TaskType, 5, map[string]interface{}{
		"title":  "Database connection failure",
		"status": "Investigating",
	})
	out, err := h.runner.Process(job, h.process)

	require.NoError(t, err)
	output := out.(*Output)
	assert.Equal(t, int64(1), output.IncidentID)
	assert.Equal(t, "Database", output.Category)
	assert.Equal(t, "P2", output.Priority)
	assert.Equal(t, "Investigating", output.Status)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHandler_ProcessRequiresTitle(t *testing.T) {
	h := createTestHandler(t, &MockStore{}, nil, nil)

	_, err := h.runner.Process(jobs.NewTestJob(TaskType, 6, map[string]interface{}{"description": "no title"}), h.process)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeIncidentValidationFailed, stdErr.Code)
}
