// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-triage/internal/common/config"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
)

type MockSESService struct {
	calls         []*ses.SendEmailInput
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type MockSNSService struct {
	calls       []*sns.PublishInput
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func createTestConfig(threshold string) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.PriorityThreshold = threshold
	cfg.AWS.Region = "us-east-1"
	cfg.SNS.Enabled = true
	cfg.SNS.TopicARN = "arn:aws:sns:us-east-1:123456789012:incidents"
	cfg.SES.Enabled = true
	cfg.SES.FromEmail = "triage@example.com"
	cfg.SES.To = []string{"oncall@example.com"}
	return cfg
}

func createIncident(priority string) *models.Incident {
	return &models.Incident{
		ID:              17,
		Title:           "Payment gateway down",
		Description:     "checkout fails for every card",
		Severity:        "critical",
		Category:        "Payments",
		Priority:        priority,
		Status:          models.StatusOpen,
		ServiceAffected: "payment-api",
	}
}

func TestShouldPage(t *testing.T) {
	tests := []struct {
		threshold string
		priority  string
		want      bool
	}{
		{"P0", "P0", true},
		{"P0", "P1", false},
		{"P1", "P0", true},
		{"P1", "P1", true},
		{"P1", "P2", false},
		{"P2", "P2", true},
		{"", "P0", true},
		{"", "P1", false},
		{"P2", "P9", false},
		{"P2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.threshold+"/"+tt.priority, func(t *testing.T) {
			n := New(createTestConfig(tt.threshold), nil, nil, logger.NewTestLogger(t))
			assert.Equal(t, tt.want, n.ShouldPage(tt.priority))
		})
	}
}

func TestNotify_SendsOnAllChannels(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := New(createTestConfig("P0"), sesMock, snsMock, logger.NewTestLogger(t))
	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	result, err := n.Notify(context.Background(), createIncident("P0"))

	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, result.Status)
	assert.Equal(t, []string{ChannelSNS, ChannelSES}, result.Channels)
	assert.Equal(t, fixed, result.SentAt)
	assert.Equal(t, int64(17), result.IncidentID)
	_, parseErr := uuid.Parse(result.ID)
	assert.NoError(t, parseErr)

	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:incidents", aws.ToString(snsMock.calls[0].TopicArn))
	assert.Equal(t, "[P0] Incident #17: Payment gateway down", aws.ToString(snsMock.calls[0].Subject))
	assert.Contains(t, aws.ToString(snsMock.calls[0].Message), "Service: payment-api")

	require.Len(t, sesMock.calls, 1)
	assert.Equal(t, []string{"oncall@example.com"}, sesMock.calls[0].Destination.ToAddresses)
	assert.Equal(t, "triage@example.com", aws.ToString(sesMock.calls[0].Source))
}

func TestNotify_BelowThresholdIsSkipped(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	n := New(createTestConfig("P0"), sesMock, snsMock, logger.NewTestLogger(t))

	result, err := n.Notify(context.Background(), createIncident("P1"))

	require.NoError(t, err)
	assert.Equal(t, models.NotificationSkipped, result.Status)
	assert.True(t, result.SentAt.IsZero())
	assert.Empty(t, snsMock.calls)
	assert.Empty(t, sesMock.calls)
}

func TestNotify_NoChannelsIsSkipped(t *testing.T) {
	cfg := createTestConfig("P2")
	cfg.SNS.Enabled = false
	cfg.SES.Enabled = false
	n := New(cfg, &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))

	result, err := n.Notify(context.Background(), createIncident("P0"))

	require.NoError(t, err)
	assert.Equal(t, models.NotificationSkipped, result.Status)
}

func TestNotify_PartialFailureStillTriesOtherChannels(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	n := New(createTestConfig("P1"), sesMock, snsMock, logger.NewTestLogger(t))

	result, err := n.Notify(context.Background(), createIncident("P1"))

	assert.ErrorIs(t, err, ErrNotificationFailed)
	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, models.NotificationFailed, result.Status)
	assert.Equal(t, []string{ChannelSES}, result.Channels)
	assert.Len(t, sesMock.calls, 1)
}

func TestRender_TruncatesLongSubjects(t *testing.T) {
	inc := createIncident("P0")
	inc.Title = strings.Repeat("é", 150)

	subject, body := render(inc)

	assert.Len(t, []rune(subject), 100)
	assert.True(t, strings.HasSuffix(subject, "..."))
	assert.Contains(t, body, "checkout fails for every card")
}
