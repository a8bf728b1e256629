// internal/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"incident-triage/internal/classifier"
	awsclient "incident-triage/internal/common/aws"
	"incident-triage/internal/common/config"
	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

var ErrNotificationFailed = errors.New("notification failed")

var priorityRank = map[string]int{
	classifier.PriorityP0: 0,
	classifier.PriorityP1: 1,
	classifier.PriorityP2: 2,
}

// Notifier pages on-call staff about incidents at or above a priority threshold.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    awsclient.SESService
	sns    awsclient.SNSService
	logger logger.Logger
	now    func() time.Time
}

// New builds a notifier over already constructed clients. A nil client
// disables its channel.
func New(cfg config.NotificationConfig, sesClient awsclient.SESService, snsClient awsclient.SNSService, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.PriorityThreshold == "" {
		cfg.PriorityThreshold = classifier.PriorityP0
	}
	return &Notifier{
		cfg:    cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
		now:    time.Now,
	}
}

// NewFromConfig creates AWS clients for the enabled channels only.
func NewFromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	var (
		sesClient awsclient.SESService
		snsClient awsclient.SNSService
		err       error
	)
	if cfg.SES.Enabled {
		if sesClient, err = awsclient.NewSESClient(ctx, cfg.AWS.Region); err != nil {
			return nil, err
		}
	}
	if cfg.SNS.Enabled {
		if snsClient, err = awsclient.NewSNSClient(ctx, cfg.AWS.Region); err != nil {
			return nil, err
		}
	}
	return New(cfg, sesClient, snsClient, log), nil
}

// ShouldPage reports whether priority meets the threshold. Unknown
// priorities never page.
func (n *Notifier) ShouldPage(priority string) bool {
	rank, ok := priorityRank[priority]
	if !ok {
		return false
	}
	threshold, ok := priorityRank[n.cfg.PriorityThreshold]
	if !ok {
		threshold = 0
	}
	return rank <= threshold
}

func (n *Notifier) snsEnabled() bool { return n.cfg.SNS.Enabled && n.sns != nil }
func (n *Notifier) sesEnabled() bool { return n.cfg.SES.Enabled && n.ses != nil }

// Notify announces inc on every enabled channel. Every channel is attempted
// even when an earlier one fails; the returned error joins the failures.
func (n *Notifier) Notify(ctx context.Context, inc *models.Incident) (*models.Notification, error) {
	notification := &models.Notification{
		ID:         uuid.New().String(),
		IncidentID: inc.ID,
		Priority:   inc.Priority,
		Status:     models.NotificationSkipped,
	}

	if !n.ShouldPage(inc.Priority) || (!n.snsEnabled() && !n.sesEnabled()) {
		return notification, nil
	}

	subject, body := render(inc)
	var errs []error

	if n.snsEnabled() {
		if err := n.publish(ctx, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ChannelSNS, err))
		} else {
			notification.Channels = append(notification.Channels, ChannelSNS)
		}
	}
	if n.sesEnabled() {
		if err := n.email(ctx, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ChannelSES, err))
		} else {
			notification.Channels = append(notification.Channels, ChannelSES)
		}
	}

	if len(errs) > 0 {
		notification.Status = models.NotificationFailed
		err := fmt.Errorf("%w: %v", ErrNotificationFailed, errors.Join(errs...))
		n.logger.Error("incident notification failed", map[string]interface{}{
			"incidentId":     inc.ID,
			"notificationId": notification.ID,
			"error":          err,
		})
		return notification, err
	}

	notification.Status = models.NotificationSent
	notification.SentAt = n.now().UTC()
	n.logger.Info("incident notification sent", map[string]interface{}{
		"incidentId":     inc.ID,
		"notificationId": notification.ID,
		"channels":       notification.Channels,
	})
	return notification, nil
}

func (n *Notifier) publish(ctx context.Context, subject, body string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SNS.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	return err
}

func (n *Notifier) email(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: n.cfg.SES.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.SES.FromEmail),
	})
	return err
}

// render builds the subject and plain-text body shared by all channels.
func render(inc *models.Incident) (string, string) {
	subject := fmt.Sprintf("[%s] Incident #%d: %s", inc.Priority, inc.ID, inc.Title)
	// SNS rejects subjects over 100 characters
	if r := []rune(subject); len(r) > 100 {
		subject = string(r[:97]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Incident #%d\n", inc.ID)
	fmt.Fprintf(&b, "Title: %s\n", inc.Title)
	fmt.Fprintf(&b, "Category: %s\n", inc.Category)
	fmt.Fprintf(&b, "Priority: %s\n", inc.Priority)
	fmt.Fprintf(&b, "Severity: %s\n", inc.Severity)
	fmt.Fprintf(&b, "Status: %s\n", inc.Status)
	if inc.ServiceAffected != "" {
		fmt.Fprintf(&b, "Service: %s\n", inc.ServiceAffected)
	}
	if inc.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", inc.Description)
	}
	return subject, b.String()
}
