package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/pkg/notifier"
)

// OutboxDispatcher drains the notification outbox in the background. Delivery
// failures are logged and retried on the next tick; they never affect the
// state transitions that queued the events.
type OutboxDispatcher struct {
	outboxRepo  *database.OutboxRepository
	gateway     notifier.Gateway
	appBaseURL  string
	interval    time.Duration
	maxAttempts int
	batchSize   int
	logger      *logrus.Logger
	stop        chan struct{}
	done        chan struct{}
}

// NewOutboxDispatcher creates a new outbox dispatcher
func NewOutboxDispatcher(
	outboxRepo *database.OutboxRepository,
	gateway notifier.Gateway,
	appBaseURL string,
	interval time.Duration,
	maxAttempts int,
	logger *logrus.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		outboxRepo:  outboxRepo,
		gateway:     gateway,
		appBaseURL:  appBaseURL,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   50,
		logger:      logger,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins polling the outbox
func (d *OutboxDispatcher) Start() {
	d.logger.WithFields(logrus.Fields{
		"interval": d.interval.String(),
		"gateway":  d.gateway.GetName(),
	}).Info("Starting outbox dispatcher")

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.DispatchOnce()
			case <-d.stop:
				return
			}
		}
	}()
}

// Stop halts polling and waits for an in-flight batch to finish
func (d *OutboxDispatcher) Stop() {
	close(d.stop)
	<-d.done
	d.logger.Info("Outbox dispatcher stopped")
}

// DispatchOnce drains one batch of pending events
func (d *OutboxDispatcher) DispatchOnce() {
	events, err := d.outboxRepo.FetchPending(d.batchSize)
	if err != nil {
		d.logger.WithError(err).Error("Failed to fetch pending notifications")
		return
	}

	for _, event := range events {
		msg, err := d.render(&event)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.EventType,
			}).WithError(err).Error("Failed to render notification")
			if markErr := d.outboxRepo.MarkFailed(event.ID, err.Error(), d.maxAttempts); markErr != nil {
				d.logger.WithError(markErr).Error("Failed to record notification failure")
			}
			continue
		}

		if err := d.gateway.Send(msg); err != nil {
			d.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.EventType,
				"recipient":  event.RecipientEmail,
				"attempts":   event.Attempts + 1,
			}).WithError(err).Error("Failed to deliver notification")
			if markErr := d.outboxRepo.MarkFailed(event.ID, err.Error(), d.maxAttempts); markErr != nil {
				d.logger.WithError(markErr).Error("Failed to record notification failure")
			}
			continue
		}

		if err := d.outboxRepo.MarkSent(event.ID); err != nil {
			d.logger.WithError(err).Error("Failed to mark notification sent")
			continue
		}

		d.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.EventType,
			"recipient":  event.RecipientEmail,
		}).Info("Notification delivered")
	}
}

// render builds the email for one outbox event from its payload
func (d *OutboxDispatcher) render(event *models.OutboxEvent) (notifier.Message, error) {
	var payload map[string]string
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return notifier.Message{}, fmt.Errorf("invalid payload: %w", err)
	}

	msg := notifier.Message{
		ToEmail: event.RecipientEmail,
		ToName:  event.RecipientName,
	}

	switch event.EventType {
	case models.OutboxRegistrationApproved:
		msg.Subject = fmt.Sprintf("Registration approved - %s", payload["competition_name"])
		msg.Body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your team <strong>%s</strong> has been approved for %s. "+
				"Log in to your dashboard to see the upcoming phase schedule.</p>",
			event.RecipientName, payload["team_name"], payload["competition_name"])
	case models.OutboxRegistrationRejected:
		msg.Subject = "Registration update"
		msg.Body = fmt.Sprintf(
			"<p>Hi %s,</p><p>We could not approve the registration for team <strong>%s</strong>.</p>"+
				"<p>Reason: %s</p><p>Contact the committee if you believe this is a mistake.</p>",
			event.RecipientName, payload["team_name"], payload["reason"])
	case models.OutboxAccountActivation:
		msg.Subject = "Activate your TechnoFair account"
		msg.Body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Click the link below to activate your account:</p>"+
				"<p><a href=\"%s/activate?token=%s\">Activate account</a></p>",
			event.RecipientName, d.appBaseURL, payload["token"])
	case models.OutboxPasswordReset:
		msg.Subject = "Reset your TechnoFair password"
		msg.Body = fmt.Sprintf(
			"<p>Hi %s,</p><p>A password reset was requested for your account. "+
				"The link below is valid for one hour:</p>"+
				"<p><a href=\"%s/reset-password?token=%s\">Reset password</a></p>"+
				"<p>If you did not request this, ignore this email.</p>",
			event.RecipientName, d.appBaseURL, payload["token"])
	default:
		return notifier.Message{}, fmt.Errorf("unknown event type %q", event.EventType)
	}

	return msg, nil
}
