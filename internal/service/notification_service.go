package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/config"
	"github.com/spec-kit/volunteer-events/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is stubbed; push transport belongs to an external collaborator.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCreated, n.handleEventCreated)
	n.dispatcher.Subscribe(events.EventUpdated, n.handleEventUpdated)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.JobSubscribed, n.handleSubscription)
	n.dispatcher.Subscribe(events.JobUnsubscribed, n.handleSubscription)
	n.dispatcher.Subscribe(events.VolunteerCheckedIn, n.handleAttendance)
	n.dispatcher.Subscribe(events.VolunteerCheckedOut, n.handleAttendance)
}

func (n *NotificationService) handleEventCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("EventCreated", zap.String("event_id", event.EventID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEventUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("EventUpdated", zap.String("event_id", event.EventID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("EventStatusChanged", zap.String("event_id", event.EventID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSubscription(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("event_id", event.EventID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAttendance(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("event_id", event.EventID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)))
}
