package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/config"
	"github.com/spec-kit/recovery-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
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
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseCreated)
	n.dispatcher.Subscribe(events.EventCaseAllocated, n.handleCaseAllocated)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseStatusChanged)
	n.dispatcher.Subscribe(events.EventCaseEscalated, n.handleCaseEscalated)
	n.dispatcher.Subscribe(events.EventSLABreachDetected, n.handleSLABreach)
	n.dispatcher.Subscribe(events.EventDailySummary, n.handleDailySummary)
}

func (n *NotificationService) handleCaseCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseCreated", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseAllocated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseAllocated", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseStatusChanged", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseEscalated", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSLABreach(ctx context.Context, event events.Event) error {
	n.logger.Info("SLABreachDetected", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDailySummary(ctx context.Context, event events.Event) error {
	n.logger.Info("DailyComplianceSummary", zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}
