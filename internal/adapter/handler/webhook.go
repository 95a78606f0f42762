package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/transcript"
)

const notificationProcessingTimeout = 30 * time.Second

// Webhook receives transcript change notifications from the platform.
// The platform expects a fast acknowledgement, so notification processing
// runs detached from the request.
type Webhook struct {
	strategy *transcript.WebhookStrategy
	logger   *zap.Logger
}

// NewWebhook creates a new webhook handler. strategy may be nil when the
// polling method is configured; the endpoint then only answers validation
// handshakes.
func NewWebhook(strategy *transcript.WebhookStrategy, logger *zap.Logger) *Webhook {
	return &Webhook{
		strategy: strategy,
		logger:   logger,
	}
}

// Notifications handles POST /webhooks/transcripts. A request carrying a
// validationToken query parameter is the subscription handshake and must be
// answered with the raw token in plain text.
func (h *Webhook) Notifications(c echo.Context) error {
	if token := c.QueryParam("validationToken"); token != "" {
		return c.String(http.StatusOK, token)
	}

	var envelope platform.NotificationEnvelope
	if err := c.Bind(&envelope); err != nil {
		if h.logger != nil {
			h.logger.Warn("Malformed webhook payload", zap.Error(err))
		}
		return c.NoContent(http.StatusBadRequest)
	}

	if h.strategy != nil {
		for i := range envelope.Value {
			notification := envelope.Value[i]
			go h.process(&notification)
		}
	}

	return c.NoContent(http.StatusAccepted)
}

func (h *Webhook) process(notification *platform.ChangeNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationProcessingTimeout)
	defer cancel()

	if err := h.strategy.HandleNotification(ctx, notification); err != nil && h.logger != nil {
		h.logger.Warn("Failed to process change notification",
			zap.String("subscription_id", notification.SubscriptionID),
			zap.Error(err),
		)
	}
}
