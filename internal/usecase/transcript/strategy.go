package transcript

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

// Strategy acquires transcript segments for a meeting and feeds them into
// the segment buffer. Start is non-blocking: acquisition runs in the
// background until Stop or context cancellation.
type Strategy interface {
	Start(ctx context.Context, meetingID string) error
	Stop(meetingID string)
	Method() entities.TranscriptMethod
}

// StrategySet holds one strategy per transcript method so each meeting can
// pick the method its configuration names.
type StrategySet map[entities.TranscriptMethod]Strategy

// NewStrategySet builds both acquisition strategies over the same buffer
func NewStrategySet(
	api platform.API,
	buffer *SegmentBuffer,
	registry *SubscriptionRegistry,
	callbackURL string,
	webhookSecret string,
	logger *zap.Logger,
) StrategySet {
	return StrategySet{
		entities.TranscriptMethodPolling: NewPollingStrategy(api, buffer, logger),
		entities.TranscriptMethodWebhook: NewWebhookStrategy(api, buffer, registry, callbackURL, webhookSecret, logger),
	}
}

// For returns the strategy for the given method
func (s StrategySet) For(method entities.TranscriptMethod) (Strategy, error) {
	strategy, ok := s[method]
	if !ok || strategy == nil {
		return nil, apperrors.ErrInvalidArgument("unknown transcript method: " + string(method))
	}
	return strategy, nil
}
