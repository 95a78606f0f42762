package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

const (
	subscriptionTTL      = 60 * time.Minute
	subscriptionRenewAt  = 45 * time.Minute
	notificationDedupFor = 30 * time.Minute
)

type webhookSession struct {
	subscriptionID string
	clientState    string
	cancel         context.CancelFunc
}

// WebhookStrategy subscribes to the platform's transcript change feed
// instead of polling. Notifications carry only resource references; the
// actual transcript content is fetched out of band.
type WebhookStrategy struct {
	api         platform.API
	buffer      *SegmentBuffer
	registry    *SubscriptionRegistry
	callbackURL string
	secret      string
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*webhookSession
	wg       sync.WaitGroup
}

// NewWebhookStrategy creates the subscription-based acquisition strategy.
// secret is the configured shared secret echoed back by the platform in each
// notification's clientState; when empty, every subscription gets its own
// random value instead.
func NewWebhookStrategy(
	api platform.API,
	buffer *SegmentBuffer,
	registry *SubscriptionRegistry,
	callbackURL string,
	secret string,
	logger *zap.Logger,
) *WebhookStrategy {
	return &WebhookStrategy{
		api:         api,
		buffer:      buffer,
		registry:    registry,
		callbackURL: callbackURL,
		secret:      secret,
		sessions:    make(map[string]*webhookSession),
		logger:      logger,
	}
}

func (w *WebhookStrategy) Method() entities.TranscriptMethod {
	return entities.TranscriptMethodWebhook
}

// Start creates the transcript subscription for the meeting. Unlike
// polling there is no self-healing fallback, so a failed create is
// surfaced to the caller.
func (w *WebhookStrategy) Start(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return apperrors.ErrInvalidArgument("meetingID is required")
	}

	w.mu.Lock()
	if _, running := w.sessions[meetingID]; running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	clientState := w.secret
	if clientState == "" {
		clientState = uuid.New().String()
	}
	resource := "communications/onlineMeetings/" + meetingID + "/transcripts"

	sub, err := w.api.CreateSubscription(ctx, resource, w.callbackURL, clientState, subscriptionTTL)
	if err != nil {
		return apperrors.ErrSubscriptionFailed(meetingID, err)
	}

	if err := w.registry.Put(ctx, sub.ID, meetingID, subscriptionTTL); err != nil {
		// Without the mapping the notifications cannot be routed, undo
		if delErr := w.api.DeleteSubscription(ctx, sub.ID); delErr != nil && w.logger != nil {
			w.logger.Warn("Failed to delete orphaned subscription",
				zap.String("subscription_id", sub.ID),
				zap.Error(delErr),
			)
		}
		return apperrors.ErrSubscriptionFailed(meetingID, err)
	}

	// Renewal outlives the Start call, so it runs on its own context
	renewCtx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.sessions[meetingID] = &webhookSession{
		subscriptionID: sub.ID,
		clientState:    clientState,
		cancel:         cancel,
	}
	w.mu.Unlock()

	w.wg.Add(1)
	go w.renewLoop(renewCtx, meetingID, sub.ID)

	if w.logger != nil {
		w.logger.Info("✅ Transcript subscription created",
			zap.String("meeting_id", meetingID),
			zap.String("subscription_id", sub.ID),
			zap.Time("expires_at", sub.ExpiresAt),
		)
	}
	return nil
}

// Stop tears down the meeting's subscription. Platform-side delete
// failures are logged; the subscription expires on its own within the TTL.
func (w *WebhookStrategy) Stop(meetingID string) {
	w.mu.Lock()
	session, ok := w.sessions[meetingID]
	if ok {
		delete(w.sessions, meetingID)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	session.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.api.DeleteSubscription(ctx, session.subscriptionID); err != nil && w.logger != nil {
		w.logger.Warn("Failed to delete transcript subscription",
			zap.String("meeting_id", meetingID),
			zap.String("subscription_id", session.subscriptionID),
			zap.Error(err),
		)
	}
	w.registry.Delete(ctx, session.subscriptionID)

	if w.logger != nil {
		w.logger.Info("Transcript subscription stopped", zap.String("meeting_id", meetingID))
	}
}

// Wait blocks until all renewal loops have exited
func (w *WebhookStrategy) Wait() {
	w.wg.Wait()
}

func (w *WebhookStrategy) renewLoop(ctx context.Context, meetingID, subscriptionID string) {
	defer w.wg.Done()

	ticker := time.NewTicker(subscriptionRenewAt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sub, err := w.api.RenewSubscription(ctx, subscriptionID, subscriptionTTL)
		if err != nil {
			// No retry here: the next tick lands well before expiry, and a
			// lapse only pauses ingestion until the meeting controller
			// restarts the strategy
			if w.logger != nil {
				w.logger.Error("❌ Transcript subscription renewal failed",
					zap.String("meeting_id", meetingID),
					zap.String("subscription_id", subscriptionID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := w.registry.Put(ctx, subscriptionID, meetingID, subscriptionTTL); err != nil && w.logger != nil {
			w.logger.Warn("Failed to refresh subscription mapping", zap.Error(err))
		}

		if w.logger != nil {
			w.logger.Info("Transcript subscription renewed",
				zap.String("meeting_id", meetingID),
				zap.Time("expires_at", sub.ExpiresAt),
			)
		}
	}
}

// HandleNotification processes one change notification from the webhook
// endpoint. Unknown subscriptions, client state mismatches and duplicate
// deliveries are dropped silently so the platform never sees an error for
// content we chose to ignore.
func (w *WebhookStrategy) HandleNotification(ctx context.Context, notification *platform.ChangeNotification) error {
	meetingID, err := w.registry.GetMeeting(ctx, notification.SubscriptionID)
	if err != nil {
		return err
	}
	if meetingID == "" {
		if w.logger != nil {
			w.logger.Debug("Notification for unknown subscription",
				zap.String("subscription_id", notification.SubscriptionID),
			)
		}
		return nil
	}

	w.mu.Lock()
	session, ok := w.sessions[meetingID]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	if notification.ClientState != session.clientState {
		if w.logger != nil {
			w.logger.Warn("⚠️ Notification client state mismatch, dropping",
				zap.String("meeting_id", meetingID),
				zap.String("subscription_id", notification.SubscriptionID),
			)
		}
		return nil
	}

	transcriptID := extractTranscriptID(notification.ResourceURI)
	if transcriptID == "" {
		return apperrors.ErrInvalidPayload()
	}

	dedupKey := notification.SubscriptionID + ":" + transcriptID
	if !w.registry.MarkProcessed(ctx, dedupKey, notificationDedupFor) {
		return nil
	}

	content, err := w.api.FetchTranscript(ctx, meetingID, transcriptID)
	if err != nil {
		return err
	}

	segments := ParseVTT(content)
	for i := range segments {
		if err := w.buffer.AddSegment(meetingID, &segments[i]); err != nil {
			return err
		}
	}

	if w.logger != nil {
		w.logger.Info("Buffered transcript from notification",
			zap.String("meeting_id", meetingID),
			zap.String("transcript_id", transcriptID),
			zap.Int("segments", len(segments)),
		)
	}
	return nil
}

// extractTranscriptID pulls the trailing ID from a resource path such as
// communications/onlineMeetings/{id}/transcripts/{transcriptID}
func extractTranscriptID(resource string) string {
	resource = strings.Trim(resource, "/")
	idx := strings.Index(resource, "/transcripts/")
	if idx < 0 {
		return ""
	}
	rest := resource[idx+len("/transcripts/"):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
