package transcript

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

const (
	pollInterval            = 2 * time.Second
	pollReconnectDelay      = 5 * time.Second
	pollMaxBackoff          = 60 * time.Second
	pollFailureAlertAtCount = 6
)

// PollingStrategy fetches the meeting's live transcript on a fixed cadence
// and feeds newly appeared cues into the segment buffer. The transcript
// document grows over the meeting, so a per-meeting cursor tracks how many
// cues were already consumed.
type PollingStrategy struct {
	api    platform.API
	buffer *SegmentBuffer
	logger *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	cursors map[string]int
	wg      sync.WaitGroup
}

func NewPollingStrategy(api platform.API, buffer *SegmentBuffer, logger *zap.Logger) *PollingStrategy {
	return &PollingStrategy{
		api:     api,
		buffer:  buffer,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
		cursors: make(map[string]int),
	}
}

func (p *PollingStrategy) Method() entities.TranscriptMethod {
	return entities.TranscriptMethodPolling
}

// Start launches the poll loop for a meeting. Polling is inherently
// self-healing, so Start never fails for a valid meeting ID.
func (p *PollingStrategy) Start(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return apperrors.ErrInvalidArgument("meetingID is required")
	}

	p.mu.Lock()
	if _, running := p.cancels[meetingID]; running {
		p.mu.Unlock()
		return nil
	}
	// The loop outlives the Start call, so it runs on its own context
	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancels[meetingID] = cancel
	p.cursors[meetingID] = 0
	p.mu.Unlock()

	p.wg.Add(1)
	go p.pollLoop(loopCtx, meetingID)

	if p.logger != nil {
		p.logger.Info("✅ Transcript polling started",
			zap.String("meeting_id", meetingID),
			zap.Duration("interval", pollInterval),
		)
	}
	return nil
}

// Stop cancels the meeting's poll loop. Safe to call for meetings that
// were never started.
func (p *PollingStrategy) Stop(meetingID string) {
	p.mu.Lock()
	cancel, ok := p.cancels[meetingID]
	if ok {
		delete(p.cancels, meetingID)
		delete(p.cursors, meetingID)
	}
	p.mu.Unlock()

	if ok {
		cancel()
		if p.logger != nil {
			p.logger.Info("Transcript polling stopped", zap.String("meeting_id", meetingID))
		}
	}
}

// Wait blocks until all poll loops have exited
func (p *PollingStrategy) Wait() {
	p.wg.Wait()
}

func (p *PollingStrategy) pollLoop(ctx context.Context, meetingID string) {
	defer p.wg.Done()

	// Doubling delay for rate limiting; other transient failures use a
	// fixed reconnect delay instead
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = pollInterval
	retry.MaxInterval = pollMaxBackoff
	retry.MaxElapsedTime = 0
	retry.Reset()

	consecutiveFailures := 0
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := pollInterval
		err := p.pollOnce(ctx, meetingID)
		switch {
		case err == nil:
			consecutiveFailures = 0
			retry.Reset()
		case apperrors.HasCode(err, apperrors.ErrorCode_SOURCE_NOT_AVAILABLE):
			// Transcript not published yet, keep the steady cadence
			consecutiveFailures = 0
			retry.Reset()
		case apperrors.HasCode(err, apperrors.ErrorCode_SOURCE_RATE_LIMITED):
			consecutiveFailures++
			wait = rateLimitWait(err, retry)
			if p.logger != nil {
				p.logger.Warn("Transcript poll rate limited",
					zap.String("meeting_id", meetingID),
					zap.Duration("retry_in", wait),
				)
			}
		default:
			consecutiveFailures++
			wait = pollReconnectDelay
			if p.logger != nil {
				p.logger.Warn("Transcript poll failed",
					zap.String("meeting_id", meetingID),
					zap.Int("consecutive_failures", consecutiveFailures),
					zap.Error(err),
				)
			}
		}

		if consecutiveFailures == pollFailureAlertAtCount && p.logger != nil {
			p.logger.Error("❌ Transcript polling persistently failing",
				zap.String("meeting_id", meetingID),
				zap.Int("consecutive_failures", consecutiveFailures),
			)
		}

		timer.Reset(wait)
	}
}

// rateLimitWait prefers the server's Retry-After hint over local backoff
func rateLimitWait(err error, retry *backoff.ExponentialBackOff) time.Duration {
	var appErr apperrors.AppError
	if stderrors.As(err, &appErr) {
		if raw, ok := appErr.Details["retry_after"]; ok {
			if d, parseErr := time.ParseDuration(raw); parseErr == nil && d > 0 {
				return d
			}
		}
	}
	return retry.NextBackOff()
}

func (p *PollingStrategy) pollOnce(ctx context.Context, meetingID string) error {
	content, err := p.api.GetTranscriptContent(ctx, meetingID)
	if err != nil {
		return err
	}

	segments := ParseVTT(content)

	p.mu.Lock()
	cursor := p.cursors[meetingID]
	if cursor > len(segments) {
		// The platform replaced the document with a shorter one, start over
		cursor = 0
	}
	fresh := segments[cursor:]
	p.cursors[meetingID] = len(segments)
	p.mu.Unlock()

	for i := range fresh {
		if err := p.buffer.AddSegment(meetingID, &fresh[i]); err != nil {
			return err
		}
	}

	if len(fresh) > 0 && p.logger != nil {
		p.logger.Debug("Buffered new transcript segments",
			zap.String("meeting_id", meetingID),
			zap.Int("count", len(fresh)),
		)
	}
	return nil
}
