package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/storage"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/store"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/transcript"
	"github.com/tuanphamdev/meeting-scribe/pkg/ai"
)

const (
	promptTokenBudget    = 8000
	promptTokenHeadroom  = 1000
	charsPerToken        = 4
	retryDelay           = 30 * time.Second
	failureAlertAtPasses = 3
	truncationMarker     = "[earlier discussion truncated]"
)

// Service runs summarization passes: drain the segment buffer, render a
// transcript, obtain a structured summary from the language model and hand
// it to the summary store. The buffer is cleared only after a pass fully
// succeeds, so failed passes retry the same content on the next interval.
type Service interface {
	RunPass(ctx context.Context, state *entities.MeetingState) error
	Forget(meetingID string)
}

type service struct {
	buffer      *transcript.SegmentBuffer
	llm         ai.Summarizer
	parser      *Parser
	store       store.Service
	api         platform.API
	archive     *storage.TranscriptArchive
	temperature float64
	logger      *zap.Logger

	mu       sync.Mutex
	inFlight map[string]*sync.Mutex
	failures map[string]int
}

// NewService creates the summarization orchestrator. archive may be nil
// when transcript archiving is disabled.
func NewService(
	buffer *transcript.SegmentBuffer,
	llm ai.Summarizer,
	parser *Parser,
	summaryStore store.Service,
	api platform.API,
	archive *storage.TranscriptArchive,
	temperature float64,
	logger *zap.Logger,
) Service {
	return &service{
		buffer:      buffer,
		llm:         llm,
		parser:      parser,
		store:       summaryStore,
		api:         api,
		archive:     archive,
		temperature: temperature,
		logger:      logger,
		inFlight:    make(map[string]*sync.Mutex),
		failures:    make(map[string]int),
	}
}

// RunPass executes one summarization pass for the meeting. At most one pass
// runs per meeting at a time; a second caller blocks until the first
// finishes, then operates on whatever the buffer holds by then.
func (s *service) RunPass(ctx context.Context, state *entities.MeetingState) error {
	if state == nil {
		return apperrors.ErrInvalidArgument("meeting state is required")
	}
	meetingID := state.MeetingID

	passMu := s.passMutex(meetingID)
	passMu.Lock()
	defer passMu.Unlock()

	if !s.buffer.HasSegments(meetingID) {
		if s.logger != nil {
			s.logger.Debug("No segments buffered, skipping pass", zap.String("meeting_id", meetingID))
		}
		return nil
	}

	err := s.runPassLocked(ctx, state)
	if err != nil {
		s.recordFailure(ctx, state, err)
		return err
	}
	s.clearFailures(meetingID)
	return nil
}

func (s *service) runPassLocked(ctx context.Context, state *entities.MeetingState) error {
	meetingID := state.MeetingID

	segments := s.buffer.GetSegments(meetingID, 0)
	if len(segments) == 0 {
		return nil
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Timestamp.Before(segments[j].Timestamp)
	})

	rendered, truncated := renderTranscript(segments)
	periodStart := segments[0].Timestamp
	periodEnd := segments[len(segments)-1].Timestamp

	if s.logger != nil {
		s.logger.Info("Starting summarization pass",
			zap.String("meeting_id", meetingID),
			zap.Int("segments", len(segments)),
			zap.Int("dropped_segments", truncated),
		)
	}

	raw, err := s.generateWithRetry(ctx, rendered)
	if err != nil {
		return err
	}

	result, err := s.parser.ParseSummaryResponse(raw)
	if err != nil {
		return err
	}

	summary := s.buildSummary(ctx, state, result, periodStart, periodEnd, len(segments))
	s.store.Save(ctx, summary)

	s.archiveTranscript(meetingID, periodStart, rendered)

	if state.Config().AutoPostToChat {
		if postErr := s.api.PostChatMessage(ctx, meetingID, renderChatMessage(result)); postErr != nil && s.logger != nil {
			s.logger.Warn("Failed to post summary to meeting chat",
				zap.String("meeting_id", meetingID),
				zap.Error(postErr),
			)
		}
	}

	// Only now is the window consumed
	s.buffer.ClearBuffer(meetingID)

	if s.logger != nil {
		s.logger.Info("✅ Summarization pass completed",
			zap.String("meeting_id", meetingID),
			zap.String("summary_id", summary.ID.String()),
			zap.Time("period_start", periodStart),
			zap.Time("period_end", periodEnd),
		)
	}
	return nil
}

// generateWithRetry calls the model once and, on failure, once more after a
// cooldown. Context cancellation aborts the cooldown.
func (s *service) generateWithRetry(ctx context.Context, transcriptText string) (string, error) {
	opts := ai.DefaultSummaryOptions(s.temperature)

	raw, err := s.llm.GenerateSummary(ctx, transcriptText, opts)
	if err == nil {
		return raw, nil
	}

	if s.logger != nil {
		s.logger.Warn("Summary generation failed, retrying after cooldown",
			zap.Duration("cooldown", retryDelay),
			zap.Error(err),
		)
	}

	select {
	case <-ctx.Done():
		return "", apperrors.ErrSummarizationFailed(ctx.Err())
	case <-time.After(retryDelay):
	}

	raw, err = s.llm.GenerateSummary(ctx, transcriptText, opts)
	if err != nil {
		return "", apperrors.ErrSummarizationFailed(err)
	}
	return raw, nil
}

func (s *service) buildSummary(
	ctx context.Context,
	state *entities.MeetingState,
	result *SummaryResult,
	periodStart, periodEnd time.Time,
	segmentCount int,
) *entities.Summary {
	summary := entities.NewSummary(state.MeetingID)
	summary.TenantID = state.TenantID
	summary.PeriodStart = periodStart
	summary.PeriodEnd = periodEnd
	summary.Content = result.Summary
	summary.KeyTopics = result.KeyTopics
	summary.Decisions = result.Decisions
	summary.ActionItems = result.ActionItems
	summary.Participants = s.resolveParticipants(ctx, state)
	summary.Degraded = len(summary.Participants) == 0
	summary.TTLSeconds = state.Config().RetentionTTLSeconds()
	summary.ExpiresAt = time.Now().Add(time.Duration(summary.TTLSeconds) * time.Second)

	if meta, err := json.Marshal(map[string]any{"segment_count": segmentCount}); err == nil {
		summary.Metadata = datatypes.JSON(meta)
	}

	if summary.Degraded && s.logger != nil {
		s.logger.Warn("⚠️ Summary stored without participant list",
			zap.String("meeting_id", state.MeetingID),
			zap.String("summary_id", summary.ID.String()),
		)
	}
	return summary
}

// resolveParticipants prefers the platform roster and falls back to the
// participants observed locally during the meeting
func (s *service) resolveParticipants(ctx context.Context, state *entities.MeetingState) []string {
	roster, err := s.api.GetParticipants(ctx, state.MeetingID)
	if err == nil && len(roster) > 0 {
		ids := make([]string, 0, len(roster))
		for _, p := range roster {
			if p.ID != "" {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("Participant roster unavailable, using local view",
			zap.String("meeting_id", state.MeetingID),
			zap.Error(err),
		)
	}
	return state.Participants()
}

func (s *service) archiveTranscript(meetingID string, periodStart time.Time, rendered string) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.archive.StoreTranscript(ctx, meetingID, periodStart, rendered); err != nil && s.logger != nil {
		s.logger.Warn("Failed to archive transcript window",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
	}
}

func (s *service) passMutex(meetingID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.inFlight[meetingID]
	if !ok {
		mu = &sync.Mutex{}
		s.inFlight[meetingID] = mu
	}
	return mu
}

func (s *service) recordFailure(ctx context.Context, state *entities.MeetingState, passErr error) {
	s.mu.Lock()
	s.failures[state.MeetingID]++
	count := s.failures[state.MeetingID]
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Error("❌ Summarization pass failed",
			zap.String("meeting_id", state.MeetingID),
			zap.Int("consecutive_failures", count),
			zap.Error(passErr),
		)
	}

	if count == failureAlertAtPasses && state.OrganizerID != "" {
		card := &platform.Card{
			Title: "Meeting summarization is failing",
			Sections: []platform.CardSection{{
				Text: fmt.Sprintf("Summaries for this meeting have failed %d times in a row. Transcript content is still being collected and will be summarized once the issue clears.", count),
			}},
		}
		if err := s.api.SendPrivateNotification(ctx, state.OrganizerID, card); err != nil && s.logger != nil {
			s.logger.Warn("Failed to notify organizer about summarization failures",
				zap.String("meeting_id", state.MeetingID),
				zap.Error(err),
			)
		}
	}
}

func (s *service) clearFailures(meetingID string) {
	s.mu.Lock()
	delete(s.failures, meetingID)
	s.mu.Unlock()
}

// Forget drops per-meeting bookkeeping once a meeting has ended
func (s *service) Forget(meetingID string) {
	s.mu.Lock()
	delete(s.inFlight, meetingID)
	delete(s.failures, meetingID)
	s.mu.Unlock()
}

// renderTranscript formats segments as "[15:04:05] Speaker: text" lines and
// trims the oldest lines when the estimate exceeds the prompt budget. A
// trimmed rendition ends with the truncation marker so the model knows the
// transcript is partial. Returns the rendered text and the number of dropped
// segments.
func renderTranscript(segments []entities.TranscriptSegment) (string, int) {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		speaker := seg.SpeakerName
		if speaker == "" {
			speaker = "Unknown speaker"
		}
		lines[i] = fmt.Sprintf("[%s] %s: %s", seg.Timestamp.Format("15:04:05"), speaker, seg.Text)
	}

	budgetChars := (promptTokenBudget - promptTokenHeadroom) * charsPerToken
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}

	dropped := 0
	for total > budgetChars && dropped < len(lines)-1 {
		total -= len(lines[dropped]) + 1
		dropped++
	}

	rendered := strings.Join(lines[dropped:], "\n")
	if dropped > 0 {
		rendered = rendered + "\n" + truncationMarker
	}
	return rendered, dropped
}

// renderChatMessage flattens a summary result into a chat-friendly message
func renderChatMessage(result *SummaryResult) string {
	var b strings.Builder
	b.WriteString("**Summary so far**\n")
	b.WriteString(result.Summary)
	if len(result.KeyTopics) > 0 {
		b.WriteString("\n\n**Topics:** ")
		b.WriteString(strings.Join(result.KeyTopics, ", "))
	}
	if len(result.Decisions) > 0 {
		b.WriteString("\n\n**Decisions:**")
		for _, d := range result.Decisions {
			b.WriteString("\n- ")
			b.WriteString(d)
		}
	}
	if len(result.ActionItems) > 0 {
		b.WriteString("\n\n**Action items:**")
		for _, item := range result.ActionItems {
			b.WriteString("\n- ")
			b.WriteString(item.Description)
			if item.AssignedTo != "" {
				b.WriteString(" (")
				b.WriteString(item.AssignedTo)
				b.WriteString(")")
			}
		}
	}
	return b.String()
}
