package meeting

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/catchup"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/summarizer"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/transcript"
)

// Service tracks meeting lifecycles and drives the per-meeting
// summarization loop. A meeting is either absent, active, or ended;
// lifecycle events for unknown meetings fail with a not-found error.
type Service interface {
	StartMeeting(ctx context.Context, meetingID, tenantID string) (*entities.MeetingState, error)
	EndMeeting(ctx context.Context, meetingID string) error
	ParticipantJoined(meetingID, participantID string, joinTime time.Time) error
	ForceSummarize(ctx context.Context, meetingID string) error
	UpdateConfig(meetingID string, cfg entities.MeetingConfig) (*entities.MeetingState, error)
	GetMeeting(meetingID string) (*entities.MeetingState, bool)
	ActiveCount() int
	Shutdown(ctx context.Context)
}

type activeMeeting struct {
	state    *entities.MeetingState
	strategy transcript.Strategy
	stopChan chan struct{}
	done     sync.WaitGroup
}

type service struct {
	api        platform.API
	buffer     *transcript.SegmentBuffer
	strategies transcript.StrategySet
	summarizer summarizer.Service
	catchup    catchup.Service
	defaults   entities.MeetingConfig
	validate   *validator.Validate
	logger     *zap.Logger

	mu       sync.RWMutex
	meetings map[string]*activeMeeting
}

// NewService creates the lifecycle controller. defaults seeds each new
// meeting's configuration; the configured transcript method selects that
// meeting's acquisition strategy from the set.
func NewService(
	api platform.API,
	buffer *transcript.SegmentBuffer,
	strategies transcript.StrategySet,
	summarizerSvc summarizer.Service,
	catchupSvc catchup.Service,
	defaults entities.MeetingConfig,
	logger *zap.Logger,
) Service {
	return &service{
		api:        api,
		buffer:     buffer,
		strategies: strategies,
		summarizer: summarizerSvc,
		catchup:    catchupSvc,
		defaults:   defaults,
		validate:   validator.New(),
		logger:     logger,
		meetings:   make(map[string]*activeMeeting),
	}
}

// StartMeeting transitions a meeting to active: resolve meeting details,
// start transcript ingestion and launch the summary loop. Ingestion failure
// rolls the transition back, this is the one lifecycle error callers must
// see.
func (s *service) StartMeeting(ctx context.Context, meetingID, tenantID string) (*entities.MeetingState, error) {
	if meetingID == "" {
		return nil, apperrors.ErrInvalidArgument("meetingID is required")
	}

	state := entities.NewMeetingState(meetingID, tenantID, time.Now(), s.defaults)

	strategy, err := s.strategies.For(state.Config().TranscriptMethod)
	if err != nil {
		return nil, apperrors.ErrMeetingInitFailed(meetingID, err)
	}

	// Details are enrichment, the meeting proceeds without them
	if details, err := s.api.GetMeetingDetails(ctx, meetingID); err == nil {
		state.OrganizerID = details.OrganizerID
		state.ChatID = details.ChatID
		if !details.StartTime.IsZero() {
			state.StartTime = details.StartTime
		}
	} else if s.logger != nil {
		s.logger.Warn("Could not resolve meeting details",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
	}

	active := &activeMeeting{
		state:    state,
		strategy: strategy,
		stopChan: make(chan struct{}),
	}

	// Register before starting ingestion so concurrent starts share one
	// ingestion loop instead of racing to create and roll back their own
	s.mu.Lock()
	if existing, ok := s.meetings[meetingID]; ok {
		s.mu.Unlock()
		return existing.state, nil
	}
	s.meetings[meetingID] = active
	s.mu.Unlock()

	if err := strategy.Start(ctx, meetingID); err != nil {
		s.mu.Lock()
		delete(s.meetings, meetingID)
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Error("❌ Failed to start transcript ingestion",
				zap.String("meeting_id", meetingID),
				zap.Error(err),
			)
		}
		s.notifyStartFailure(ctx, state)
		return nil, apperrors.ErrMeetingInitFailed(meetingID, err)
	}

	active.done.Add(1)
	go s.summaryLoop(active)

	if s.logger != nil {
		s.logger.Info("✅ Meeting activated",
			zap.String("meeting_id", meetingID),
			zap.String("tenant_id", tenantID),
			zap.String("transcript_method", string(state.Config().TranscriptMethod)),
			zap.Duration("summary_interval", state.Config().SummaryInterval()),
		)
	}
	return state, nil
}

// notifyStartFailure tells the organizer the bot could not attach to the
// meeting. Best effort, the start error itself is what the caller sees.
func (s *service) notifyStartFailure(ctx context.Context, state *entities.MeetingState) {
	if state.OrganizerID == "" {
		return
	}
	card := &platform.Card{
		Title: "Meeting summarization could not start",
		Sections: []platform.CardSection{{
			Text: "The assistant could not attach to this meeting's transcript. No summaries will be produced for it.",
		}},
	}
	if err := s.api.SendPrivateNotification(ctx, state.OrganizerID, card); err != nil && s.logger != nil {
		s.logger.Warn("Failed to notify organizer about start failure",
			zap.String("meeting_id", state.MeetingID),
			zap.Error(err),
		)
	}
}

// summaryLoop runs periodic passes until the meeting ends. The interval is
// re-read each cycle so config updates take effect on the next tick.
func (s *service) summaryLoop(active *activeMeeting) {
	defer active.done.Done()

	for {
		interval := active.state.Config().SummaryInterval()

		select {
		case <-active.stopChan:
			return
		case <-time.After(interval):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		// Pass errors are already logged and counted by the summarizer
		_ = s.summarizer.RunPass(ctx, active.state)
		cancel()
	}
}

// ParticipantJoined records the participant and, when they are late,
// triggers catch-up delivery in the background
func (s *service) ParticipantJoined(meetingID, participantID string, joinTime time.Time) error {
	s.mu.RLock()
	active, ok := s.meetings[meetingID]
	s.mu.RUnlock()
	if !ok {
		return apperrors.ErrMeetingNotFound(meetingID)
	}
	if participantID == "" {
		return apperrors.ErrInvalidArgument("participantID is required")
	}
	if joinTime.IsZero() {
		joinTime = time.Now()
	}

	active.state.AddParticipant(participantID)

	go s.catchup.OnParticipantJoined(active.state, participantID, joinTime)
	return nil
}

// ForceSummarize runs an immediate pass outside the regular cadence
func (s *service) ForceSummarize(ctx context.Context, meetingID string) error {
	s.mu.RLock()
	active, ok := s.meetings[meetingID]
	s.mu.RUnlock()
	if !ok {
		return apperrors.ErrMeetingNotFound(meetingID)
	}
	return s.summarizer.RunPass(ctx, active.state)
}

// UpdateConfig replaces the meeting's configuration after validating it. The
// transcript method is fixed at meeting start; changing it mid-meeting is
// rejected rather than silently ignored.
func (s *service) UpdateConfig(meetingID string, cfg entities.MeetingConfig) (*entities.MeetingState, error) {
	if err := s.validate.Struct(cfg); err != nil {
		return nil, apperrors.ErrValidation(err)
	}

	s.mu.RLock()
	active, ok := s.meetings[meetingID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrMeetingNotFound(meetingID)
	}

	if cfg.TranscriptMethod != active.state.Config().TranscriptMethod {
		return nil, apperrors.ErrInvalidArgument("transcript method cannot change while the meeting is active")
	}
	active.state.SetConfig(cfg)

	if s.logger != nil {
		s.logger.Info("Meeting configuration updated",
			zap.String("meeting_id", meetingID),
			zap.Duration("summary_interval", cfg.SummaryInterval()),
		)
	}
	return active.state, nil
}

// GetMeeting returns the live state of an active meeting
func (s *service) GetMeeting(meetingID string) (*entities.MeetingState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active, ok := s.meetings[meetingID]
	if !ok {
		return nil, false
	}
	return active.state, true
}

// ActiveCount reports how many meetings are currently active
func (s *service) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}

// EndMeeting tears the meeting down: stop ingestion first so no new
// segments arrive, run one final pass over what is buffered, drop whatever
// the pass left behind, then release per-meeting resources. Each step is
// isolated, a failed step is logged and teardown continues, so a meeting
// always reaches the ended state.
func (s *service) EndMeeting(ctx context.Context, meetingID string) error {
	s.mu.Lock()
	active, ok := s.meetings[meetingID]
	if ok {
		delete(s.meetings, meetingID)
	}
	s.mu.Unlock()
	if !ok {
		return apperrors.ErrMeetingNotFound(meetingID)
	}

	close(active.stopChan)
	active.done.Wait()

	active.strategy.Stop(meetingID)

	if err := s.summarizer.RunPass(ctx, active.state); err != nil && s.logger != nil {
		s.logger.Warn("Final summarization pass failed",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
	}

	// A failed final pass keeps its segments buffered; the meeting is over,
	// so they are dropped here rather than retained forever
	s.buffer.ClearBuffer(meetingID)

	active.state.End(time.Now())
	s.summarizer.Forget(meetingID)

	if s.logger != nil {
		s.logger.Info("✅ Meeting ended",
			zap.String("meeting_id", meetingID),
			zap.Time("start_time", active.state.StartTime),
		)
	}
	return nil
}

// Shutdown ends every active meeting, used during graceful shutdown
func (s *service) Shutdown(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.meetings))
	for id := range s.meetings {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.EndMeeting(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("Failed to end meeting during shutdown",
				zap.String("meeting_id", id),
				zap.Error(err),
			)
		}
	}
}
