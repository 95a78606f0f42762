package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/repositories"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

const (
	overflowWarnThreshold = 10
	purgeInterval         = time.Hour
)

// Service persists summaries and answers summary queries with participant
// access control. Writes never fail outward: a summary that cannot reach
// storage is held in an in-memory overflow queue and flushed on a later
// successful write.
type Service interface {
	Save(ctx context.Context, summary *entities.Summary)
	GetSummary(ctx context.Context, summaryID, requesterID string) (*entities.Summary, error)
	ListForMeeting(ctx context.Context, meetingID, requesterID string, from, to *time.Time) ([]entities.Summary, error)
	Search(ctx context.Context, meetingID, requesterID, query string) ([]entities.Summary, error)
	DeleteAllForMeeting(ctx context.Context, meetingID string) (int64, error)
	PendingCount() int
	StartPurgeWorker()
	StopPurgeWorker()
}

type service struct {
	repo   repositories.SummaryRepository
	api    platform.API
	logger *zap.Logger

	mu       sync.Mutex
	overflow []*entities.Summary

	workerStopChan chan struct{}
	workerWg       sync.WaitGroup
}

// NewService creates a resilient summary store backed by the repository. The
// platform client answers meeting-level membership checks for list queries.
func NewService(repo repositories.SummaryRepository, api platform.API, logger *zap.Logger) Service {
	return &service{
		repo:           repo,
		api:            api,
		logger:         logger,
		workerStopChan: make(chan struct{}),
	}
}

// Save persists a summary, draining any earlier overflow first so summaries
// land in storage in the order they were produced. A failed write queues
// the summary instead of surfacing the error.
func (s *service) Save(ctx context.Context, summary *entities.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drainOverflowLocked(ctx) {
		s.queueLocked(summary)
		return
	}

	if err := s.repo.Save(ctx, summary); err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Summary write failed, queuing for retry",
				zap.String("summary_id", summary.ID.String()),
				zap.String("meeting_id", summary.MeetingID),
				zap.Error(err),
			)
		}
		s.queueLocked(summary)
		return
	}

	if s.logger != nil {
		s.logger.Info("✅ Summary persisted",
			zap.String("summary_id", summary.ID.String()),
			zap.String("meeting_id", summary.MeetingID),
		)
	}
}

// drainOverflowLocked flushes queued summaries oldest first, stopping at
// the first failure. Returns true when the queue is empty afterwards.
func (s *service) drainOverflowLocked(ctx context.Context) bool {
	for len(s.overflow) > 0 {
		oldest := s.overflow[0]
		if err := s.repo.Save(ctx, oldest); err != nil {
			return false
		}
		s.overflow = s.overflow[1:]
		if s.logger != nil {
			s.logger.Info("Flushed queued summary to storage",
				zap.String("summary_id", oldest.ID.String()),
				zap.Int("remaining", len(s.overflow)),
			)
		}
	}
	return true
}

func (s *service) queueLocked(summary *entities.Summary) {
	s.overflow = append(s.overflow, summary)
	if len(s.overflow) > overflowWarnThreshold && s.logger != nil {
		s.logger.Error("❌ Summary overflow queue growing, storage may be down",
			zap.Int("queued", len(s.overflow)),
		)
	}
}

// PendingCount reports how many summaries are waiting for storage
func (s *service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overflow)
}

// GetSummary returns one summary if the requester took part in its period
func (s *service) GetSummary(ctx context.Context, summaryID, requesterID string) (*entities.Summary, error) {
	if _, err := uuid.Parse(summaryID); err != nil {
		return nil, apperrors.ErrInvalidArgument("summaryID must be a valid UUID")
	}
	if requesterID == "" {
		return nil, apperrors.ErrInvalidArgument("requesterID is required")
	}

	summary, err := s.repo.GetByID(ctx, summaryID)
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable(err)
	}
	if summary == nil {
		return nil, apperrors.ErrSummaryNotFound(summaryID)
	}
	if !summary.HasParticipant(requesterID) {
		return nil, apperrors.ErrAccessDenied(requesterID)
	}
	return summary, nil
}

// ListForMeeting returns the requester's accessible summaries in period
// order. The requester must be a participant of the meeting itself, checked
// against the platform roster; when the roster cannot answer, the
// per-summary participant lists decide, and a meeting whose summaries all
// exclude the requester is an access denial, not an empty result.
func (s *service) ListForMeeting(ctx context.Context, meetingID, requesterID string, from, to *time.Time) ([]entities.Summary, error) {
	if meetingID == "" {
		return nil, apperrors.ErrInvalidArgument("meetingID is required")
	}
	if requesterID == "" {
		return nil, apperrors.ErrInvalidArgument("requesterID is required")
	}

	rosterConfirmed, err := s.confirmMeetingAccess(ctx, meetingID, requesterID)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.ListByMeeting(ctx, meetingID, from, to)
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable(err)
	}

	accessible := make([]entities.Summary, 0, len(all))
	for _, summary := range all {
		if summary.HasParticipant(requesterID) {
			accessible = append(accessible, summary)
		}
	}

	if !rosterConfirmed && len(all) > 0 && len(accessible) == 0 {
		return nil, apperrors.ErrAccessDenied(requesterID)
	}
	return accessible, nil
}

// confirmMeetingAccess checks the requester against the meeting's platform
// roster. Returns true when the roster vouched for the requester, false when
// the roster was unavailable and the per-summary lists must decide.
func (s *service) confirmMeetingAccess(ctx context.Context, meetingID, requesterID string) (bool, error) {
	if s.api == nil {
		return false, nil
	}

	roster, err := s.api.GetParticipants(ctx, meetingID)
	if err != nil || len(roster) == 0 {
		if err != nil && s.logger != nil {
			s.logger.Warn("Meeting roster unavailable for access check",
				zap.String("meeting_id", meetingID),
				zap.Error(err),
			)
		}
		return false, nil
	}

	for _, p := range roster {
		if strings.EqualFold(p.ID, requesterID) {
			return true, nil
		}
	}
	return false, apperrors.ErrAccessDenied(requesterID)
}

// Search filters the requester's accessible summaries by a case-insensitive
// content match
func (s *service) Search(ctx context.Context, meetingID, requesterID, query string) ([]entities.Summary, error) {
	accessible, err := s.ListForMeeting(ctx, meetingID, requesterID, nil, nil)
	if err != nil {
		return nil, err
	}

	matched := make([]entities.Summary, 0, len(accessible))
	for _, summary := range accessible {
		if summary.Matches(query) {
			matched = append(matched, summary)
		}
	}
	return matched, nil
}

// DeleteAllForMeeting removes every stored summary for the meeting,
// including any still waiting in the overflow queue
func (s *service) DeleteAllForMeeting(ctx context.Context, meetingID string) (int64, error) {
	if meetingID == "" {
		return 0, apperrors.ErrInvalidArgument("meetingID is required")
	}

	s.mu.Lock()
	kept := s.overflow[:0]
	for _, queued := range s.overflow {
		if queued.MeetingID != meetingID {
			kept = append(kept, queued)
		}
	}
	s.overflow = kept
	s.mu.Unlock()

	deleted, err := s.repo.DeleteByMeeting(ctx, meetingID)
	if err != nil {
		return 0, apperrors.ErrStorageUnavailable(err)
	}

	if s.logger != nil {
		s.logger.Info("Deleted meeting summaries",
			zap.String("meeting_id", meetingID),
			zap.Int64("count", deleted),
		)
	}
	return deleted, nil
}

// StartPurgeWorker launches the hourly retention sweep
func (s *service) StartPurgeWorker() {
	s.workerWg.Add(1)
	go s.purgeWorker()
	if s.logger != nil {
		s.logger.Info("✅ Summary retention worker started", zap.Duration("interval", purgeInterval))
	}
}

// StopPurgeWorker stops the retention sweep and waits for it to exit
func (s *service) StopPurgeWorker() {
	close(s.workerStopChan)
	s.workerWg.Wait()
}

func (s *service) purgeWorker() {
	defer s.workerWg.Done()

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}

func (s *service) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Retention sweep failed", zap.Error(err))
		}
		return
	}
	if purged > 0 && s.logger != nil {
		s.logger.Info("Purged expired summaries", zap.Int64("count", purged))
	}
}
