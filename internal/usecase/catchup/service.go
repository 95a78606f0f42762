package catchup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/repositories"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

const (
	// LatenessThreshold is how far into a meeting a join must be before the
	// participant is considered late
	LatenessThreshold = 5 * time.Minute
	deliveryTimeout   = 10 * time.Second
)

// Service delivers missed-content digests to participants who join a
// meeting late. Catch-up is strictly best effort: no failure in here may
// disturb the meeting pipeline, so every error is logged and swallowed.
type Service interface {
	OnParticipantJoined(state *entities.MeetingState, participantID string, joinTime time.Time)
}

type service struct {
	repo   repositories.SummaryRepository
	api    platform.API
	logger *zap.Logger
}

func NewService(repo repositories.SummaryRepository, api platform.API, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		api:    api,
		logger: logger,
	}
}

// OnParticipantJoined sends the participant a private digest of summaries
// covering the part of the meeting they missed. On-time joiners and
// meetings with notifications disabled are ignored.
func (s *service) OnParticipantJoined(state *entities.MeetingState, participantID string, joinTime time.Time) {
	if state == nil || participantID == "" {
		return
	}
	if !state.Config().LateJoinerNotifications {
		return
	}
	if joinTime.Sub(state.StartTime) <= LatenessThreshold {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	from := state.StartTime
	summaries, err := s.repo.ListByMeeting(ctx, state.MeetingID, &from, &joinTime)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Catch-up lookup failed",
				zap.String("meeting_id", state.MeetingID),
				zap.String("participant_id", participantID),
				zap.Error(err),
			)
		}
		return
	}
	if len(summaries) == 0 {
		if s.logger != nil {
			s.logger.Debug("No summaries yet for late joiner",
				zap.String("meeting_id", state.MeetingID),
				zap.String("participant_id", participantID),
			)
		}
		return
	}

	card := buildCatchUpCard(summaries)
	if err := s.api.SendPrivateNotification(ctx, participantID, card); err != nil {
		if s.logger != nil {
			s.logger.Warn("Catch-up delivery failed",
				zap.String("meeting_id", state.MeetingID),
				zap.String("participant_id", participantID),
				zap.Error(err),
			)
		}
		return
	}

	if s.logger != nil {
		s.logger.Info("✅ Catch-up delivered to late joiner",
			zap.String("meeting_id", state.MeetingID),
			zap.String("participant_id", participantID),
			zap.Int("summaries", len(summaries)),
		)
	}
}

// buildCatchUpCard renders summaries chronologically, one section per
// summarization window
func buildCatchUpCard(summaries []entities.Summary) *platform.Card {
	sections := make([]platform.CardSection, 0, len(summaries))
	for _, summary := range summaries {
		section := platform.CardSection{
			Heading: fmt.Sprintf("%s - %s",
				summary.PeriodStart.Format("15:04"),
				summary.PeriodEnd.Format("15:04"),
			),
			Text: summary.Content,
		}
		if len(summary.KeyTopics) > 0 {
			section.Items = append(section.Items, "Topics: "+strings.Join(summary.KeyTopics, ", "))
		}
		for _, decision := range summary.Decisions {
			section.Items = append(section.Items, "Decision: "+decision)
		}
		for _, item := range summary.ActionItems {
			line := "Action: " + item.Description
			if item.AssignedTo != "" {
				line += " (" + item.AssignedTo + ")"
			}
			section.Items = append(section.Items, line)
		}
		sections = append(sections, section)
	}
	return &platform.Card{
		Title:    "While you were away",
		Sections: sections,
	}
}
