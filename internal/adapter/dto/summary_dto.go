package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// SummaryResponse represents one summary in API responses. The participant
// list is deliberately omitted, callers only learn about summaries they can
// already access.
type SummaryResponse struct {
	ID          uuid.UUID                    `json:"id"`
	MeetingID   string                       `json:"meeting_id"`
	PeriodStart time.Time                    `json:"period_start"`
	PeriodEnd   time.Time                    `json:"period_end"`
	Content     string                       `json:"content"`
	KeyTopics   []string                     `json:"key_topics"`
	Decisions   []string                     `json:"decisions"`
	ActionItems []entities.SummaryActionItem `json:"action_items"`
	Degraded    bool                         `json:"degraded,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
}

// NewSummaryResponse maps a summary entity to its API shape
func NewSummaryResponse(s *entities.Summary) SummaryResponse {
	return SummaryResponse{
		ID:          s.ID,
		MeetingID:   s.MeetingID,
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
		Content:     s.Content,
		KeyTopics:   s.KeyTopics,
		Decisions:   s.Decisions,
		ActionItems: s.ActionItems,
		Degraded:    s.Degraded,
		CreatedAt:   s.CreatedAt,
	}
}

// ListSummariesResponse represents the response for listing summaries
type ListSummariesResponse struct {
	Summaries []SummaryResponse `json:"summaries"`
	Count     int               `json:"count"`
}

// NewListSummariesResponse maps summary entities to the list shape
func NewListSummariesResponse(summaries []entities.Summary) ListSummariesResponse {
	out := make([]SummaryResponse, 0, len(summaries))
	for i := range summaries {
		out = append(out, NewSummaryResponse(&summaries[i]))
	}
	return ListSummariesResponse{Summaries: out, Count: len(out)}
}

// DeleteSummariesResponse reports how many summaries a bulk delete removed
type DeleteSummariesResponse struct {
	MeetingID string `json:"meeting_id"`
	Deleted   int64  `json:"deleted"`
}
