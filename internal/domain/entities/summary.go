package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SummaryActionItem is one extracted action item with its owner
type SummaryActionItem struct {
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}

// Summary is one persisted summarization artifact covering a slice of a
// meeting. Immutable after creation; deleted when its TTL expires or on an
// explicit bulk delete for the meeting.
type Summary struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID    string              `json:"meeting_id" gorm:"type:varchar(255);not null;index:idx_summaries_meeting_period,priority:1"`
	TenantID     string              `json:"tenant_id,omitempty" gorm:"type:varchar(255)"`
	PeriodStart  time.Time           `json:"period_start" gorm:"index:idx_summaries_meeting_period,priority:2"`
	PeriodEnd    time.Time           `json:"period_end"`
	Content      string              `json:"content" gorm:"type:text;not null"`
	KeyTopics    []string            `json:"key_topics" gorm:"serializer:json;type:jsonb"`
	Decisions    []string            `json:"decisions" gorm:"serializer:json;type:jsonb"`
	ActionItems  []SummaryActionItem `json:"action_items" gorm:"serializer:json;type:jsonb"`
	Participants []string            `json:"participants" gorm:"serializer:json;type:jsonb"`
	Degraded     bool                `json:"degraded,omitempty"`
	TTLSeconds   int64               `json:"ttl_seconds,omitempty"`
	ExpiresAt    time.Time           `json:"expires_at" gorm:"index"`
	Metadata     datatypes.JSON      `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time           `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Summary
func (Summary) TableName() string {
	return "summaries"
}

// NewSummary creates a new Summary entity for a meeting
func NewSummary(meetingID string) *Summary {
	return &Summary{
		ID:        uuid.New(),
		MeetingID: meetingID,
	}
}

// HasParticipant reports whether the requester appears in the summary's
// access-control list. Comparison is case-insensitive.
func (s *Summary) HasParticipant(requesterID string) bool {
	for _, p := range s.Participants {
		if strings.EqualFold(p, requesterID) {
			return true
		}
	}
	return false
}

// Matches reports whether the query matches content, topics or decisions
// (case-insensitive substring).
func (s *Summary) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Content), q) {
		return true
	}
	for _, t := range s.KeyTopics {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	for _, d := range s.Decisions {
		if strings.Contains(strings.ToLower(d), q) {
			return true
		}
	}
	return false
}
