package dto

import (
	"time"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// MeetingStartedRequest is the lifecycle event that activates a meeting
type MeetingStartedRequest struct {
	MeetingID string `json:"meeting_id" validate:"required"`
	TenantID  string `json:"tenant_id,omitempty"`
}

// ParticipantJoinedRequest records a roster join event
type ParticipantJoinedRequest struct {
	ParticipantID string     `json:"participant_id" validate:"required"`
	JoinTime      *time.Time `json:"join_time,omitempty"`
}

// UpdateConfigRequest carries per-meeting configuration overrides
type UpdateConfigRequest struct {
	SummaryIntervalMinutes  int    `json:"summary_interval_minutes" validate:"required,min=5,max=30"`
	AutoPostToChat          bool   `json:"auto_post_to_chat"`
	LateJoinerNotifications bool   `json:"late_joiner_notifications"`
	RetentionDays           int    `json:"retention_days" validate:"required,min=30,max=365"`
	TranscriptMethod        string `json:"transcript_method" validate:"required,oneof=polling webhook"`
}

// ToMeetingConfig converts the request to the domain configuration
func (r UpdateConfigRequest) ToMeetingConfig() entities.MeetingConfig {
	return entities.MeetingConfig{
		SummaryIntervalMinutes:  r.SummaryIntervalMinutes,
		AutoPostToChat:          r.AutoPostToChat,
		LateJoinerNotifications: r.LateJoinerNotifications,
		RetentionDays:           r.RetentionDays,
		TranscriptMethod:        entities.TranscriptMethod(r.TranscriptMethod),
	}
}

// MeetingStateResponse represents an active meeting in API responses
type MeetingStateResponse struct {
	MeetingID    string                 `json:"meeting_id"`
	TenantID     string                 `json:"tenant_id,omitempty"`
	OrganizerID  string                 `json:"organizer_id,omitempty"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	Participants []string               `json:"participants"`
	Config       entities.MeetingConfig `json:"config"`
}

// NewMeetingStateResponse maps meeting state to its API shape
func NewMeetingStateResponse(state *entities.MeetingState) MeetingStateResponse {
	return MeetingStateResponse{
		MeetingID:    state.MeetingID,
		TenantID:     state.TenantID,
		OrganizerID:  state.OrganizerID,
		StartTime:    state.StartTime,
		EndTime:      state.EndTime,
		Participants: state.Participants(),
		Config:       state.Config(),
	}
}
