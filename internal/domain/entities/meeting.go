package entities

import (
	"strings"
	"sync"
	"time"
)

// TranscriptMethod selects how transcript segments are acquired for a meeting
type TranscriptMethod string

const (
	TranscriptMethodPolling TranscriptMethod = "polling"
	TranscriptMethodWebhook TranscriptMethod = "webhook"
)

// MeetingConfig holds per-meeting summarization settings. Validated as a
// whole on every update; an out-of-range value rejects the entire update.
type MeetingConfig struct {
	SummaryIntervalMinutes  int              `json:"summary_interval_minutes" validate:"min=5,max=30"`
	AutoPostToChat          bool             `json:"auto_post_to_chat"`
	LateJoinerNotifications bool             `json:"late_joiner_notifications"`
	RetentionDays           int              `json:"retention_days" validate:"min=30,max=365"`
	TranscriptMethod        TranscriptMethod `json:"transcript_method" validate:"oneof=polling webhook"`
}

// SummaryInterval returns the summarization interval as a duration
func (c MeetingConfig) SummaryInterval() time.Duration {
	return time.Duration(c.SummaryIntervalMinutes) * time.Minute
}

// RetentionTTLSeconds returns the retention policy as a TTL in seconds
func (c MeetingConfig) RetentionTTLSeconds() int64 {
	return int64(c.RetentionDays) * 86400
}

// MeetingState is the live record of one active meeting. One instance per
// active meetingId, created on meeting-start and discarded after teardown.
// The participant set and configuration may be read by the summarization and
// catch-up goroutines while updates arrive, so both are guarded internally.
type MeetingState struct {
	MeetingID   string
	TenantID    string
	OrganizerID string
	ChatID      string
	StartTime   time.Time
	EndTime     *time.Time

	mu           sync.RWMutex
	config       MeetingConfig
	participants map[string]struct{}
}

// NewMeetingState creates the state record for a meeting that just started
func NewMeetingState(meetingID, tenantID string, startTime time.Time, cfg MeetingConfig) *MeetingState {
	return &MeetingState{
		MeetingID:    meetingID,
		TenantID:     tenantID,
		StartTime:    startTime,
		config:       cfg,
		participants: make(map[string]struct{}),
	}
}

// Config returns a snapshot of the meeting's current configuration
func (m *MeetingState) Config() MeetingConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig replaces the meeting's configuration atomically
func (m *MeetingState) SetConfig(cfg MeetingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// AddParticipant records a participant join. Duplicates are ignored; the set
// only grows during the meeting.
func (m *MeetingState) AddParticipant(participantID string) {
	if participantID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[participantID] = struct{}{}
}

// Participants returns a snapshot of the tracked participant IDs
func (m *MeetingState) Participants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.participants))
	for id := range m.participants {
		ids = append(ids, id)
	}
	return ids
}

// HasParticipant reports whether the participant has joined (case-insensitive)
func (m *MeetingState) HasParticipant(participantID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id := range m.participants {
		if strings.EqualFold(id, participantID) {
			return true
		}
	}
	return false
}

// End stamps the meeting end time
func (m *MeetingState) End(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = &at
}
