package entities

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummary_HasParticipantIsCaseInsensitive(t *testing.T) {
	s := NewSummary("meeting-1")
	s.Participants = []string{"Alice@Example.com", "bob"}

	assert.True(t, s.HasParticipant("alice@example.com"))
	assert.True(t, s.HasParticipant("BOB"))
	assert.False(t, s.HasParticipant("carol"))
	assert.False(t, s.HasParticipant(""))
}

func TestSummary_Matches(t *testing.T) {
	s := NewSummary("meeting-1")
	s.Content = "We reviewed the Migration plan"
	s.KeyTopics = []string{"infrastructure"}
	s.Decisions = []string{"Postpone the launch"}

	assert.True(t, s.Matches("migration"))
	assert.True(t, s.Matches("INFRA"))
	assert.True(t, s.Matches("postpone"))
	assert.False(t, s.Matches("budget"))
}

func TestMeetingConfig_Derivations(t *testing.T) {
	cfg := MeetingConfig{SummaryIntervalMinutes: 15, RetentionDays: 90}

	assert.Equal(t, 15*time.Minute, cfg.SummaryInterval())
	assert.Equal(t, int64(90*24*60*60), cfg.RetentionTTLSeconds())
}

func TestMeetingState_Participants(t *testing.T) {
	state := NewMeetingState("meeting-1", "tenant-1", time.Now(), MeetingConfig{})

	state.AddParticipant("user-1")
	state.AddParticipant("user-1")
	state.AddParticipant("")
	state.AddParticipant("user-2")

	assert.Len(t, state.Participants(), 2)
	assert.True(t, state.HasParticipant("USER-1"))
	assert.False(t, state.HasParticipant("user-3"))
}

func TestMeetingState_ConfigConcurrentAccess(t *testing.T) {
	state := NewMeetingState("meeting-1", "tenant-1", time.Now(), MeetingConfig{
		SummaryIntervalMinutes: 10,
	})

	// Config updates race with reads from the summarization and catch-up
	// paths; run under -race
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := state.Config()
				cfg.SummaryIntervalMinutes = 5 + (n+j)%10
				state.SetConfig(cfg)
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = state.Config().SummaryInterval()
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, state.Config().SummaryIntervalMinutes, 5)
}

func TestMeetingState_End(t *testing.T) {
	state := NewMeetingState("meeting-1", "tenant-1", time.Now(), MeetingConfig{})
	assert.Nil(t, state.EndTime)

	endedAt := time.Now()
	state.End(endedAt)
	assert.NotNil(t, state.EndTime)
	assert.Equal(t, endedAt, *state.EndTime)
}
