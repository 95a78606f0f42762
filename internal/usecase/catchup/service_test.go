package catchup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

type repoMock struct {
	summaries []entities.Summary
	listErr   error
	gotFrom   *time.Time
	gotTo     *time.Time
}

func (m *repoMock) Save(ctx context.Context, summary *entities.Summary) error { return nil }

func (m *repoMock) GetByID(ctx context.Context, id string) (*entities.Summary, error) {
	return nil, nil
}

func (m *repoMock) ListByMeeting(ctx context.Context, meetingID string, from, to *time.Time) ([]entities.Summary, error) {
	m.gotFrom = from
	m.gotTo = to
	return m.summaries, m.listErr
}

func (m *repoMock) DeleteByMeeting(ctx context.Context, meetingID string) (int64, error) {
	return 0, nil
}

func (m *repoMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type platformMock struct {
	mu        sync.Mutex
	sentTo    []string
	sentCards []*platform.Card
	sendErr   error
}

func (m *platformMock) GetMeetingDetails(ctx context.Context, meetingID string) (*platform.MeetingDetails, error) {
	return nil, nil
}

func (m *platformMock) GetParticipants(ctx context.Context, meetingID string) ([]platform.Participant, error) {
	return nil, nil
}

func (m *platformMock) PostChatMessage(ctx context.Context, meetingID, text string) error {
	return nil
}

func (m *platformMock) SendPrivateNotification(ctx context.Context, userID string, card *platform.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sentTo = append(m.sentTo, userID)
	m.sentCards = append(m.sentCards, card)
	return nil
}

func (m *platformMock) GetTranscriptContent(ctx context.Context, meetingID string) (string, error) {
	return "", nil
}

func (m *platformMock) FetchTranscript(ctx context.Context, meetingID, transcriptID string) (string, error) {
	return "", nil
}

func (m *platformMock) CreateSubscription(ctx context.Context, resource, callbackURL, clientState string, ttl time.Duration) (*platform.Subscription, error) {
	return nil, nil
}

func (m *platformMock) RenewSubscription(ctx context.Context, subscriptionID string, extend time.Duration) (*platform.Subscription, error) {
	return nil, nil
}

func (m *platformMock) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

func activeState(startedAgo time.Duration) *entities.MeetingState {
	return entities.NewMeetingState("meeting-1", "tenant-1", time.Now().Add(-startedAgo), entities.MeetingConfig{
		SummaryIntervalMinutes:  10,
		RetentionDays:           90,
		LateJoinerNotifications: true,
		TranscriptMethod:        entities.TranscriptMethodPolling,
	})
}

func storedSummary(content string, start, end time.Time) entities.Summary {
	s := entities.NewSummary("meeting-1")
	s.Content = content
	s.PeriodStart = start
	s.PeriodEnd = end
	s.KeyTopics = []string{"roadmap"}
	s.Decisions = []string{"ship it"}
	s.ActionItems = []entities.SummaryActionItem{
		{Description: "draft rollout plan", AssignedTo: "Bob"},
		{Description: "book the retro"},
	}
	return *s
}

func TestOnParticipantJoined_LateJoinerGetsDigest(t *testing.T) {
	now := time.Now()
	repo := &repoMock{summaries: []entities.Summary{
		storedSummary("first window", now.Add(-30*time.Minute), now.Add(-20*time.Minute)),
		storedSummary("second window", now.Add(-20*time.Minute), now.Add(-10*time.Minute)),
	}}
	api := &platformMock{}
	svc := NewService(repo, api, zap.NewNop())

	state := activeState(30 * time.Minute)
	svc.OnParticipantJoined(state, "late-user", now)

	require.Len(t, api.sentTo, 1)
	assert.Equal(t, "late-user", api.sentTo[0])

	card := api.sentCards[0]
	require.Len(t, card.Sections, 2)
	assert.Equal(t, "first window", card.Sections[0].Text)
	assert.Equal(t, "second window", card.Sections[1].Text)
	assert.Contains(t, card.Sections[0].Items, "Topics: roadmap")
	assert.Contains(t, card.Sections[0].Items, "Decision: ship it")
	assert.Contains(t, card.Sections[0].Items, "Action: draft rollout plan (Bob)")
	assert.Contains(t, card.Sections[0].Items, "Action: book the retro")

	// Lookup is bounded by meeting start and the join time
	require.NotNil(t, repo.gotFrom)
	require.NotNil(t, repo.gotTo)
	assert.Equal(t, state.StartTime, *repo.gotFrom)
	assert.Equal(t, now, *repo.gotTo)
}

func TestOnParticipantJoined_OnTimeJoinerIgnored(t *testing.T) {
	repo := &repoMock{summaries: []entities.Summary{
		storedSummary("recap", time.Now().Add(-4*time.Minute), time.Now()),
	}}
	api := &platformMock{}
	svc := NewService(repo, api, zap.NewNop())

	state := activeState(4 * time.Minute)
	svc.OnParticipantJoined(state, "punctual-user", time.Now())

	assert.Empty(t, api.sentTo)
}

func TestOnParticipantJoined_DisabledByConfig(t *testing.T) {
	repo := &repoMock{summaries: []entities.Summary{
		storedSummary("recap", time.Now().Add(-30*time.Minute), time.Now()),
	}}
	api := &platformMock{}
	svc := NewService(repo, api, zap.NewNop())

	state := activeState(30 * time.Minute)
	cfg := state.Config()
	cfg.LateJoinerNotifications = false
	state.SetConfig(cfg)
	svc.OnParticipantJoined(state, "late-user", time.Now())

	assert.Empty(t, api.sentTo)
}

func TestOnParticipantJoined_NoSummariesYet(t *testing.T) {
	repo := &repoMock{}
	api := &platformMock{}
	svc := NewService(repo, api, zap.NewNop())

	svc.OnParticipantJoined(activeState(30*time.Minute), "late-user", time.Now())
	assert.Empty(t, api.sentTo)
}

func TestOnParticipantJoined_FailuresAreSwallowed(t *testing.T) {
	now := time.Now()

	// Lookup failure
	repo := &repoMock{listErr: fmt.Errorf("storage down")}
	svc := NewService(repo, &platformMock{}, zap.NewNop())
	svc.OnParticipantJoined(activeState(30*time.Minute), "late-user", now)

	// Delivery failure
	repo = &repoMock{summaries: []entities.Summary{
		storedSummary("recap", now.Add(-30*time.Minute), now.Add(-20*time.Minute)),
	}}
	api := &platformMock{sendErr: fmt.Errorf("delivery refused")}
	svc = NewService(repo, api, zap.NewNop())
	svc.OnParticipantJoined(activeState(30*time.Minute), "late-user", now)
}
