package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

// rosterMock answers only the roster call; when roster is nil the access
// check falls back to the per-summary participant lists.
type rosterMock struct {
	roster    []platform.Participant
	rosterErr error
}

func (m *rosterMock) GetMeetingDetails(ctx context.Context, meetingID string) (*platform.MeetingDetails, error) {
	return &platform.MeetingDetails{}, nil
}

func (m *rosterMock) GetParticipants(ctx context.Context, meetingID string) ([]platform.Participant, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	return m.roster, nil
}

func (m *rosterMock) PostChatMessage(ctx context.Context, meetingID, text string) error {
	return nil
}

func (m *rosterMock) SendPrivateNotification(ctx context.Context, userID string, card *platform.Card) error {
	return nil
}

func (m *rosterMock) GetTranscriptContent(ctx context.Context, meetingID string) (string, error) {
	return "", nil
}

func (m *rosterMock) FetchTranscript(ctx context.Context, meetingID, transcriptID string) (string, error) {
	return "", nil
}

func (m *rosterMock) CreateSubscription(ctx context.Context, resource, callbackURL, clientState string, ttl time.Duration) (*platform.Subscription, error) {
	return nil, nil
}

func (m *rosterMock) RenewSubscription(ctx context.Context, subscriptionID string, extend time.Duration) (*platform.Subscription, error) {
	return nil, nil
}

func (m *rosterMock) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

type repoMock struct {
	mu      sync.Mutex
	saved   []*entities.Summary
	saveErr error
	listErr error
}

func (m *repoMock) Save(ctx context.Context, summary *entities.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, summary)
	return nil
}

func (m *repoMock) GetByID(ctx context.Context, id string) (*entities.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saved {
		if s.ID.String() == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *repoMock) ListByMeeting(ctx context.Context, meetingID string, from, to *time.Time) ([]entities.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []entities.Summary
	for _, s := range m.saved {
		if s.MeetingID == meetingID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *repoMock) DeleteByMeeting(ctx context.Context, meetingID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.saved[:0]
	var deleted int64
	for _, s := range m.saved {
		if s.MeetingID == meetingID {
			deleted++
		} else {
			kept = append(kept, s)
		}
	}
	m.saved = kept
	return deleted, nil
}

func (m *repoMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newSummary(meetingID string, participants ...string) *entities.Summary {
	s := entities.NewSummary(meetingID)
	s.Content = "recap"
	s.PeriodStart = time.Now().Add(-10 * time.Minute)
	s.PeriodEnd = time.Now()
	s.Participants = participants
	return s
}

func TestSave_QueuesOnFailureAndFlushesOnRecovery(t *testing.T) {
	repo := &repoMock{saveErr: fmt.Errorf("storage down")}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	first := newSummary("meeting-1", "user-1")
	second := newSummary("meeting-1", "user-1")
	svc.Save(ctx, first)
	svc.Save(ctx, second)

	assert.Empty(t, repo.saved)
	assert.Equal(t, 2, svc.PendingCount())

	// Storage recovers; the next save flushes the queue first, in order
	repo.saveErr = nil
	third := newSummary("meeting-1", "user-1")
	svc.Save(ctx, third)

	require.Len(t, repo.saved, 3)
	assert.Equal(t, first.ID, repo.saved[0].ID)
	assert.Equal(t, second.ID, repo.saved[1].ID)
	assert.Equal(t, third.ID, repo.saved[2].ID)
	assert.Zero(t, svc.PendingCount())
}

func TestGetSummary_AccessControl(t *testing.T) {
	repo := &repoMock{}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	summary := newSummary("meeting-1", "User-1")
	svc.Save(ctx, summary)

	// Participant match is case-insensitive
	got, err := svc.GetSummary(ctx, summary.ID.String(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, summary.ID, got.ID)

	_, err = svc.GetSummary(ctx, summary.ID.String(), "outsider")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_ACCESS_DENIED))

	_, err = svc.GetSummary(ctx, "0e4a3fae-0000-0000-0000-000000000000", "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_SUMMARY_NOT_FOUND))
}

func TestListForMeeting_DeniedVsEmpty(t *testing.T) {
	repo := &repoMock{}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	// No summaries at all: empty result, not an error
	got, err := svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Summaries exist but none include the requester: access denied
	svc.Save(ctx, newSummary("meeting-1", "user-2"))
	_, err = svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_ACCESS_DENIED))

	// The requester sees only their own summaries
	mine := newSummary("meeting-1", "user-1")
	svc.Save(ctx, mine)
	got, err = svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestListForMeeting_RosterDecidesMembership(t *testing.T) {
	repo := &repoMock{}
	api := &rosterMock{roster: []platform.Participant{{ID: "User-1"}, {ID: "user-2"}}}
	svc := NewService(repo, api, zap.NewNop())
	ctx := context.Background()

	// A non-participant is denied even when the meeting has no summaries yet
	_, err := svc.ListForMeeting(ctx, "meeting-1", "outsider", nil, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_ACCESS_DENIED))

	// A roster member gets an empty list when every summary excludes them,
	// instead of the fallback denial
	svc.Save(ctx, newSummary("meeting-1", "user-2"))
	got, err := svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListForMeeting_RosterFailureFallsBackToSummaryACL(t *testing.T) {
	repo := &repoMock{}
	api := &rosterMock{rosterErr: fmt.Errorf("roster unavailable")}
	svc := NewService(repo, api, zap.NewNop())
	ctx := context.Background()

	svc.Save(ctx, newSummary("meeting-1", "user-2"))
	_, err := svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_ACCESS_DENIED))

	svc.Save(ctx, newSummary("meeting-1", "user-1"))
	got, err := svc.ListForMeeting(ctx, "meeting-1", "user-1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearch_FiltersByQuery(t *testing.T) {
	repo := &repoMock{}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	matching := newSummary("meeting-1", "user-1")
	matching.Content = "We agreed on the migration plan"
	svc.Save(ctx, matching)

	other := newSummary("meeting-1", "user-1")
	other.Content = "Budget review only"
	svc.Save(ctx, other)

	got, err := svc.Search(ctx, "meeting-1", "user-1", "MIGRATION")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, matching.ID, got[0].ID)
}

func TestDeleteAllForMeeting_IncludesQueued(t *testing.T) {
	repo := &repoMock{saveErr: fmt.Errorf("storage down")}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	svc.Save(ctx, newSummary("meeting-1", "user-1"))
	svc.Save(ctx, newSummary("meeting-2", "user-1"))
	require.Equal(t, 2, svc.PendingCount())

	repo.saveErr = nil
	_, err := svc.DeleteAllForMeeting(ctx, "meeting-1")
	require.NoError(t, err)

	// Only the other meeting's summary remains queued
	assert.Equal(t, 1, svc.PendingCount())
}

func TestListForMeeting_StorageError(t *testing.T) {
	repo := &repoMock{listErr: fmt.Errorf("connection refused")}
	svc := NewService(repo, nil, zap.NewNop())

	_, err := svc.ListForMeeting(context.Background(), "meeting-1", "user-1", nil, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_STORAGE_UNAVAILABLE))
}
