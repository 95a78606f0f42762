package transcript

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
)

type subscribingAPIMock struct {
	mu           sync.Mutex
	clientStates []string
	deleted      []string
}

func (m *subscribingAPIMock) GetMeetingDetails(ctx context.Context, meetingID string) (*platform.MeetingDetails, error) {
	return &platform.MeetingDetails{}, nil
}

func (m *subscribingAPIMock) GetParticipants(ctx context.Context, meetingID string) ([]platform.Participant, error) {
	return nil, nil
}

func (m *subscribingAPIMock) PostChatMessage(ctx context.Context, meetingID, text string) error {
	return nil
}

func (m *subscribingAPIMock) SendPrivateNotification(ctx context.Context, userID string, card *platform.Card) error {
	return nil
}

func (m *subscribingAPIMock) GetTranscriptContent(ctx context.Context, meetingID string) (string, error) {
	return "", nil
}

func (m *subscribingAPIMock) FetchTranscript(ctx context.Context, meetingID, transcriptID string) (string, error) {
	return "", nil
}

func (m *subscribingAPIMock) CreateSubscription(ctx context.Context, resource, callbackURL, clientState string, ttl time.Duration) (*platform.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientStates = append(m.clientStates, clientState)
	return &platform.Subscription{ID: "sub-1", ExpiresAt: time.Now().Add(ttl)}, nil
}

func (m *subscribingAPIMock) RenewSubscription(ctx context.Context, subscriptionID string, extend time.Duration) (*platform.Subscription, error) {
	return &platform.Subscription{ID: subscriptionID, ExpiresAt: time.Now().Add(extend)}, nil
}

func (m *subscribingAPIMock) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, subscriptionID)
	return nil
}

// unreachableRegistry talks to a port nothing listens on, so every mapping
// write fails. Start still creates the platform subscription first, which is
// what these tests observe.
func unreachableRegistry() *SubscriptionRegistry {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewSubscriptionRegistry(client, zap.NewNop())
}

func TestWebhookStart_UsesConfiguredSecretAsClientState(t *testing.T) {
	api := &subscribingAPIMock{}
	buffer := NewSegmentBuffer(10, zap.NewNop())
	strategy := NewWebhookStrategy(api, buffer, unreachableRegistry(), "https://bot.example.com/webhook", "shared-secret", zap.NewNop())

	_ = strategy.Start(context.Background(), "meeting-1")

	require.Len(t, api.clientStates, 1)
	assert.Equal(t, "shared-secret", api.clientStates[0])
}

func TestWebhookStart_EmptySecretGetsRandomClientState(t *testing.T) {
	api := &subscribingAPIMock{}
	buffer := NewSegmentBuffer(10, zap.NewNop())
	strategy := NewWebhookStrategy(api, buffer, unreachableRegistry(), "https://bot.example.com/webhook", "", zap.NewNop())

	_ = strategy.Start(context.Background(), "meeting-1")
	_ = strategy.Start(context.Background(), "meeting-2")

	require.Len(t, api.clientStates, 2)
	assert.NotEmpty(t, api.clientStates[0])
	assert.NotEqual(t, api.clientStates[0], api.clientStates[1])
}

func TestWebhookStart_MappingFailureDeletesSubscription(t *testing.T) {
	api := &subscribingAPIMock{}
	buffer := NewSegmentBuffer(10, zap.NewNop())
	strategy := NewWebhookStrategy(api, buffer, unreachableRegistry(), "https://bot.example.com/webhook", "shared-secret", zap.NewNop())

	err := strategy.Start(context.Background(), "meeting-1")
	require.Error(t, err)
	assert.Equal(t, []string{"sub-1"}, api.deleted)
}
