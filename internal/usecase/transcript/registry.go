package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubscriptionRegistry maps platform subscription IDs back to meetings so
// incoming change notifications can be routed, and remembers processed
// notification keys to absorb redelivery. Backed by Redis so a restart does
// not orphan live subscriptions.
type SubscriptionRegistry struct {
	client *redis.Client
	logger *zap.Logger
}

func NewSubscriptionRegistry(client *redis.Client, logger *zap.Logger) *SubscriptionRegistry {
	return &SubscriptionRegistry{
		client: client,
		logger: logger,
	}
}

func subscriptionKey(subscriptionID string) string {
	return fmt.Sprintf("transcript:subscription:%s", subscriptionID)
}

func notificationKey(key string) string {
	return fmt.Sprintf("transcript:notification:%s", key)
}

// Put records the subscription-to-meeting mapping for the subscription's
// lifetime plus a grace window for late deliveries.
func (r *SubscriptionRegistry) Put(ctx context.Context, subscriptionID, meetingID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, subscriptionKey(subscriptionID), meetingID, ttl+5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to store subscription mapping: %w", err)
	}
	return nil
}

// GetMeeting resolves a subscription ID to its meeting. An unknown or
// expired subscription returns an empty string without error.
func (r *SubscriptionRegistry) GetMeeting(ctx context.Context, subscriptionID string) (string, error) {
	meetingID, err := r.client.Get(ctx, subscriptionKey(subscriptionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve subscription: %w", err)
	}
	return meetingID, nil
}

// Delete drops the mapping once the subscription is torn down
func (r *SubscriptionRegistry) Delete(ctx context.Context, subscriptionID string) {
	if err := r.client.Del(ctx, subscriptionKey(subscriptionID)).Err(); err != nil && r.logger != nil {
		r.logger.Warn("Failed to delete subscription mapping",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err),
		)
	}
}

// MarkProcessed returns true exactly once per notification key within the
// dedup window. Redis errors report the notification as fresh so a cache
// outage degrades to duplicate work, never dropped transcripts.
func (r *SubscriptionRegistry) MarkProcessed(ctx context.Context, key string, window time.Duration) bool {
	fresh, err := r.client.SetNX(ctx, notificationKey(key), "1", window).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("Notification dedup check failed", zap.Error(err))
		}
		return true
	}
	return fresh
}
