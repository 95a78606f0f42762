package repositories

import (
	"context"
	"time"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// SummaryRepository defines durable persistence for summaries, partitioned
// by meeting ID. Implementations must return entities ordered by period
// start for range queries.
type SummaryRepository interface {
	// Save upserts a summary
	Save(ctx context.Context, summary *entities.Summary) error

	// GetByID returns a summary or nil when it does not exist
	GetByID(ctx context.Context, id string) (*entities.Summary, error)

	// ListByMeeting returns summaries for a meeting ordered by period start,
	// optionally restricted to periods within [from, to]
	ListByMeeting(ctx context.Context, meetingID string, from, to *time.Time) ([]entities.Summary, error)

	// DeleteByMeeting removes every summary for a meeting
	DeleteByMeeting(ctx context.Context, meetingID string) (int64, error)

	// DeleteExpired removes summaries whose TTL has lapsed
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
