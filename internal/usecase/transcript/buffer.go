package transcript

import (
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// DefaultBufferCapacity bounds the per-meeting queue at roughly two hours of
// continuous speech.
const DefaultBufferCapacity = 1000

// SegmentBuffer holds not-yet-summarized transcript segments, one bounded
// FIFO queue per meeting. Safe for a concurrent producer (source adapter)
// and consumer (orchestrator) on the same meeting, and for unrelated
// meetings in parallel.
type SegmentBuffer struct {
	mu       sync.RWMutex
	capacity int
	queues   map[string][]entities.TranscriptSegment
	logger   *zap.Logger
}

// NewSegmentBuffer creates a buffer with the given per-meeting capacity.
// A non-positive capacity falls back to the default.
func NewSegmentBuffer(capacity int, logger *zap.Logger) *SegmentBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &SegmentBuffer{
		capacity: capacity,
		queues:   make(map[string][]entities.TranscriptSegment),
		logger:   logger,
	}
}

// AddSegment appends a segment to the meeting's queue. When the queue is at
// capacity the oldest segment is evicted first; eviction is a capacity
// warning, not an error.
func (b *SegmentBuffer) AddSegment(meetingID string, segment *entities.TranscriptSegment) error {
	if meetingID == "" {
		return apperrors.ErrInvalidArgument("meetingID is required")
	}
	if segment == nil {
		return apperrors.ErrInvalidArgument("segment is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.queues[meetingID]
	if len(queue) >= b.capacity {
		evicted := queue[0]
		queue = queue[1:]
		if b.logger != nil {
			b.logger.Warn("⚠️ Segment buffer at capacity, evicting oldest segment",
				zap.String("meeting_id", meetingID),
				zap.Int("capacity", b.capacity),
				zap.Time("evicted_timestamp", evicted.Timestamp),
			)
		}
	}
	b.queues[meetingID] = append(queue, *segment)
	return nil
}

// GetSegments returns a snapshot of the meeting's buffered segments. A
// non-zero duration restricts the snapshot to segments newer than
// now - duration. Mutations after the call are not reflected.
func (b *SegmentBuffer) GetSegments(meetingID string, within time.Duration) []entities.TranscriptSegment {
	b.mu.RLock()
	defer b.mu.RUnlock()

	queue := b.queues[meetingID]
	if len(queue) == 0 {
		return nil
	}

	if within <= 0 {
		out := make([]entities.TranscriptSegment, len(queue))
		copy(out, queue)
		return out
	}

	cutoff := time.Now().Add(-within)
	out := make([]entities.TranscriptSegment, 0, len(queue))
	for _, seg := range queue {
		if seg.Timestamp.After(cutoff) {
			out = append(out, seg)
		}
	}
	return out
}

// HasSegments is an O(1) emptiness check used to skip needless passes
func (b *SegmentBuffer) HasSegments(meetingID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.queues[meetingID]) > 0
}

// Len returns the number of buffered segments for a meeting
func (b *SegmentBuffer) Len(meetingID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.queues[meetingID])
}

// ClearBuffer discards the meeting's queue entirely
func (b *SegmentBuffer) ClearBuffer(meetingID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.queues, meetingID)
}
