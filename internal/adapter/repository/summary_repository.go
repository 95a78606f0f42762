package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/repositories"
)

// summaryRepository implements the SummaryRepository interface
type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new summary repository backed by GORM
func NewSummaryRepository(db *gorm.DB) repositories.SummaryRepository {
	return &summaryRepository{db: db}
}

// Save upserts a summary by primary key
func (r *summaryRepository) Save(ctx context.Context, summary *entities.Summary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

// GetByID retrieves a summary by ID, returning nil when absent
func (r *summaryRepository) GetByID(ctx context.Context, id string) (*entities.Summary, error) {
	var summary entities.Summary
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// ListByMeeting retrieves summaries for a meeting ordered by period start
func (r *summaryRepository) ListByMeeting(ctx context.Context, meetingID string, from, to *time.Time) ([]entities.Summary, error) {
	q := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("period_start ASC")

	if from != nil {
		q = q.Where("period_start >= ?", *from)
	}
	if to != nil {
		q = q.Where("period_end <= ?", *to)
	}

	var summaries []entities.Summary
	err := q.Find(&summaries).Error
	return summaries, err
}

// DeleteByMeeting removes every summary for a meeting
func (r *summaryRepository) DeleteByMeeting(ctx context.Context, meetingID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Delete(&entities.Summary{})
	return result.RowsAffected, result.Error
}

// DeleteExpired removes summaries past their retention TTL
func (r *summaryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&entities.Summary{})
	return result.RowsAffected, result.Error
}
