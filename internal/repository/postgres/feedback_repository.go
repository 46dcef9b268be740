package postgres

import (
	"context"

	"movieReco/business/feedback"
	"movieReco/business/semantic"
	"movieReco/business/user"
	"movieReco/domain"

	"gorm.io/gorm"
)

// FeedbackRepository is the append-only feedback log.
type FeedbackRepository struct {
	DB *gorm.DB
}

var (
	_ feedback.Repository          = (*FeedbackRepository)(nil)
	_ semantic.FeedbackLookup      = (*FeedbackRepository)(nil)
	_ user.FeedbackStatsRepository = (*FeedbackRepository)(nil)
)

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{
		DB: db,
	}
}

func (r *FeedbackRepository) Save(ctx context.Context, ev *domain.FeedbackEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

// FindAll returns the whole log in insertion order.
func (r *FeedbackRepository) FindAll(ctx context.Context) ([]domain.FeedbackEvent, error) {
	var events []domain.FeedbackEvent

	if err := r.DB.WithContext(ctx).Order("timestamp ASC").Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID uint) ([]domain.FeedbackEvent, error) {
	var events []domain.FeedbackEvent

	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC").Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *FeedbackRepository) ExistsByKind(ctx context.Context, userID uint, itemID int64, kind domain.FeedbackKind) (bool, error) {
	var count int64

	err := r.DB.WithContext(ctx).Model(&domain.FeedbackEvent{}).
		Where("user_id = ? AND movie_id = ? AND feedback_type = ?", userID, itemID, kind).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *FeedbackRepository) CountByKind(ctx context.Context, userID uint) (map[domain.FeedbackKind]int64, error) {
	var rows []struct {
		Kind  domain.FeedbackKind `gorm:"column:feedback_type"`
		Count int64               `gorm:"column:count"`
	}

	err := r.DB.WithContext(ctx).Model(&domain.FeedbackEvent{}).
		Select("feedback_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("feedback_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.FeedbackKind]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// RecentByUser returns the newest events first.
func (r *FeedbackRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.FeedbackEvent, error) {
	var events []domain.FeedbackEvent

	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}
