package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/selah-im/intake_server/internal/model"
)

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Record(ctx context.Context, event *model.AnalyticsEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return &PersistenceError{Op: "record analytics event", ID: event.UserID, Err: err}
	}
	return nil
}

func (r *AnalyticsRepository) CountByType(ctx context.Context, eventType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error
	if err != nil {
		return 0, &PersistenceError{Op: "count analytics events", Err: err}
	}
	return count, nil
}
