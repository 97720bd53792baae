package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"protaskinate/internal/model"
)

// EventRepository reads and acknowledges the task write log.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Pending returns unprocessed events after afterID that have been tried
// fewer than maxAttempts times, oldest first.
func (r *EventRepository) Pending(ctx context.Context, afterID uint, limit, maxAttempts int) ([]model.TaskEvent, error) {
	var events []model.TaskEvent
	if err := r.db.WithContext(ctx).
		Where("id > ? AND processed_at IS NULL AND attempts < ?", afterID, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) MarkProcessed(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.TaskEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"processed_at": at, "last_error": ""}).Error; err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *EventRepository) MarkFailed(ctx context.Context, id uint, cause error) error {
	if err := r.db.WithContext(ctx).Model(&model.TaskEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error; err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.TaskEvent, error) {
	var event model.TaskEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}
