package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"protaskinate/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the user's category with the given id, creating it
// when missing. created tells which of the two happened.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, category model.Category) (*model.Category, bool, error) {
	var existing model.Category
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND id = ?", category.UserID, category.ID).First(&existing).Error
	switch {
	case err == nil:
		return &existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&category).Error; err != nil {
			return nil, false, fmt.Errorf("create category: %w", err)
		}
		return &category, true, nil
	default:
		return nil, false, fmt.Errorf("find category: %w", err)
	}
}

// CreateMissing inserts categories in one batch, keeping any that already exist.
func (r *CategoryRepository) CreateMissing(ctx context.Context, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("create categories: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Delete removes one category. Tasks keep their stale references.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.Category{})
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
