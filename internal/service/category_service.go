package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

// Colors are the tags a category may carry.
var Colors = []string{"red", "orange", "yellow", "lime", "green", "teal", "blue", "purple", "fuchsia"}

// DefaultCategories are given to every new user.
var DefaultCategories = []model.Category{
	{ID: "Personal", Name: "Personal", Color: "red"},
	{ID: "Work", Name: "Work", Color: "blue"},
	{ID: "Errand", Name: "Errand", Color: "orange"},
}

var unsafeCategoryChars = regexp.MustCompile(`[/.#\[\]\s]`)

// SanitizeCategoryName derives a category id from its display name.
func SanitizeCategoryName(name string) string {
	return unsafeCategoryChars.ReplaceAllString(name, "")
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add creates a category unless one with the same sanitized name exists, in
// which case the existing one is returned untouched. Two names that sanitize
// alike ("Day Job" and "DayJob") are the same category.
func (s *CategoryService) Add(ctx context.Context, userID, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	id := SanitizeCategoryName(name)
	if id == "" {
		return nil, invalid("name", "category name is required")
	}
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		color = "blue"
	}
	if !knownColor(color) {
		return nil, invalid("color", fmt.Sprintf("unknown color %q", color))
	}

	category, created, err := s.repo.GetOrCreate(ctx, model.Category{UserID: userID, ID: id, Name: name, Color: color})
	if err != nil {
		log.Printf("[error] add category user=%s: %v", userID, err)
		return nil, err
	}
	if !created {
		log.Printf("[info] category %q already exists for user=%s", id, userID)
	}
	return category, nil
}

// Delete removes a category. Tasks that still reference it are left alone;
// the board simply stops matching the stale id.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		log.Printf("[error] delete category user=%s: %v", userID, err)
		return err
	}
	return nil
}

// ProvisionDefaults gives userID the default categories it is missing.
func (s *CategoryService) ProvisionDefaults(ctx context.Context, userID string) error {
	categories := make([]model.Category, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		c.UserID = userID
		categories = append(categories, c)
	}
	if err := s.repo.CreateMissing(ctx, categories); err != nil {
		return err
	}
	log.Printf("[info] default categories added for user=%s", userID)
	return nil
}

func knownColor(color string) bool {
	for _, c := range Colors {
		if c == color {
			return true
		}
	}
	return false
}
