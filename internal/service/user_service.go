package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"protaskinate/internal/model"
	"protaskinate/internal/repository"
)

// UserService creates users and runs the new-user hook.
type UserService struct {
	repo       *repository.UserRepository
	categories *CategoryService
}

func NewUserService(repo *repository.UserRepository, categories *CategoryService) *UserService {
	return &UserService{repo: repo, categories: categories}
}

// Register creates a user and provisions the default categories.
func (s *UserService) Register(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("email", "a valid email is required")
	}
	user := &model.User{Email: email}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.onCreated(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureTelegramUser finds or creates the user behind a Telegram account.
func (s *UserService) EnsureTelegramUser(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	user, created, err := s.repo.UpsertFromTelegram(ctx, telegramID, firstName, lastName, username)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.onCreated(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	return s.repo.ListAll(ctx)
}

func (s *UserService) onCreated(ctx context.Context, user *model.User) error {
	if err := s.categories.ProvisionDefaults(ctx, user.ID); err != nil {
		return fmt.Errorf("provision categories for %s: %w", user.ID, err)
	}
	return nil
}
