package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
)

type UserUsecase interface {
	// TouchUser creates or refreshes the profile of a message author.
	TouchUser(ctx context.Context, author models.User) (*models.User, error)
	RecordQuery(ctx context.Context, author models.User, chatID string) error
}

type userUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) UserUsecase {
	return &userUsecase{
		users: users,
	}
}

func (uc *userUsecase) TouchUser(ctx context.Context, author models.User) (*models.User, error) {
	existing, err := uc.users.GetUser(ctx, author.ID)
	if errors.Is(err, models.ErrNotFound) {
		user := author
		if err := uc.users.SaveUser(ctx, &user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	before := *existing
	existing.Merge(author)
	if existing.FirstName == before.FirstName &&
		existing.LastName == before.LastName &&
		existing.Username == before.Username {
		return existing, nil
	}
	if err := uc.users.SaveUser(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return existing, nil
}

func (uc *userUsecase) RecordQuery(ctx context.Context, author models.User, chatID string) error {
	user, err := uc.TouchUser(ctx, author)
	if err != nil {
		return err
	}
	if user.LastQueriedChat != nil && *user.LastQueriedChat == chatID {
		return nil
	}
	user.LastQueriedChat = &chatID
	if err := uc.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}
