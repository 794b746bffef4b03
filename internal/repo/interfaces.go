package repo

import (
	"context"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

type ChatRepository interface {
	// GetChat returns models.ErrNotFound when the chat has never been saved.
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	SaveChat(ctx context.Context, chat *models.Chat) error
}

type UserRepository interface {
	// GetUser returns models.ErrNotFound when the user has never been saved.
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// Store is the persistence port every backend implements.
type Store interface {
	ChatRepository
	UserRepository
	Close(ctx context.Context) error
}
