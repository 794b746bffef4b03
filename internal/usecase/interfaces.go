package usecase

import (
	"context"
)

// Messenger delivers reply text to a chat or user id.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
}
