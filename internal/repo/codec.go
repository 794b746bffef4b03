package repo

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

func EncodeChat(chat *models.Chat) ([]byte, error) {
	data, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("encode chat %s: %w", chat.ID, err)
	}
	return data, nil
}

func DecodeChat(data []byte) (*models.Chat, error) {
	var chat models.Chat
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("decode chat: %w", err)
	}
	if chat.Tags == nil {
		chat.Tags = []models.Tag{}
	}
	return &chat, nil
}

func EncodeUser(user *models.User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	return data, nil
}

func DecodeUser(data []byte) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}
