package telegram

import (
	"strconv"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

type Update struct {
	UpdateID int64    `json:"update_id" validate:"required"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (u User) ToModel() models.User {
	return models.User{
		ID:        strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// ToModel drops messages without a sender, such as channel posts.
func (u Update) ToModel() models.Update {
	out := models.Update{UpdateID: u.UpdateID}
	if u.Message == nil || u.Message.From == nil {
		return out
	}
	out.Message = &models.Message{
		ID:     u.Message.MessageID,
		Author: u.Message.From.ToModel(),
		ChatID: strconv.FormatInt(u.Message.Chat.ID, 10),
		Text:   u.Message.Text,
		Date:   time.Unix(u.Message.Date, 0).UTC(),
	}
	return out
}
