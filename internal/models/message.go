package models

import "time"

// Message is an inbound chat message decoded from an update.
type Message struct {
	ID     int64
	Author User
	ChatID string
	Text   string
	Date   time.Time
}

// Update is one inbound event. Message is nil for update kinds the bot does
// not handle.
type Update struct {
	UpdateID int64
	Message  *Message
}
