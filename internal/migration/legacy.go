// Package migration converts the legacy tag dump, a map of chat id to raw
// message objects, into chats and users in the configured store.
package migration

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
)

type legacyUser struct {
	ID        any    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type legacyTag struct {
	From *legacyUser `json:"from"`
	Date any         `json:"date"`
	Text string      `json:"text"`
}

type Result struct {
	Chats   int `json:"chats"`
	Tags    int `json:"tags"`
	Users   int `json:"users"`
	Skipped int `json:"skipped"`
}

type Migrator interface {
	// Migrate reads a legacy dump from r and writes every chat in it,
	// replacing chats with the same id.
	Migrate(ctx context.Context, r io.Reader) (*Result, error)
}

type migrator struct {
	chats   repo.ChatRepository
	users   usecase.UserUsecase
	maxTags int
	admin   string
}

func NewMigrator(chats repo.ChatRepository, users usecase.UserUsecase, conf *config.Config) Migrator {
	return &migrator{
		chats:   chats,
		users:   users,
		maxTags: conf.Bot.MaxTags,
		admin:   conf.Bot.AdminID,
	}
}

func (m *migrator) Migrate(ctx context.Context, r io.Reader) (*Result, error) {
	var dump map[string][]legacyTag
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode legacy dump: %w", err)
	}

	var admin *string
	if m.admin != "" {
		admin = &m.admin
	}

	res := &Result{}
	seen := make(map[string]bool)
	chatIDs := make([]string, 0, len(dump))
	for id := range dump {
		chatIDs = append(chatIDs, id)
	}
	slices.Sort(chatIDs)

	for _, chatID := range chatIDs {
		chat := models.NewChat(chatID, admin)
		for i, raw := range dump[chatID] {
			tag, err := toTag(raw)
			if err != nil {
				log.Warnw(ctx, "skipping legacy tag", "chat_id", chatID, "index", i, "error", err)
				res.Skipped++
				continue
			}
			chat.AddTag(tag, m.maxTags)

			if !seen[tag.Author.ID] {
				if _, err := m.users.TouchUser(ctx, tag.Author); err != nil {
					return res, fmt.Errorf("save user %s: %w", tag.Author.ID, err)
				}
				seen[tag.Author.ID] = true
				res.Users++
			}
		}

		if err := m.chats.SaveChat(ctx, chat); err != nil {
			return res, fmt.Errorf("save chat %s: %w", chatID, err)
		}
		res.Chats++
		res.Tags += len(chat.Tags)
		log.Infow(ctx, "chat migrated", "chat_id", chatID, "tags", len(chat.Tags))
	}
	return res, nil
}

func toTag(raw legacyTag) (models.Tag, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return models.Tag{}, fmt.Errorf("empty text")
	}
	if raw.From == nil {
		return models.Tag{}, fmt.Errorf("missing author")
	}
	id, err := cast.ToStringE(raw.From.ID)
	if err != nil {
		return models.Tag{}, fmt.Errorf("author id %v: %w", raw.From.ID, err)
	}
	if id == "" {
		return models.Tag{}, fmt.Errorf("missing author id")
	}
	date, err := cast.ToInt64E(raw.Date)
	if err != nil {
		return models.Tag{}, fmt.Errorf("date %v: %w", raw.Date, err)
	}

	return models.Tag{
		Text: text,
		Author: models.User{
			ID:        id,
			FirstName: raw.From.FirstName,
			LastName:  raw.From.LastName,
			Username:  raw.From.Username,
		},
		CreatedAt: time.Unix(date, 0).UTC(),
	}, nil
}
