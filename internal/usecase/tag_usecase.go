package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
	"github.com/nguyentranbao-ct/ehbot/pkg/tmplx"
)

const (
	NoTagsFound   = "No Tags found for this chat"
	tagDateLayout = "Mon 02 03:04PM"
)

const tagListTemplate = `Tags for chat {{.ChatID}}:
{{- range $i, $t := .Tags}}
{{inc $i}}. "{{$t.Text}}" @{{default "unknown" $t.Author.DisplayName}} {{date $t.CreatedAt}}
{{- end}}`

type TagUsecase interface {
	AddTag(ctx context.Context, chatID string, tag models.Tag) error
	// DeleteTag removes the tag at the zero-based index and returns its text.
	DeleteTag(ctx context.Context, chatID string, index int, requesterID string) (string, error)
	CheckRateLimit(ctx context.Context, chatID, authorID string, now time.Time) error
	FormatTagList(ctx context.Context, chatID string) (string, error)
}

type tagUsecase struct {
	chats    repo.ChatRepository
	maxTags  int
	window   time.Duration
	adminID  string
	tagsList *tmplx.Template
}

func NewTagUsecase(chats repo.ChatRepository, conf *config.Config) TagUsecase {
	loc := conf.Location()
	return &tagUsecase{
		chats:   chats,
		maxTags: conf.Bot.MaxTags,
		window:  conf.Bot.RateLimitWindow,
		adminID: conf.Bot.AdminID,
		tagsList: tmplx.MustParse("tag_list", tagListTemplate,
			tmplx.WithTemplateFunc("date", func(t time.Time) string {
				return t.In(loc).Format(tagDateLayout)
			}),
		),
	}
}

func (uc *tagUsecase) getChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, err := uc.chats.GetChat(ctx, chatID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	return chat, nil
}

func (uc *tagUsecase) AddTag(ctx context.Context, chatID string, tag models.Tag) error {
	chat, err := uc.getChat(ctx, chatID)
	if errors.Is(err, models.ErrChatNotFound) {
		var admin *string
		if uc.adminID != "" {
			admin = &uc.adminID
		}
		chat = models.NewChat(chatID, admin)
	} else if err != nil {
		return err
	}

	if evicted := chat.AddTag(tag, uc.maxTags); len(evicted) > 0 {
		log.Debugw(ctx, "tags evicted", "chat_id", chatID, "count", len(evicted))
	}
	if err := uc.chats.SaveChat(ctx, chat); err != nil {
		return fmt.Errorf("save chat %s: %w", chatID, err)
	}
	return nil
}

func (uc *tagUsecase) DeleteTag(ctx context.Context, chatID string, index int, requesterID string) (string, error) {
	chat, err := uc.getChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(chat.Tags) == 0 {
		return "", models.ErrChatNotFound
	}
	if index < 0 || index >= len(chat.Tags) {
		return "", models.ErrTagOutOfRange
	}
	if chat.Tags[index].Author.ID != requesterID {
		return "", models.ErrNotTagOwner
	}

	removed, err := chat.RemoveTag(index)
	if err != nil {
		return "", err
	}
	if err := uc.chats.SaveChat(ctx, chat); err != nil {
		return "", fmt.Errorf("save chat %s: %w", chatID, err)
	}
	return removed.Text, nil
}

// CheckRateLimit rejects an author who already tagged this chat within the
// window ending at now. The window bound is inclusive.
func (uc *tagUsecase) CheckRateLimit(ctx context.Context, chatID, authorID string, now time.Time) error {
	chat, err := uc.getChat(ctx, chatID)
	if errors.Is(err, models.ErrChatNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if last, ok := chat.LastTagBy(authorID); ok && now.Sub(last.CreatedAt) <= uc.window {
		return fmt.Errorf("%w: user %q in chat %s", models.ErrRateLimited, last.Author.DisplayName(), chatID)
	}
	return nil
}

func (uc *tagUsecase) FormatTagList(ctx context.Context, chatID string) (string, error) {
	chat, err := uc.getChat(ctx, chatID)
	if errors.Is(err, models.ErrChatNotFound) {
		return NoTagsFound, nil
	}
	if err != nil {
		return "", err
	}
	if len(chat.Tags) == 0 {
		return NoTagsFound, nil
	}

	return uc.tagsList.RenderString(map[string]any{
		"ChatID": chat.ID,
		"Tags":   chat.Tags,
	})
}
