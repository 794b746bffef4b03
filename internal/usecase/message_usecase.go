package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
	"github.com/nguyentranbao-ct/ehbot/pkg/tmplx"
)

type MessageUsecase interface {
	// HandleMessage classifies msg and runs its command. Validation
	// failures are answered with a warning and do not return an error.
	HandleMessage(ctx context.Context, msg *models.Message) error
}

type messageUsecase struct {
	botTag     string
	tags       TagUsecase
	users      UserUsecase
	messenger  Messenger
	help       string
	chatID     *tmplx.Template
	tagDeleted *tmplx.Template
}

func NewMessageUsecase(
	conf *config.Config,
	tags TagUsecase,
	users UserUsecase,
	messenger Messenger,
) (MessageUsecase, error) {
	help, err := tmplx.MustParse("help", helpTemplate).RenderString(map[string]string{
		"BotTag": conf.Bot.Tag(),
	})
	if err != nil {
		return nil, fmt.Errorf("render help: %w", err)
	}
	return &messageUsecase{
		botTag:     conf.Bot.Tag(),
		tags:       tags,
		users:      users,
		messenger:  messenger,
		help:       help,
		chatID:     tmplx.MustParse("chat_id", chatIDTemplate),
		tagDeleted: tmplx.MustParse("tag_deleted", tagDeletedTemplate),
	}, nil
}

func (uc *messageUsecase) HandleMessage(ctx context.Context, msg *models.Message) error {
	cmd := Classify(msg.Text, uc.botTag)
	log.Set(ctx, "command", cmd.Kind.String())

	switch cmd.Kind {
	case CommandHelp:
		return uc.send(ctx, msg.ChatID, uc.help)
	case CommandChatID:
		return uc.handleChatID(ctx, msg)
	case CommandTldr:
		return uc.handleTldr(ctx, msg, cmd)
	case CommandTag, CommandMention:
		return uc.handleTag(ctx, msg, cmd)
	case CommandDeleteTag:
		return uc.handleDeleteTag(ctx, msg, cmd)
	default:
		return nil
	}
}

func (uc *messageUsecase) send(ctx context.Context, chatID, text string) error {
	if err := uc.messenger.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("send to %s: %w", chatID, err)
	}
	return nil
}

// warn answers a validation error privately. Errors without a canned reply
// are returned as they are.
func (uc *messageUsecase) warn(ctx context.Context, userID string, err error) error {
	reply, ok := replyFor(err)
	if !ok {
		return err
	}
	log.Warnw(ctx, "rejected command", "user_id", userID, "reason", err.Error())
	return uc.send(ctx, userID, reply)
}

func (uc *messageUsecase) handleChatID(ctx context.Context, msg *models.Message) error {
	text, err := uc.chatID.RenderString(map[string]string{"ChatID": msg.ChatID})
	if err != nil {
		return err
	}
	return uc.send(ctx, msg.ChatID, text)
}

func (uc *messageUsecase) handleTldr(ctx context.Context, msg *models.Message, cmd Command) error {
	target := cmd.Text
	if target == "" {
		target = msg.ChatID
	}

	text, err := uc.tags.FormatTagList(ctx, target)
	if err != nil {
		return err
	}
	if err := uc.users.RecordQuery(ctx, msg.Author, target); err != nil {
		log.Warnw(ctx, "failed to record tldr query", "user_id", msg.Author.ID, "error", err)
	}
	return uc.send(ctx, msg.Author.ID, text)
}

func (uc *messageUsecase) handleTag(ctx context.Context, msg *models.Message, cmd Command) error {
	if cmd.Text == "" {
		log.Debugw(ctx, "ignoring empty tag")
		return nil
	}

	if err := uc.tags.CheckRateLimit(ctx, msg.ChatID, msg.Author.ID, msg.Date); err != nil {
		return uc.warn(ctx, msg.Author.ID, err)
	}

	if _, err := uc.users.TouchUser(ctx, msg.Author); err != nil {
		log.Warnw(ctx, "failed to store tag author", "user_id", msg.Author.ID, "error", err)
	}

	tag := models.Tag{
		Text:      cmd.Text,
		Author:    msg.Author,
		CreatedAt: msg.Date,
	}
	if err := uc.tags.AddTag(ctx, msg.ChatID, tag); err != nil {
		return err
	}
	log.Infow(ctx, "tag stored", "user_id", msg.Author.ID)
	return nil
}

func (uc *messageUsecase) handleDeleteTag(ctx context.Context, msg *models.Message, cmd Command) error {
	if len(cmd.Args) == 0 || !isDigits(cmd.Args[0]) {
		return uc.warn(ctx, msg.Author.ID, models.ErrInvalidTagNumber)
	}
	num, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return uc.warn(ctx, msg.Author.ID, models.ErrInvalidTagNumber)
	}

	chatID := msg.ChatID
	if len(cmd.Args) >= 2 && isChatID(cmd.Args[1]) {
		chatID = cmd.Args[1]
	}

	text, err := uc.tags.DeleteTag(ctx, chatID, num-1, msg.Author.ID)
	if err != nil {
		return uc.warn(ctx, msg.Author.ID, err)
	}

	reply, err := uc.tagDeleted.RenderString(map[string]string{"Text": text})
	if err != nil {
		return err
	}
	return uc.send(ctx, msg.Author.ID, reply)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isChatID accepts group ids, which are negative.
func isChatID(s string) bool {
	if len(s) > 1 && s[0] == '-' {
		s = s[1:]
	}
	return isDigits(s)
}
