package usecase

import (
	"errors"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

const helpTemplate = `
EhBot saves tags so important topics can be retrieved later by users without having to read all the conversation.

To add a tag, mention the {{.BotTag}} followed by the tag:

{{.BotTag}} dinner at 8:30pm

Or use the /tag command.

Commands:

/chatid - Returns the ID of the current chat.
/tldr <chat_id> - Gets the tags from a chat. <chat_id> is optional and defaults to the current chat.
/tag <text> - Adds a tag to the current chat.
/deletetag <num> <chat_id> - Deletes tag from a chat. <num> should be a tag that you own. <chat_id> is optional and defaults to the current chat.
`

const chatIDTemplate = `This chat's ID: {{.ChatID}}
Use it to call '/tldr {{.ChatID}}'`

const tagDeletedTemplate = `Tag deleted: "{{.Text}}"`

const (
	ReplyStopSpamming    = "Stop spamming"
	ReplyInvalidTagNum   = "Tag number is not valid"
	ReplyChatWithoutTags = "Chat doesn't have any tags"
	ReplyNotYourTag      = "This tag is not yours"
)

var errorReplies = []struct {
	err   error
	reply string
}{
	{models.ErrRateLimited, ReplyStopSpamming},
	{models.ErrInvalidTagNumber, ReplyInvalidTagNum},
	{models.ErrTagOutOfRange, ReplyInvalidTagNum},
	{models.ErrChatNotFound, ReplyChatWithoutTags},
	{models.ErrNotTagOwner, ReplyNotYourTag},
}

// replyFor returns the user-facing warning for a validation error.
func replyFor(err error) (string, bool) {
	for _, r := range errorReplies {
		if errors.Is(err, r.err) {
			return r.reply, true
		}
	}
	return "", false
}
