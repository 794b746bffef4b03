package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type CommandKind int

const (
	CommandNoOp CommandKind = iota
	CommandHelp
	CommandTldr
	CommandChatID
	CommandTag
	CommandDeleteTag
	CommandMention
)

func (k CommandKind) String() string {
	switch k {
	case CommandHelp:
		return "help"
	case CommandTldr:
		return "tldr"
	case CommandChatID:
		return "chatid"
	case CommandTag:
		return "tag"
	case CommandDeleteTag:
		return "deletetag"
	case CommandMention:
		return "mention"
	default:
		return "noop"
	}
}

// Command is the classified intent of a message.
type Command struct {
	Kind CommandKind
	// Text is the tag text for tag and mention, the target chat for tldr.
	Text string
	// Args holds the whitespace separated arguments of deletetag.
	Args []string
}

// Classify maps message text to a command. botTag is the mention token,
// e.g. "@ehbot". The first matching rule wins.
func Classify(text, botTag string) Command {
	t := strings.TrimSpace(text)
	if t == "" {
		return Command{Kind: CommandNoOp}
	}

	if rest, ok := cutCommand(t, "/help", botTag, true); ok {
		if rest == "" {
			return Command{Kind: CommandHelp}
		}
	}
	if rest, ok := cutCommand(t, "/tldr", botTag, false); ok {
		return Command{Kind: CommandTldr, Text: rest}
	}
	if _, ok := cutCommand(t, "/chatid", botTag, false); ok {
		return Command{Kind: CommandChatID}
	}
	if rest, ok := cutCommand(t, "/tag", botTag, true); ok {
		return Command{Kind: CommandTag, Text: rest}
	}
	if rest, ok := cutCommand(t, "/deletetag", botTag, true); ok {
		cmd := Command{Kind: CommandDeleteTag}
		if args := strings.Fields(rest); len(args) > 0 {
			cmd.Args = args
		}
		return cmd
	}

	if rest, ok := cutMention(t, botTag); ok {
		return Command{Kind: CommandMention, Text: strings.TrimSpace(rest)}
	}
	return Command{Kind: CommandNoOp}
}

// cutCommand reports whether t starts with name, case-insensitively, and
// returns the trimmed remainder. With needSep the name must be followed by
// whitespace, "@" or the end of text. "/cmd@bot" addressed to another bot
// does not match.
func cutCommand(t, name, botTag string, needSep bool) (string, bool) {
	if !hasPrefixFold(t, name) {
		return "", false
	}
	rest := t[len(name):]
	if needSep && !startsWithSpace(rest) && !strings.HasPrefix(rest, "@") {
		return "", false
	}
	if strings.HasPrefix(rest, "@") {
		if !hasPrefixFold(rest, botTag) || !startsWithSpace(rest[len(botTag):]) {
			return "", false
		}
		rest = rest[len(botTag):]
	}
	return strings.TrimSpace(rest), true
}

// startsWithSpace is true for the empty string too.
func startsWithSpace(s string) bool {
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// cutMention returns the text after the first botTag that is followed by
// whitespace or the end of text. "@ehbotfoo" is not a mention of "@ehbot".
func cutMention(t, botTag string) (string, bool) {
	for off := 0; off < len(t); {
		i := indexFold(t[off:], botTag)
		if i < 0 {
			break
		}
		rest := t[off+i+len(botTag):]
		if startsWithSpace(rest) {
			return rest, true
		}
		off += i + 1
	}
	return "", false
}

func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
