package conversation

import (
	"fmt"
	"time"
)

const (
	titleMaxRunes    = 30
	attachmentTitle  = "Image/PDF Chat"
	defaultTitleForm = "New Chat %d"
)

// Conversation is a titled, timestamped sequence of messages
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

func newConversation(now time.Time, ordinal int) Conversation {
	return Conversation{
		ID:        fmt.Sprintf("chat-%d", now.UnixMilli()),
		Title:     fmt.Sprintf(defaultTitleForm, ordinal),
		CreatedAt: now.Format(CreatedAtLayout),
		Messages:  []Message{},
	}
}

// DeriveTitle computes the title implied by msgs. ok is false when the
// first message is not from the user and the current title should stay.
func DeriveTitle(msgs []Message) (title string, ok bool) {
	if len(msgs) == 0 || msgs[0].Role != RoleUser {
		return "", false
	}
	text, isText := msgs[0].Content.(Text)
	if !isText {
		return attachmentTitle, true
	}
	runes := []rune(string(text))
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "...", true
	}
	return string(text), true
}

func (c Conversation) clone() Conversation {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}
