package tui

import (
	"strings"

	"github.com/bobchat/cli/internal/conversation"
	"github.com/mattn/go-runewidth"
)

// sidebar lists conversations in store order with a movable cursor
type sidebar struct {
	cursor int
	width  int
}

func (s *sidebar) move(delta, n int) {
	if n == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= n {
		s.cursor = n - 1
	}
}

// follow puts the cursor on the conversation with id
func (s *sidebar) follow(convs []conversation.Conversation, id string) {
	for i, c := range convs {
		if c.ID == id {
			s.cursor = i
			return
		}
	}
	s.move(0, len(convs))
}

func (s sidebar) selected(convs []conversation.Conversation) (conversation.Conversation, bool) {
	if s.cursor < 0 || s.cursor >= len(convs) {
		return conversation.Conversation{}, false
	}
	return convs[s.cursor], true
}

// window returns the slice of items to draw so the cursor stays visible
func (s sidebar) window(n, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	start := s.cursor - rows + 1
	if start < 0 {
		start = 0
	}
	return start, start + rows
}

func (s sidebar) view(convs []conversation.Conversation, activeID string, focused bool, height int) string {
	inner := s.width - 4
	if inner < 8 {
		inner = 8
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Chat With BOb!"))
	b.WriteString("\n\n")
	b.WriteString(newChatStyle.Render(runewidth.Truncate("+ New Chat  ctrl+n", inner, "…")))
	b.WriteString("\n\n")

	start, end := s.window(len(convs), (height-8)/2)
	for i := start; i < end; i++ {
		c := convs[i]
		marker := "  "
		if focused && i == s.cursor {
			marker = "› "
		}

		title := runewidth.Truncate(c.Title, inner-runewidth.StringWidth(marker), "…")
		style := conversationStyle
		if c.ID == activeID {
			style = activeConversationStyle
		}
		b.WriteString(marker + style.Render(title))
		b.WriteString("\n")
		b.WriteString("  " + createdAtStyle.Render(runewidth.Truncate(c.CreatedAt, inner-2, "…")))
		b.WriteString("\n")
	}

	if focused {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("enter open • d delete"))
	}

	style := sidebarStyle
	if focused {
		style = sidebarFocusedStyle
	}
	return style.Width(s.width - 2).Height(height - 2).Render(b.String())
}
