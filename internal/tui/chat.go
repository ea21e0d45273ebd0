package tui

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bobchat/cli/internal/conversation"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// threadView renders the active conversation into a scrolling viewport
type threadView struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	wrap     int

	// rendered markdown by message ID, valid for the current wrap width
	cache map[string]string
}

func newThreadView() threadView {
	return threadView{
		viewport: viewport.New(0, 0),
		cache:    map[string]string{},
	}
}

func (t *threadView) resize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height

	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	if wrap == t.wrap && t.renderer != nil {
		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create markdown renderer")
		renderer = nil
	}
	t.renderer = renderer
	t.wrap = wrap
	t.cache = map[string]string{}
}

// setMessages replaces the viewport content and scrolls to the newest entry
func (t *threadView) setMessages(msgs []conversation.Message) {
	if len(msgs) == 0 {
		t.viewport.SetContent(t.welcome())
		t.viewport.GotoTop()
		return
	}

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, t.renderMessage(msg))
	}
	t.viewport.SetContent(strings.Join(blocks, "\n\n"))
	t.viewport.GotoBottom()
}

func (t *threadView) welcome() string {
	lines := []string{
		titleStyle.Render("Chat With BOb!"),
		"",
		hintStyle.Render("Ask a question, attach an image to have it described,"),
		hintStyle.Render("or attach a PDF to get a summary."),
		"",
		hintStyle.Render("enter send • alt+enter newline • ctrl+a attach"),
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if t.viewport.Width == 0 || t.viewport.Height == 0 {
		return content
	}
	return lipgloss.Place(t.viewport.Width, t.viewport.Height, lipgloss.Center, lipgloss.Center, content)
}

func (t *threadView) renderMessage(msg conversation.Message) string {
	width := t.viewport.Width
	if msg.Role == conversation.RoleUser {
		content := userContent(msg.Content)
		bubbleWidth := lipgloss.Width(content) + 2
		if limit := width * 3 / 4; bubbleWidth > limit && limit > 0 {
			bubbleWidth = limit
		}
		body := userBubbleStyle.Width(bubbleWidth).Render(content)
		block := lipgloss.JoinVertical(lipgloss.Right,
			userLabelStyle.Render("You"),
			body,
			timestampStyle.Render(msg.Timestamp),
		)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	parts := []string{
		assistantLabelStyle.Render("BOb"),
		t.markdown(msg),
	}
	if msg.GeneratedImageURL != "" {
		panel := generatedImageStyle.Render(
			"Generated image\n" + hintStyle.Render(msg.GeneratedImageURL) + "\n" + hintStyle.Render("ctrl+g to download"),
		)
		parts = append(parts, panel)
	}
	parts = append(parts, timestampStyle.Render(msg.Timestamp))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (t *threadView) markdown(msg conversation.Message) string {
	text := ""
	if s, ok := msg.Content.(conversation.Text); ok {
		text = string(s)
	}
	if t.renderer == nil {
		return text
	}
	if out, ok := t.cache[msg.ID]; ok {
		return out
	}

	out, err := t.renderer.Render(text)
	if err != nil {
		log.Debug().Err(err).Str("message", msg.ID).Msg("markdown render failed")
		return text
	}
	out = strings.TrimRight(out, "\n")
	t.cache[msg.ID] = out
	return out
}

func userContent(content conversation.Content) string {
	switch c := content.(type) {
	case conversation.Text:
		return string(c)
	case conversation.ImageQuery:
		return fmt.Sprintf("%s\n%s", c.Question, attachmentStyle.Render("[image] "+fileLabel(c.ImageURL)))
	case conversation.PDFQuery:
		return fmt.Sprintf("%s\n%s", c.Query, attachmentStyle.Render("[pdf] "+c.Filename))
	}
	return ""
}

// fileLabel shortens a file:// or data URL to something readable
func fileLabel(raw string) string {
	if strings.HasPrefix(raw, "data:") {
		return "inline image"
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return raw
}
