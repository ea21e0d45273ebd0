package composer

import (
	"strings"

	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/conversation"
)

// Prompts used when an attachment is sent without any text
const (
	DefaultImagePrompt = "Please describe this image"
	DefaultPDFPrompt   = "Summarize this PDF"
)

// Outbound is a submitted message together with the file it refers to
type Outbound struct {
	Content    conversation.Content
	Attachment *attachments.Attachment
}

// Kind returns the kind of the submitted content
func (o Outbound) Kind() conversation.Kind {
	return o.Content.Kind()
}

// Composer holds the draft for the next user message
type Composer struct {
	text       string
	attachment *attachments.Attachment
	menuOpen   bool
}

// New creates an empty composer
func New() *Composer {
	return &Composer{}
}

// SetText replaces the draft text
func (c *Composer) SetText(text string) {
	c.text = text
}

// Text returns the draft text
func (c *Composer) Text() string {
	return c.text
}

// ToggleMenu opens or closes the attachment type menu
func (c *Composer) ToggleMenu() {
	c.menuOpen = !c.menuOpen
}

// MenuOpen reports whether the attachment type menu is shown
func (c *Composer) MenuOpen() bool {
	return c.menuOpen
}

// Attach sets the pending attachment, replacing any previous one
func (c *Composer) Attach(att attachments.Attachment) {
	c.attachment = &att
	c.menuOpen = false
}

// RemoveAttachment drops the pending attachment
func (c *Composer) RemoveAttachment() {
	c.attachment = nil
}

// Attachment returns the pending attachment, if any
func (c *Composer) Attachment() (attachments.Attachment, bool) {
	if c.attachment == nil {
		return attachments.Attachment{}, false
	}
	return *c.attachment, true
}

// CanSubmit reports whether Submit would produce a message
func (c *Composer) CanSubmit() bool {
	return c.attachment != nil || strings.TrimSpace(c.text) != ""
}

// Submit turns the draft into outbound content and resets the composer.
// It returns false and leaves the draft alone when there is nothing to send.
func (c *Composer) Submit() (Outbound, bool) {
	if !c.CanSubmit() {
		return Outbound{}, false
	}

	var out Outbound
	if att := c.attachment; att != nil {
		text := c.text
		if strings.TrimSpace(text) == "" {
			text = ""
		}
		switch att.Kind {
		case conversation.KindPDF:
			out.Content = conversation.PDFQuery{Query: orDefault(text, DefaultPDFPrompt), Filename: att.Name}
		default:
			out.Content = conversation.ImageQuery{Question: orDefault(text, DefaultImagePrompt), ImageURL: att.URL}
		}
		copied := *att
		out.Attachment = &copied
	} else {
		out.Content = conversation.Text(c.text)
	}

	c.text = ""
	c.attachment = nil
	c.menuOpen = false
	return out, true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
