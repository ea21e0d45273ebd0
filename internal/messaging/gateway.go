package messaging

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/composer"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/rs/zerolog/log"
)

// DefaultThreadID is the thread every request is sent under
const DefaultThreadID = "default-thread"

// Replies shown in place of a failed exchange
const (
	TextFailure  = "Sorry, I encountered an error while processing your message."
	ImageFailure = "Sorry, I encountered an error while analyzing the image."
	PDFFailure   = "Sorry, I encountered an error while processing the PDF."
)

var generatedImagePattern = regexp.MustCompile(`https://pollinations\.ai/p/[^\s]+`)

// Reply is what a handler gets back from the backend
type Reply struct {
	Text              string
	GeneratedImageURL string
}

// Handler sends one kind of outbound message
type Handler func(ctx context.Context, out composer.Outbound) (Reply, error)

// API is the part of the backend client the gateway talks to
type API interface {
	Chat(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error)
	Vision(ctx context.Context, req *backend.VisionRequest) (*backend.ChatResponse, error)
	PDF(ctx context.Context, req *backend.PDFRequest) (*backend.ChatResponse, error)
}

// Gateway routes outbound messages to the backend endpoint for their kind
type Gateway struct {
	api      API
	threadID string
	now      func() time.Time
	handlers map[conversation.Kind]Handler
}

// Option configures a Gateway
type Option func(*Gateway)

// WithThreadID overrides the thread identifier sent with every request
func WithThreadID(id string) Option {
	return func(g *Gateway) {
		if id != "" {
			g.threadID = id
		}
	}
}

// WithClock sets the clock used for reply timestamps and IDs
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a new gateway over the backend API
func NewGateway(api API, opts ...Option) *Gateway {
	g := &Gateway{
		api:      api,
		threadID: DefaultThreadID,
		now:      time.Now,
	}
	g.handlers = map[conversation.Kind]Handler{
		conversation.KindText:  g.sendText,
		conversation.KindImage: g.sendImage,
		conversation.KindPDF:   g.sendPDF,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ThreadID returns the thread identifier in use
func (g *Gateway) ThreadID() string {
	return g.threadID
}

// Exchange sends out and returns the reply or the error from the backend
func (g *Gateway) Exchange(ctx context.Context, out composer.Outbound) (Reply, error) {
	handler, ok := g.handlers[out.Kind()]
	if !ok {
		return Reply{}, fmt.Errorf("no handler for %s messages", out.Kind())
	}
	return handler(ctx, out)
}

// Send always yields an assistant message. Failures are logged and
// replaced with the fixed apology for the message kind.
func (g *Gateway) Send(ctx context.Context, out composer.Outbound) conversation.Message {
	reply, err := g.Exchange(ctx, out)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(out.Kind())).Msg("message exchange failed")
		return conversation.NewAssistantMessage(failureText(out.Kind()), "", g.now())
	}
	return conversation.NewAssistantMessage(reply.Text, reply.GeneratedImageURL, g.now())
}

func failureText(kind conversation.Kind) string {
	switch kind {
	case conversation.KindImage:
		return ImageFailure
	case conversation.KindPDF:
		return PDFFailure
	default:
		return TextFailure
	}
}

func (g *Gateway) sendText(ctx context.Context, out composer.Outbound) (Reply, error) {
	text, ok := out.Content.(conversation.Text)
	if !ok {
		return Reply{}, fmt.Errorf("unexpected content %T for text message", out.Content)
	}

	resp, err := g.api.Chat(ctx, &backend.ChatRequest{
		Message:  string(text),
		ThreadID: g.threadID,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send chat message: %w", err)
	}

	display, imageURL := ExtractGeneratedImage(resp.Response)
	return Reply{Text: display, GeneratedImageURL: imageURL}, nil
}

func (g *Gateway) sendImage(ctx context.Context, out composer.Outbound) (Reply, error) {
	query, ok := out.Content.(conversation.ImageQuery)
	if !ok {
		return Reply{}, fmt.Errorf("unexpected content %T for image message", out.Content)
	}
	if out.Attachment == nil {
		return Reply{}, fmt.Errorf("image message without attachment")
	}

	dataURL, err := attachments.DataURL(out.Attachment.Path, out.Attachment.MIME)
	if err != nil {
		return Reply{}, err
	}

	resp, err := g.api.Vision(ctx, &backend.VisionRequest{
		Question: query.Question,
		ImageURL: dataURL,
		ThreadID: g.threadID,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send vision message: %w", err)
	}
	return Reply{Text: resp.Response}, nil
}

func (g *Gateway) sendPDF(ctx context.Context, out composer.Outbound) (Reply, error) {
	query, ok := out.Content.(conversation.PDFQuery)
	if !ok {
		return Reply{}, fmt.Errorf("unexpected content %T for pdf message", out.Content)
	}
	if out.Attachment == nil {
		return Reply{}, fmt.Errorf("pdf message without attachment")
	}

	resp, err := g.api.PDF(ctx, &backend.PDFRequest{
		Path:     out.Attachment.Path,
		Filename: query.Filename,
		Query:    query.Query,
		ThreadID: g.threadID,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send PDF message: %w", err)
	}
	return Reply{Text: resp.Response}, nil
}

// ExtractGeneratedImage finds the first generated image link in a chat reply
// and returns the reply without it.
func ExtractGeneratedImage(text string) (display, imageURL string) {
	loc := generatedImagePattern.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	imageURL = text[loc[0]:loc[1]]
	display = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return display, imageURL
}
