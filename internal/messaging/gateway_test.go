package messaging

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/composer"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 9, 5, 7, 0, time.UTC)

type fakeAPI struct {
	chat   *backend.ChatRequest
	vision *backend.VisionRequest
	pdf    *backend.PDFRequest

	response string
	err      error
}

func (f *fakeAPI) Chat(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error) {
	f.chat = req
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ChatResponse{Response: f.response}, nil
}

func (f *fakeAPI) Vision(ctx context.Context, req *backend.VisionRequest) (*backend.ChatResponse, error) {
	f.vision = req
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ChatResponse{Response: f.response}, nil
}

func (f *fakeAPI) PDF(ctx context.Context, req *backend.PDFRequest) (*backend.ChatResponse, error) {
	f.pdf = req
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ChatResponse{Response: f.response}, nil
}

func newGateway(api API) *Gateway {
	return NewGateway(api, WithClock(func() time.Time { return fixedNow }))
}

func TestSend_Text(t *testing.T) {
	api := &fakeAPI{response: "Hello! How can I help?"}
	g := newGateway(api)

	msg := g.Send(context.Background(), composer.Outbound{Content: conversation.Text("hi")})

	require.NotNil(t, api.chat)
	assert.Equal(t, "hi", api.chat.Message)
	assert.Equal(t, DefaultThreadID, api.chat.ThreadID)
	assert.Equal(t, conversation.RoleAssistant, msg.Role)
	assert.Equal(t, conversation.Text("Hello! How can I help?"), msg.Content)
	assert.Equal(t, "msg-1735808707000-ai", msg.ID)
	assert.Equal(t, "9:05:07 AM", msg.Timestamp)
	assert.Empty(t, msg.GeneratedImageURL)
}

func TestSend_TextWithGeneratedImage(t *testing.T) {
	api := &fakeAPI{response: "Here is your image: https://pollinations.ai/p/a%20red%20fox?width=1024 enjoy"}
	g := newGateway(api)

	msg := g.Send(context.Background(), composer.Outbound{Content: conversation.Text("draw a fox")})

	assert.Equal(t, "https://pollinations.ai/p/a%20red%20fox?width=1024", msg.GeneratedImageURL)
	assert.Equal(t, conversation.Text("Here is your image:  enjoy"), msg.Content)
}

func TestSend_Image(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	api := &fakeAPI{response: "A cat on a sofa."}
	g := NewGateway(api, WithThreadID("thread-7"))

	msg := g.Send(context.Background(), composer.Outbound{
		Content:    conversation.ImageQuery{Question: "what is it?", ImageURL: "file:///cache/x.jpg"},
		Attachment: &attachments.Attachment{Path: path, Name: "cat.jpg", Kind: conversation.KindImage, MIME: "image/jpeg"},
	})

	require.NotNil(t, api.vision)
	assert.Equal(t, "what is it?", api.vision.Question)
	assert.Equal(t, "thread-7", api.vision.ThreadID)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpeg")), api.vision.ImageURL)
	assert.Equal(t, conversation.Text("A cat on a sofa."), msg.Content)
}

func TestSend_ImageUnreadableFile(t *testing.T) {
	api := &fakeAPI{}
	g := newGateway(api)

	msg := g.Send(context.Background(), composer.Outbound{
		Content:    conversation.ImageQuery{Question: "q", ImageURL: "u"},
		Attachment: &attachments.Attachment{Path: filepath.Join(t.TempDir(), "gone.png")},
	})

	assert.Nil(t, api.vision)
	assert.Equal(t, conversation.Text(ImageFailure), msg.Content)
}

func TestSend_PDF(t *testing.T) {
	api := &fakeAPI{response: "It is a report."}
	g := newGateway(api)

	msg := g.Send(context.Background(), composer.Outbound{
		Content:    conversation.PDFQuery{Query: "Summarize this PDF", Filename: "report.pdf"},
		Attachment: &attachments.Attachment{Path: "/tmp/report.pdf", Name: "report.pdf", Kind: conversation.KindPDF},
	})

	require.NotNil(t, api.pdf)
	assert.Equal(t, "/tmp/report.pdf", api.pdf.Path)
	assert.Equal(t, "report.pdf", api.pdf.Filename)
	assert.Equal(t, "Summarize this PDF", api.pdf.Query)
	assert.Equal(t, conversation.Text("It is a report."), msg.Content)
}

func TestSend_FailuresBecomePlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	pdf := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0644))

	g := newGateway(backend.NewClient(srv.URL, 0))

	tests := []struct {
		name string
		out  composer.Outbound
		want string
	}{
		{
			name: "text",
			out:  composer.Outbound{Content: conversation.Text("hi")},
			want: TextFailure,
		},
		{
			name: "image",
			out: composer.Outbound{
				Content:    conversation.ImageQuery{Question: "q", ImageURL: "u"},
				Attachment: &attachments.Attachment{Path: img, MIME: "image/png"},
			},
			want: ImageFailure,
		},
		{
			name: "pdf",
			out: composer.Outbound{
				Content:    conversation.PDFQuery{Query: "q", Filename: "a.pdf"},
				Attachment: &attachments.Attachment{Path: pdf, Name: "a.pdf"},
			},
			want: PDFFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := g.Send(context.Background(), tt.out)
			assert.Equal(t, conversation.RoleAssistant, msg.Role)
			assert.Equal(t, conversation.KindText, msg.Kind())
			assert.Equal(t, conversation.Text(tt.want), msg.Content)
		})
	}
}

func TestExchange_ReturnsError(t *testing.T) {
	api := &fakeAPI{err: errors.New("connection refused")}
	g := newGateway(api)

	_, err := g.Exchange(context.Background(), composer.Outbound{Content: conversation.Text("hi")})
	assert.ErrorContains(t, err, "connection refused")
}

func TestExtractGeneratedImage(t *testing.T) {
	display, url := ExtractGeneratedImage("no links here")
	assert.Equal(t, "no links here", display)
	assert.Empty(t, url)

	display, url = ExtractGeneratedImage("https://pollinations.ai/p/one\nand https://pollinations.ai/p/two")
	assert.Equal(t, "https://pollinations.ai/p/one", url)
	assert.Equal(t, "and https://pollinations.ai/p/two", display)

	_, url = ExtractGeneratedImage("http://pollinations.ai/p/insecure")
	assert.Empty(t, url)
}

type fakeDownloader struct {
	url  string
	body string
	err  error
}

func (f *fakeDownloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	f.url = url
	if f.err != nil {
		return 0, f.err
	}
	n, err := io.Copy(w, strings.NewReader(f.body))
	return n, err
}

func TestSaveGeneratedImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	msg := conversation.NewAssistantMessage("here", "https://pollinations.ai/p/fox", fixedNow)
	d := &fakeDownloader{body: "jpeg"}

	path, err := SaveGeneratedImage(context.Background(), d, msg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai-generated-image-msg-1735808707000-ai.jpg"), path)
	assert.Equal(t, "https://pollinations.ai/p/fox", d.url)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveGeneratedImage_Errors(t *testing.T) {
	dir := t.TempDir()
	plain := conversation.NewAssistantMessage("no image", "", fixedNow)
	_, err := SaveGeneratedImage(context.Background(), &fakeDownloader{}, plain, dir)
	assert.ErrorContains(t, err, "has no generated image")

	withImage := conversation.NewAssistantMessage("x", "https://pollinations.ai/p/y", fixedNow)
	_, err = SaveGeneratedImage(context.Background(), &fakeDownloader{err: errors.New("404")}, withImage, dir)
	assert.ErrorContains(t, err, "failed to download generated image")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLatestGeneratedImage(t *testing.T) {
	msgs := []conversation.Message{
		conversation.NewAssistantMessage("a", "https://pollinations.ai/p/a", fixedNow),
		conversation.NewAssistantMessage("b", "https://pollinations.ai/p/b", fixedNow.Add(time.Second)),
		conversation.NewAssistantMessage("c", "", fixedNow.Add(2*time.Second)),
	}
	got, ok := LatestGeneratedImage(msgs)
	require.True(t, ok)
	assert.Equal(t, "https://pollinations.ai/p/b", got.GeneratedImageURL)

	_, ok = LatestGeneratedImage(msgs[2:])
	assert.False(t, ok)
}
