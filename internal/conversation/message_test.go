package conversation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageJSON_TypeFollowsContent(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 5, 7, 0, time.UTC)
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{
			name:    "text",
			content: Text("hello"),
			want:    `{"id":"msg-1735808707000","role":"user","content":"hello","type":"text","timestamp":"9:05:07 AM"}`,
		},
		{
			name:    "image",
			content: ImageQuery{Question: "what?", ImageURL: "file:///a.png"},
			want:    `{"id":"msg-1735808707000","role":"user","content":{"question":"what?","imageUrl":"file:///a.png"},"type":"image","timestamp":"9:05:07 AM"}`,
		},
		{
			name:    "pdf",
			content: PDFQuery{Query: "sum", Filename: "a.pdf"},
			want:    `{"id":"msg-1735808707000","role":"user","content":{"query":"sum","filename":"a.pdf"},"type":"pdf","timestamp":"9:05:07 AM"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewUserMessage(tt.content, now)
			data, err := json.Marshal(msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back Message
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, msg, back)
		})
	}
}

func TestMessageJSON_GeneratedImageURL(t *testing.T) {
	msg := NewAssistantMessage("here you go", "https://pollinations.ai/p/cat", time.UnixMilli(5))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"generatedImageUrl":"https://pollinations.ai/p/cat"`)
	assert.Contains(t, string(data), `"id":"msg-5-ai"`)
}

func TestMessageJSON_RejectsMalformedRecords(t *testing.T) {
	for name, raw := range map[string]string{
		"text tag with object":   `{"id":"m","role":"user","type":"text","content":{"question":"q","imageUrl":"u"}}`,
		"image tag with string":  `{"id":"m","role":"user","type":"image","content":"hello"}`,
		"image tag with pdf":     `{"id":"m","role":"user","type":"image","content":{"query":"q","filename":"f"}}`,
		"pdf tag with image":     `{"id":"m","role":"user","type":"pdf","content":{"question":"q","imageUrl":"u"}}`,
		"unknown tag":            `{"id":"m","role":"user","type":"audio","content":"x"}`,
		"image without question": `{"id":"m","role":"user","type":"image","content":{"imageUrl":"x"}}`,
		"pdf without query":      `{"id":"m","role":"user","type":"pdf","content":{"filename":"f"}}`,
		"system role":            `{"id":"m","role":"system","type":"text","content":"x"}`,
		"missing role":           `{"id":"m","type":"text","content":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var m Message
			assert.Error(t, json.Unmarshal([]byte(raw), &m))
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	now := time.Now()

	_, ok := DeriveTitle(nil)
	assert.False(t, ok)

	title, ok := DeriveTitle([]Message{NewUserMessage(Text("héllo wörld ünïcode títle that is long"), now)})
	require.True(t, ok)
	assert.Equal(t, "héllo wörld ünïcode títle that...", title)

	title, ok = DeriveTitle([]Message{NewUserMessage(Text("exactly thirty characters long"), now)})
	require.True(t, ok)
	assert.Equal(t, "exactly thirty characters long", title)
}
