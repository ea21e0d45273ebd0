package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind tags the content variant of a message
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// Display formats for timestamps
const (
	CreatedAtLayout = "1/2/2006, 3:04:05 PM"
	TimestampLayout = "3:04:05 PM"
)

// Content is one of Text, ImageQuery or PDFQuery. The kind of a message is
// always derived from its content.
type Content interface {
	Kind() Kind
	isContent()
}

// Text is a plain text message body
type Text string

// ImageQuery is a question asked about an attached image
type ImageQuery struct {
	Question string `json:"question"`
	ImageURL string `json:"imageUrl"`
}

// PDFQuery is a query asked about an attached PDF
type PDFQuery struct {
	Query    string `json:"query"`
	Filename string `json:"filename"`
}

func (Text) Kind() Kind       { return KindText }
func (ImageQuery) Kind() Kind { return KindImage }
func (PDFQuery) Kind() Kind   { return KindPDF }

func (Text) isContent()       {}
func (ImageQuery) isContent() {}
func (PDFQuery) isContent()   {}

// Message is a single entry in a conversation thread
type Message struct {
	ID                string
	Role              Role
	Content           Content
	Timestamp         string
	GeneratedImageURL string
}

// Kind returns the kind of the message content
func (m Message) Kind() Kind {
	if m.Content == nil {
		return KindText
	}
	return m.Content.Kind()
}

// NewUserMessage creates a user message stamped with now
func NewUserMessage(content Content, now time.Time) Message {
	return Message{
		ID:        fmt.Sprintf("msg-%d", now.UnixMilli()),
		Role:      RoleUser,
		Content:   content,
		Timestamp: now.Format(TimestampLayout),
	}
}

// NewAssistantMessage creates an assistant text message stamped with now
func NewAssistantMessage(text, generatedImageURL string, now time.Time) Message {
	return Message{
		ID:                fmt.Sprintf("msg-%d-ai", now.UnixMilli()),
		Role:              RoleAssistant,
		Content:           Text(text),
		Timestamp:         now.Format(TimestampLayout),
		GeneratedImageURL: generatedImageURL,
	}
}

type wireMessage struct {
	ID                string          `json:"id"`
	Role              Role            `json:"role"`
	Content           json.RawMessage `json:"content"`
	Type              Kind            `json:"type"`
	Timestamp         string          `json:"timestamp"`
	GeneratedImageURL string          `json:"generatedImageUrl,omitempty"`
}

// MarshalJSON writes the message with a type tag derived from its content
func (m Message) MarshalJSON() ([]byte, error) {
	content := m.Content
	if content == nil {
		content = Text("")
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}
	return json.Marshal(wireMessage{
		ID:                m.ID,
		Role:              m.Role,
		Content:           raw,
		Type:              content.Kind(),
		Timestamp:         m.Timestamp,
		GeneratedImageURL: m.GeneratedImageURL,
	})
}

// UnmarshalJSON rejects records whose type tag and content shape disagree
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if w.Role != RoleUser && w.Role != RoleAssistant {
		return fmt.Errorf("message %s: unknown role %q", w.ID, w.Role)
	}

	content, err := decodeContent(w.Type, w.Content)
	if err != nil {
		return fmt.Errorf("message %s: %w", w.ID, err)
	}

	*m = Message{
		ID:                w.ID,
		Role:              w.Role,
		Content:           content,
		Timestamp:         w.Timestamp,
		GeneratedImageURL: w.GeneratedImageURL,
	}
	return nil
}

func decodeContent(kind Kind, raw json.RawMessage) (Content, error) {
	switch kind {
	case KindText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("text message content is not a string")
		}
		return Text(s), nil
	case KindImage:
		if err := requireFields(raw, "question", "imageUrl"); err != nil {
			return nil, err
		}
		var c ImageQuery
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("invalid image content: %w", err)
		}
		return c, nil
	case KindPDF:
		if err := requireFields(raw, "query", "filename"); err != nil {
			return nil, err
		}
		var c PDFQuery
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("invalid pdf content: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", kind)
	}
}

func requireFields(raw json.RawMessage, fields ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("content is not an object")
	}
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return fmt.Errorf("content is missing %q", f)
		}
	}
	return nil
}
