package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobchat/cli/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	// ErrLastConversation is returned when deleting the only conversation
	ErrLastConversation = errors.New("cannot delete the last conversation")
	// ErrConversationNotFound is returned when deleting an unknown ID
	ErrConversationNotFound = errors.New("conversation not found")
)

// Store is the ordered conversation list (newest first) plus the active
// conversation. Every mutation rewrites the whole list to the KV.
type Store struct {
	mu       sync.RWMutex
	kv       storage.KV
	now      func() time.Time
	list     []Conversation
	activeID string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Load reads the persisted list from kv. An absent or empty list is replaced
// by one fresh conversation; otherwise the head becomes active.
func Load(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	data, err := kv.Get(ctx, storage.KeyConversations)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	default:
		if err := json.Unmarshal(data, &s.list); err != nil {
			return nil, fmt.Errorf("failed to parse conversations: %w", err)
		}
	}

	if len(s.list) == 0 {
		s.list = nil
		if _, err := s.Create(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.activeID = s.list[0].ID
	log.Debug().Int("conversations", len(s.list)).Msg("Loaded conversations")
	return s, nil
}

// Create inserts a new empty conversation at the head and makes it active
func (s *Store) Create(ctx context.Context) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.createLocked()
	if err := s.persistLocked(ctx); err != nil {
		return Conversation{}, err
	}
	return conv.clone(), nil
}

func (s *Store) createLocked() Conversation {
	conv := newConversation(s.now(), len(s.list)+1)
	s.list = append([]Conversation{conv}, s.list...)
	s.activeID = conv.ID
	return conv
}

// Select makes id the active conversation. Existence is not checked.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
}

// Delete removes a conversation. The last remaining conversation can never
// be deleted. If the active one is removed the new head becomes active.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.list) == 1 {
		return ErrLastConversation
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrConversationNotFound
	}

	s.list = append(s.list[:idx:idx], s.list[idx+1:]...)

	if s.activeID == id {
		if len(s.list) > 0 {
			s.activeID = s.list[0].ID
		} else {
			s.createLocked()
		}
	}

	return s.persistLocked(ctx)
}

// ReplaceMessages overwrites the active conversation's messages and
// recomputes its title from the first message when that one is the user's.
func (s *Store) ReplaceMessages(ctx context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexLocked(s.activeID); idx >= 0 {
		s.replaceLocked(idx, msgs)
	}

	return s.persistLocked(ctx)
}

// Append adds msgs to the end of the active conversation
func (s *Store) Append(ctx context.Context, msgs ...Message) error {
	active, _ := s.Active()
	return s.ReplaceMessages(ctx, append(active.Messages, msgs...))
}

// AppendTo adds msgs to the conversation with the given ID, active or not.
// Replies that arrive after the user switched conversations land here.
func (s *Store) AppendTo(ctx context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrConversationNotFound
	}
	s.replaceLocked(idx, append(append([]Message(nil), s.list[idx].Messages...), msgs...))

	return s.persistLocked(ctx)
}

// Get returns a copy of the conversation with the given ID
func (s *Store) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return Conversation{}, false
	}
	return s.list[idx].clone(), true
}

func (s *Store) replaceLocked(idx int, msgs []Message) {
	conv := &s.list[idx]
	conv.Messages = append([]Message(nil), msgs...)
	if title, ok := DeriveTitle(msgs); ok {
		conv.Title = title
	}
}

// Active returns a copy of the active conversation. ok is false when the
// active ID does not name a stored conversation.
func (s *Store) Active() (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(s.activeID)
	if idx < 0 {
		return Conversation{Messages: []Message{}}, false
	}
	return s.list[idx].clone(), true
}

// ActiveID returns the active conversation ID
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Conversations returns a copy of the list in store order
func (s *Store) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, len(s.list))
	for i, c := range s.list {
		out[i] = c.clone()
	}
	return out
}

// Len returns the number of conversations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.list {
		if s.list[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.list)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}
	if err := s.kv.Put(ctx, storage.KeyConversations, data); err != nil {
		return fmt.Errorf("failed to persist conversations: %w", err)
	}
	return nil
}
