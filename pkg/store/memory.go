package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with maps, for tests and ephemeral runs.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	messages      map[string]*Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string]*Message),
	}
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetOrCreateConversation(ctx context.Context, eventID, organizerID, attendeeID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.EventID == eventID && c.OrganizerID == organizerID && c.AttendeeID == attendeeID {
			cp := *c
			return &cp, nil
		}
	}
	now := time.Now().UTC()
	c := &Conversation{
		ID:            uuid.NewString(),
		EventID:       eventID,
		OrganizerID:   organizerID,
		AttendeeID:    attendeeID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	s.conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *MemoryStore) TouchConversation(ctx context.Context, id string, at time.Time, preview string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.LastMessageAt = at
	c.LastMessagePreview = preview
	return nil
}

// Messages returns an unordered snapshot of all persisted messages.
// Test helper.
func (s *MemoryStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out
}

// SeedConversation inserts a prebuilt conversation. Test helper.
func (s *MemoryStore) SeedConversation(c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = &c
}

func (s *MemoryStore) Close() error {
	return nil
}
