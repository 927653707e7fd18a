// Package store holds the narrow persistence interface the notification
// path depends on: creating messages and reading/updating conversations.
// The full events/users document store lives elsewhere; only the hot-path
// surface is modeled here. No multi-record transactional guarantee is
// assumed.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

const previewLength = 140

// Conversation links an organizer and an attendee for one event.
type Conversation struct {
	ID                 string
	EventID            string
	OrganizerID        string
	AttendeeID         string
	LastMessageAt      time.Time
	LastMessagePreview string
	CreatedAt          time.Time
}

// Participant reports whether userID is one of the two conversation parties.
func (c *Conversation) Participant(userID string) bool {
	return c.OrganizerID == userID || c.AttendeeID == userID
}

// Other returns the counterpart of userID in the conversation.
func (c *Conversation) Other(userID string) string {
	if c.OrganizerID == userID {
		return c.AttendeeID
	}
	return c.OrganizerID
}

// Message is a single conversation message. ReadAt nil means unread.
type Message struct {
	ID             string
	ConversationID string
	From           string
	To             string
	Text           string
	CreatedAt      time.Time
	ReadAt         *time.Time
}

// Store is the persistence contract consumed by the gateway and producers.
type Store interface {
	// GetConversation returns ErrNotFound for unknown ids.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// GetOrCreateConversation finds the conversation for the
	// (event, organizer, attendee) triple, creating it when absent.
	GetOrCreateConversation(ctx context.Context, eventID, organizerID, attendeeID string) (*Conversation, error)

	// CreateMessage persists m, assigning ID and CreatedAt when unset.
	CreateMessage(ctx context.Context, m *Message) error

	// TouchConversation updates the last-message pointer and preview.
	TouchConversation(ctx context.Context, id string, at time.Time, preview string) error

	Close() error
}

// Preview truncates text to the stored conversation preview length without
// splitting a rune.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}
