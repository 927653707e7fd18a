package notify

import "github.com/taranpreet09/Event-Management-System/pkg/broker"

// Job payload types. The payload is a tagged union discriminated by the
// top-level "type" field; the remaining shape differs per type and matches
// what browser clients receive verbatim over the gateway fanout.
const (
	TypeBroadcastMessage = "BROADCAST_MESSAGE"
	TypeInboxMessage     = "INBOX_MESSAGE"
	TypeEventAdded       = "EVENT_ADDED"
	TypeEventDeleted     = "EVENT_DELETED"
)

// Envelope carries just the discriminator, used to classify a raw payload.
type Envelope struct {
	Type string `json:"type"`
}

// Broadcast is an organizer announcement fanned out to every client. The
// body nests under "payload", unlike the flat inbox shape.
type Broadcast struct {
	Type    string        `json:"type"`
	Payload BroadcastBody `json:"payload"`
}

type BroadcastBody struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	OrganizerID string `json:"organizerId"`
}

// InboxMessage notifies one user of a new conversation message. It carries
// enough identifying fields for the gateway to route without querying the
// store on the fanout path.
type InboxMessage struct {
	Type           string `json:"type"`
	ToUserID       string `json:"toUserId"`
	FromUserID     string `json:"fromUserId,omitempty"`
	EventID        string `json:"eventId,omitempty"`
	ConversationID string `json:"conversationId"`
	OrganizerName  string `json:"organizerName,omitempty"`
	FromName       string `json:"fromName,omitempty"`
	Text           string `json:"text"`
	MessageID      string `json:"messageId,omitempty"`
}

// EventLifecycle announces an event being added to or removed from the
// public listing.
type EventLifecycle struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
	Title   string `json:"title,omitempty"`
}

// TopicFor maps a job type to its broker topic: lifecycle changes go to
// event-updates, everything else user-facing goes to notifications. Unknown
// types map to "".
func TopicFor(jobType string) string {
	switch jobType {
	case TypeEventAdded, TypeEventDeleted:
		return broker.TopicEventUpdates
	case TypeBroadcastMessage, TypeInboxMessage:
		return broker.TopicNotifications
	default:
		return ""
	}
}
