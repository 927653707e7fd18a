package realtime

// Wire protocol: JSON text frames over the WebSocket.

// Client-originated actions.
const (
	ActionAuth             = "AUTH"
	ActionSendInboxMessage = "SEND_INBOX_MESSAGE"
)

// Server-originated frame types.
const (
	FrameWelcome   = "welcome"
	FrameAuthOK    = "AUTH_OK"
	FrameAuthError = "AUTH_ERROR"
	FrameSendOK    = "SEND_OK"
	FrameSendError = "SEND_ERROR"
)

// clientAction is the superset of inbound frames; Type discriminates.
type clientAction struct {
	Type           string `json:"type"`
	Token          string `json:"token,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Text           string `json:"text,omitempty"`
}

type welcomeFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ackFrame struct {
	Type string `json:"type"`
}

type sendOKFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}
