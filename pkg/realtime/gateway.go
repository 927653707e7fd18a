package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taranpreet09/Event-Management-System/pkg/auth"
	"github.com/taranpreet09/Event-Management-System/pkg/broker"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/notify"
	"github.com/taranpreet09/Event-Management-System/pkg/store"
)

// Config wires the gateway's collaborators. All handles are injected; the
// gateway owns none of them except the registry lifecycle.
type Config struct {
	Verifier auth.Verifier
	Store    store.Store
	Broker   broker.Broker

	// TargetedInbox delivers INBOX_MESSAGE frames only to the addressed
	// user's and the sender's connections. When false every open
	// connection receives them and clients self-filter by toUserId.
	TargetedInbox bool

	// WriteTimeout bounds one frame write to one client.
	WriteTimeout time.Duration
}

// Gateway is the realtime connection server: it accepts WebSocket upgrades,
// authenticates connections in-band, fans broker messages out to open
// connections and handles client-originated chat messages.
type Gateway struct {
	registry      *Registry
	verifier      auth.Verifier
	store         store.Store
	broker        broker.Broker
	targetedInbox bool
	writeTimeout  time.Duration
	upgrader      websocket.Upgrader
	logger        *log.Logger
}

func NewGateway(cfg Config, registry *Registry) *Gateway {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Gateway{
		registry:      registry,
		verifier:      cfg.Verifier,
		store:         cfg.Store,
		broker:        cfg.Broker,
		targetedInbox: cfg.TargetedInbox,
		writeTimeout:  writeTimeout,
		upgrader: websocket.Upgrader{
			// The HTTP tier already answers CORS for the app origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.ForService("gateway"),
	}
}

// Start establishes the single broker subscription covering both topics and
// launches the fanout loop. On subscription failure the gateway keeps
// serving client-originated chat but worker-originated fanout never arrives;
// that degraded mode is logged, not fatal.
func (g *Gateway) Start(ctx context.Context) {
	sub, err := g.broker.Subscribe(ctx, broker.TopicEventUpdates, broker.TopicNotifications)
	if err != nil {
		g.logger.Errorf("broker subscription failed, fanout disabled: %v", err)
		return
	}
	g.logger.Infof("subscribed to %q and %q", broker.TopicEventUpdates, broker.TopicNotifications)

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Messages():
				if !ok {
					g.logger.Warnf("broker subscription closed, fanout stopped")
					return
				}
				g.Dispatch(msg.Topic, msg.Data)
			}
		}
	}()
}

// HandleWS upgrades the HTTP request and services the connection until it
// closes. Runs on the request goroutine.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warnf("upgrade failed: %v", err)
		return
	}

	client := newClient(conn, g.writeTimeout)
	g.registry.Add(client)
	g.logger.Debugf("client connected (%d open)", g.registry.Len())

	if err := client.sendJSON(welcomeFrame{Type: FrameWelcome, Message: "Connected!"}); err != nil {
		g.logger.Debugf("welcome send failed: %v", err)
	}

	g.readLoop(r.Context(), client)

	g.registry.Remove(client)
	client.close()
	g.logger.Debugf("client disconnected (%d open)", g.registry.Len())
}

func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		g.handleFrame(ctx, client, data)
	}
}

// handleFrame processes one inbound frame. Malformed frames are ignored
// silently; errors inside one frame never tear down the connection.
func (g *Gateway) handleFrame(ctx context.Context, client *Client, data []byte) {
	var action clientAction
	if err := json.Unmarshal(data, &action); err != nil {
		g.logger.Debugf("ignoring malformed frame: %v", err)
		return
	}

	switch action.Type {
	case ActionAuth:
		g.handleAuth(client, action)
	case ActionSendInboxMessage:
		g.handleSendInboxMessage(ctx, client, action)
	default:
		g.logger.Debugf("ignoring frame with unknown type %q", action.Type)
	}
}

func (g *Gateway) handleAuth(client *Client, action clientAction) {
	if client.Identity() != nil {
		// Identity is immutable once set; just re-acknowledge.
		_ = client.sendJSON(ackFrame{Type: FrameAuthOK})
		return
	}

	ident, err := g.verifier.Verify(action.Token)
	if err != nil {
		g.logger.Debugf("auth rejected: %v", err)
		// The connection stays open and unauthenticated; the client
		// may retry.
		_ = client.sendJSON(ackFrame{Type: FrameAuthError})
		return
	}

	client.setIdentity(ident)
	g.registry.bind(client, ident.ID)
	g.logger.Infof("connection authenticated as %s (%s)", ident.ID, ident.Role)
	_ = client.sendJSON(ackFrame{Type: FrameAuthOK})
}

// handleSendInboxMessage persists a chat message and republishes it on the
// notifications topic. This path publishes directly instead of going through
// the durable queue: the sender is waiting for an ack inside a live
// request/response cycle.
func (g *Gateway) handleSendInboxMessage(ctx context.Context, client *Client, action clientAction) {
	ident := client.Identity()
	if ident == nil {
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}

	text := strings.TrimSpace(action.Text)
	if text == "" || action.ConversationID == "" {
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}

	convo, err := g.store.GetConversation(ctx, action.ConversationID)
	if err != nil {
		g.logger.Debugf("send rejected, conversation %s: %v", action.ConversationID, err)
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}
	if !convo.Participant(ident.ID) {
		g.logger.Warnf("user %s attempted to send to conversation %s they are not part of", ident.ID, convo.ID)
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}

	msg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: convo.ID,
		From:           ident.ID,
		To:             convo.Other(ident.ID),
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.store.CreateMessage(ctx, msg); err != nil {
		g.logger.Errorf("persisting message: %v", err)
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}
	if err := g.store.TouchConversation(ctx, convo.ID, msg.CreatedAt, store.Preview(text)); err != nil {
		g.logger.Errorf("updating conversation %s: %v", convo.ID, err)
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}

	event := notify.InboxMessage{
		Type:           notify.TypeInboxMessage,
		ToUserID:       msg.To,
		FromUserID:     msg.From,
		EventID:        convo.EventID,
		ConversationID: convo.ID,
		FromName:       ident.Name,
		Text:           text,
		MessageID:      msg.ID,
	}
	if ident.Role == auth.RoleOrganizer {
		event.OrganizerName = ident.Name
	}
	data, err := json.Marshal(event)
	if err != nil {
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}
	if _, err := g.broker.Publish(ctx, broker.TopicNotifications, data); err != nil {
		g.logger.Errorf("publishing inbox message: %v", err)
		_ = client.sendJSON(ackFrame{Type: FrameSendError})
		return
	}

	_ = client.sendJSON(sendOKFrame{
		Type:           FrameSendOK,
		ConversationID: convo.ID,
		MessageID:      msg.ID,
	})
}

// Dispatch forwards one broker message to live connections. Broadcast-style
// messages go to every open connection verbatim; with targeted inbox
// delivery enabled, INBOX_MESSAGE frames go only to the addressed user and
// the sender. Per-connection send errors are isolated: the failing
// connection is closed and removed, delivery to the rest continues.
func (g *Gateway) Dispatch(topic string, data []byte) {
	if g.targetedInbox && topic == broker.TopicNotifications {
		var probe struct {
			Type       string `json:"type"`
			ToUserID   string `json:"toUserId"`
			FromUserID string `json:"fromUserId"`
		}
		if err := json.Unmarshal(data, &probe); err == nil &&
			probe.Type == notify.TypeInboxMessage && probe.ToUserID != "" {
			targets := g.registry.ClientsForUser(probe.ToUserID)
			if probe.FromUserID != "" && probe.FromUserID != probe.ToUserID {
				targets = append(targets, g.registry.ClientsForUser(probe.FromUserID)...)
			}
			g.deliver(targets, data)
			return
		}
	}

	g.deliver(g.registry.Clients(), data)
}

func (g *Gateway) deliver(clients []*Client, data []byte) {
	for _, c := range clients {
		if err := c.sendRaw(data); err != nil {
			g.logger.Debugf("dropping connection after failed send: %v", err)
			g.registry.Remove(c)
			c.close()
		}
	}
}
