package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		organizer_id TEXT NOT NULL,
		attendee_id TEXT NOT NULL,
		last_message_at DATETIME NOT NULL,
		last_message_preview TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE (event_id, organizer_id, attendee_id)
	);
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		from_user TEXT NOT NULL,
		to_user TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		read_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, organizer_id, attendee_id, last_message_at, last_message_preview, created_at
		FROM conversations WHERE id = ?`, id)

	var c Conversation
	err := row.Scan(&c.ID, &c.EventID, &c.OrganizerID, &c.AttendeeID, &c.LastMessageAt, &c.LastMessagePreview, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s: %w", id, err)
	}
	return &c, nil
}

func (s *SQLiteStore) GetOrCreateConversation(ctx context.Context, eventID, organizerID, attendeeID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, organizer_id, attendee_id, last_message_at, last_message_preview, created_at
		FROM conversations WHERE event_id = ? AND organizer_id = ? AND attendee_id = ?`,
		eventID, organizerID, attendeeID)

	var c Conversation
	err := row.Scan(&c.ID, &c.EventID, &c.OrganizerID, &c.AttendeeID, &c.LastMessageAt, &c.LastMessagePreview, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	now := time.Now().UTC()
	c = Conversation{
		ID:            uuid.NewString(),
		EventID:       eventID,
		OrganizerID:   organizerID,
		AttendeeID:    attendeeID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, event_id, organizer_id, attendee_id, last_message_at, last_message_preview, created_at)
		VALUES (?, ?, ?, ?, ?, '', ?)`,
		c.ID, c.EventID, c.OrganizerID, c.AttendeeID, c.LastMessageAt, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, from_user, to_user, text, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.From, m.To, m.Text, m.CreatedAt, m.ReadAt)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TouchConversation(ctx context.Context, id string, at time.Time, preview string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = ?, last_message_preview = ? WHERE id = ?`,
		at, preview, id)
	if err != nil {
		return fmt.Errorf("updating conversation %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
