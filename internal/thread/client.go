package thread

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/pkg/models"
)

// Client is the conversation thread client. It creates threads, appends
// messages, and retrieves conversations in order.
type Client struct {
	db *DB
}

// NewClient creates a thread client over an opened, migrated database.
func NewClient(db *DB) *Client {
	return &Client{db: db}
}

// CreateThread creates a new empty thread and returns its ID.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	id := uuid.New().String()
	_, err := c.db.conn.ExecContext(ctx,
		"INSERT INTO threads (id, created_at) VALUES (?, ?)",
		id, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return id, nil
}

// AppendText appends a text message to a thread and returns the stored message.
func (c *Client) AppendText(ctx context.Context, threadID, sender string, role models.Role, content string) (*models.Message, error) {
	msg := &models.Message{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		Type:     models.MessageTypeText,
		Sender:   sender,
		Role:     role,
		Content:  content,
	}
	if err := c.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Append appends a message of any type to its thread. The message's ID is
// assigned when empty; CreatedAt is always set by the store.
func (c *Client) Append(ctx context.Context, msg *models.Message) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()

	tx, err := c.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var seq int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE thread_id = ?", msg.ThreadID)
	if err := row.Scan(&seq); err != nil {
		tx.Rollback()
		return fmt.Errorf("next message seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, seq, type, sender, role, content, filename, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, seq, string(msg.Type), msg.Sender, string(msg.Role),
		msg.Content, msg.Filename, msg.Data, msg.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// Conversation is an ordered snapshot of one thread's messages.
type Conversation struct {
	// ThreadID is the thread this snapshot was taken from.
	ThreadID string
	// Messages are ordered oldest first.
	Messages []models.Message
}

// Retrieve returns the thread's full conversation, oldest message first.
func (c *Client) Retrieve(ctx context.Context, threadID string) (*Conversation, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	rows, err := c.db.conn.QueryContext(ctx, `
		SELECT id, type, sender, role, content, filename, data, created_at
		FROM messages WHERE thread_id = ? ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("retrieve conversation: %w", err)
	}
	defer rows.Close()

	conv := &Conversation{ThreadID: threadID}
	for rows.Next() {
		var (
			msg      models.Message
			msgType  string
			role     string
			data     []byte
			filename string
		)
		if err := rows.Scan(&msg.ID, &msgType, &msg.Sender, &role, &msg.Content, &filename, &data, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ThreadID = threadID
		msg.Type = models.MessageType(msgType)
		msg.Role = models.Role(role)
		msg.Filename = filename
		msg.Data = data
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return conv, nil
}

// LastTextMessage returns the most recent text message from the given
// sender, or nil if the sender has no text messages in the conversation.
func (v *Conversation) LastTextMessage(sender string) *models.Message {
	for i := len(v.Messages) - 1; i >= 0; i-- {
		msg := v.Messages[i]
		if msg.IsText() && msg.Sender == sender {
			return &v.Messages[i]
		}
	}
	return nil
}

// NewestFirst returns the conversation's messages newest first, the order
// the transcript renderer expects.
func (v *Conversation) NewestFirst() []models.Message {
	out := make([]models.Message, len(v.Messages))
	for i, msg := range v.Messages {
		out[len(v.Messages)-1-i] = msg
	}
	return out
}

// PendingSince returns messages appended after the message with the given
// ID, oldest first. An empty lastID returns the whole conversation.
func (v *Conversation) PendingSince(lastID string) []models.Message {
	if lastID == "" {
		return v.Messages
	}
	for i, msg := range v.Messages {
		if msg.ID == lastID {
			return v.Messages[i+1:]
		}
	}
	return v.Messages
}
