package models

import "time"

// MessageType discriminates the kinds of conversation messages.
type MessageType string

const (
	// MessageTypeText is an inline text message.
	MessageTypeText MessageType = "text"
	// MessageTypeFile references a downloadable file artifact.
	MessageTypeFile MessageType = "file"
	// MessageTypeImage references an image artifact rendered inline.
	MessageTypeImage MessageType = "image"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleUser marks messages typed by the human user.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by an agent.
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation thread. Exactly one of Content or
// Filename is meaningful depending on Type. Messages are read-only once
// retrieved; the renderer never mutates them.
type Message struct {
	// ID is the unique identifier for this message.
	ID string `json:"id"`
	// ThreadID is the thread this message belongs to.
	ThreadID string `json:"thread_id"`
	// Type discriminates text, file, and image messages.
	Type MessageType `json:"type"`
	// Sender is the display name of the author (user name or agent name).
	Sender string `json:"sender"`
	// Role is the author's role.
	Role Role `json:"role"`
	// Content holds the text body for text messages.
	Content string `json:"content,omitempty"`
	// Filename is the artifact name for file and image messages.
	Filename string `json:"filename,omitempty"`
	// Data holds the raw artifact bytes for file and image messages.
	Data []byte `json:"-"`
	// CreatedAt is when the message was appended to its thread.
	CreatedAt time.Time `json:"created_at"`
}

// IsText returns true for inline text messages.
func (m *Message) IsText() bool { return m.Type == MessageTypeText }
