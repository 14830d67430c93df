package tui

import (
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// MessageSubmittedMsg is sent when the user submits a chat message.
type MessageSubmittedMsg struct {
	Text string
}

// QuitRequestedMsg is sent when the user types the exit command.
type QuitRequestedMsg struct{}

// ChatInput is the text input for composing chat messages. Tokens of the
// form @path are expanded to the named file's contents on submit, so a
// file can be pasted into the conversation by reference.
type ChatInput struct {
	input textinput.Model
	width int
}

// NewChatInput creates a focused ChatInput.
func NewChatInput() *ChatInput {
	ti := textinput.New()
	ti.Placeholder = "Describe what you want the agents to do..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	return &ChatInput{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	c.input.Width = width - 4
}

// Focus gives the input keyboard focus.
func (c *ChatInput) Focus() tea.Cmd {
	return c.input.Focus()
}

// Blur removes keyboard focus.
func (c *ChatInput) Blur() {
	c.input.Blur()
}

// Update handles messages for the input field. Empty submissions are
// ignored; the literal input "exit" (case-insensitive) requests quit.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		text := strings.TrimSpace(c.input.Value())
		if text == "" {
			return c, nil
		}
		c.input.Reset()
		if strings.EqualFold(text, "exit") {
			return c, func() tea.Msg { return QuitRequestedMsg{} }
		}
		text = expandFileReferences(text)
		return c, func() tea.Msg { return MessageSubmittedMsg{Text: text} }
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the input field with a prompt.
func (c *ChatInput) View() string {
	return "> " + c.input.View()
}

// expandFileReferences replaces @path tokens that name readable files
// with the file contents. Unreadable references are logged and left as
// typed.
func expandFileReferences(text string) string {
	fields := strings.Fields(text)
	changed := false
	for i, field := range fields {
		if !strings.HasPrefix(field, "@") || len(field) < 2 {
			continue
		}
		data, err := os.ReadFile(field[1:])
		if err != nil {
			log.Printf("paste from file %s: %v", field[1:], err)
			continue
		}
		fields[i] = string(data)
		changed = true
	}
	if !changed {
		return text
	}
	return strings.Join(fields, " ")
}
