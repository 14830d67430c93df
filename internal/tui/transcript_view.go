package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/pkg/models"
)

// TranscriptView displays the conversation transcript in a scrollable
// viewport. New content always scrolls into view.
type TranscriptView struct {
	viewport viewport.Model
	lines    []string
	ready    bool

	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	codeStyle      lipgloss.Style
	statusStyle    lipgloss.Style
}

// NewTranscriptView creates an empty TranscriptView.
func NewTranscriptView() *TranscriptView {
	return &TranscriptView{
		userStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("4")),
		assistantStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "252"}),
		codeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "250"}).
			Background(lipgloss.AdaptiveColor{Light: "254", Dark: "236"}),
		statusStyle: lipgloss.NewStyle().
			Faint(true),
	}
}

// SetSize resizes the viewport.
func (v *TranscriptView) SetSize(width, height int) {
	if !v.ready {
		v.viewport = viewport.New(width, height)
		v.ready = true
	} else {
		v.viewport.Width = width
		v.viewport.Height = height
	}
	v.refresh()
}

// senderStyle picks the label style for a message author. User labels
// keep one fixed color; assistant labels adapt to the terminal theme.
func (v *TranscriptView) senderStyle(role models.Role) lipgloss.Style {
	if role == models.RoleAssistant {
		return v.assistantStyle
	}
	return v.userStyle
}

// AppendMessage adds a complete message to the transcript. Fenced code
// blocks inside the text render with a distinct background.
func (v *TranscriptView) AppendMessage(sender string, role models.Role, text string) {
	label := v.senderStyle(role).Render(sender + ":")

	var body strings.Builder
	for _, seg := range conversation.ParseMessage(text) {
		if seg.Code {
			body.WriteString("\n" + v.codeStyle.Render(seg.Text) + "\n")
		} else {
			body.WriteString(seg.Text)
		}
	}

	v.lines = append(v.lines, label+" "+body.String(), "")
	v.refresh()
}

// AppendChunk appends streamed text to the transcript. The sender label
// appears only on the first chunk of a message; later chunks extend the
// same line with no separators.
func (v *TranscriptView) AppendChunk(sender string, role models.Role, chunk string, isStart bool) {
	if isStart || len(v.lines) == 0 {
		label := v.senderStyle(role).Render(sender + ":")
		v.lines = append(v.lines, label+" "+chunk)
	} else {
		v.lines[len(v.lines)-1] += chunk
	}
	v.refresh()
}

// AppendStatus adds a faint status line, for batch lifecycle updates.
func (v *TranscriptView) AppendStatus(text string) {
	v.lines = append(v.lines, v.statusStyle.Render(text))
	v.refresh()
}

// refresh pushes the line buffer into the viewport and scrolls to the
// newest content.
func (v *TranscriptView) refresh() {
	if !v.ready {
		return
	}
	v.viewport.SetContent(strings.Join(v.lines, "\n"))
	v.viewport.GotoBottom()
}

// Update forwards scroll keys to the viewport.
func (v *TranscriptView) Update(msg tea.Msg) (*TranscriptView, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the transcript.
func (v *TranscriptView) View() string {
	if !v.ready {
		return ""
	}
	return v.viewport.View()
}
