package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/orchestrator"
	"github.com/parleyhq/parley/pkg/models"
)

// AgentEventMsg wraps an orchestrator event for the update loop.
type AgentEventMsg struct {
	Event orchestrator.Event
}

// RoundDoneMsg signals that the current planning round is over, whether it
// scheduled batches, asked for confirmation, or failed to parse. The next
// submission is accepted only after it arrives.
type RoundDoneMsg struct{}

// ChatApp is the interactive chat model: the conversation transcript
// above a message input, fed by orchestrator events.
type ChatApp struct {
	transcript *TranscriptView
	input      *ChatInput
	status     string
	width      int
	height     int
	quitting   bool

	// busy is set while a round is in flight; submissions made before the
	// round's RoundDoneMsg are rejected so rounds never interleave on the
	// shared planning thread.
	busy bool

	// onSubmit receives each submitted user message. It must not block;
	// long work belongs on the caller's side of the handoff.
	onSubmit func(text string)
}

// NewChatApp creates a ChatApp.
func NewChatApp() *ChatApp {
	return &ChatApp{
		transcript: NewTranscriptView(),
		input:      NewChatInput(),
		status:     "ready",
	}
}

// SetSubmitHandler sets the callback for submitted messages.
func (a *ChatApp) SetSubmitHandler(handler func(text string)) {
	a.onSubmit = handler
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return a.input.Focus()
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.transcript.SetSize(msg.Width, msg.Height-4)
		a.input.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			a.transcript, cmd = a.transcript.Update(msg)
			return a, cmd
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case MessageSubmittedMsg:
		if a.busy {
			a.transcript.AppendStatus("still working; wait for the current round to finish")
			return a, nil
		}
		a.busy = true
		a.transcript.AppendMessage("user", models.RoleUser, msg.Text)
		a.status = "working"
		if a.onSubmit != nil {
			a.onSubmit(msg.Text)
		}
		return a, nil

	case RoundDoneMsg:
		a.busy = false
		a.status = "ready"
		return a, nil

	case QuitRequestedMsg:
		a.quitting = true
		return a, tea.Quit

	case AgentEventMsg:
		a.handleAgentEvent(msg.Event)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleAgentEvent folds one orchestrator event into the display.
func (a *ChatApp) handleAgentEvent(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventBatchStarted:
		a.status = "batch running"
		a.transcript.AppendStatus(ev.Message)

	case orchestrator.EventBatchExecuting:
		a.status = "batch running"

	case orchestrator.EventBatchCompleted:
		a.status = "ready"
		a.transcript.AppendStatus("batch completed")

	case orchestrator.EventBatchFailed:
		a.status = "ready"
		a.transcript.AppendStatus(fmt.Sprintf("batch failed: %v", ev.Error))

	case orchestrator.EventRunStarted:
		if ev.Message != "" {
			a.transcript.AppendMessage(ev.AgentName, models.RoleAssistant, ev.Message)
		}

	case orchestrator.EventRunProgress:
		// Progress shows as a dot trail under the working agent.
		a.transcript.AppendChunk(ev.AgentName, models.RoleAssistant, ".", ev.FirstUpdate)

	case orchestrator.EventRunMessage:
		if ev.Error != nil {
			a.transcript.AppendStatus(fmt.Sprintf("%s: %v", ev.AgentName, ev.Error))
			return
		}
		a.transcript.AppendMessage(ev.AgentName, models.RoleAssistant, ev.Message)

	case orchestrator.EventChained:
		if ev.Error != nil {
			a.transcript.AppendStatus(fmt.Sprintf("handoff to %s failed: %v", ev.AgentName, ev.Error))
			return
		}
		a.transcript.AppendStatus(ev.Message)
	}
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return ""
	}
	statusLine := lipgloss.NewStyle().Faint(true).Render(a.status)
	return a.transcript.View() + "\n" + a.input.View() + "\n" + statusLine
}

// PumpEvents forwards orchestrator events into a running program until
// the event channel closes.
func PumpEvents(p *tea.Program, events <-chan orchestrator.Event) {
	for ev := range events {
		p.Send(AgentEventMsg{Event: ev})
	}
}
