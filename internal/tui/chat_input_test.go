package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestChatInput_Update_Enter_EmptyInput(t *testing.T) {
	input := NewChatInput()

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	updated, cmd := input.Update(msg)

	if cmd != nil {
		t.Error("Empty input should not produce a command")
	}
	if updated == nil {
		t.Error("Update returned nil input")
	}
}

func TestChatInput_Update_Enter_SubmitsText(t *testing.T) {
	input := NewChatInput()
	input.input.SetValue("write a fizzbuzz program")

	_, cmd := input.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected a command for non-empty input")
	}

	result := cmd()
	submitted, ok := result.(MessageSubmittedMsg)
	if !ok {
		t.Fatalf("Expected MessageSubmittedMsg, got %T", result)
	}
	if submitted.Text != "write a fizzbuzz program" {
		t.Errorf("Submitted text = %q", submitted.Text)
	}
	if input.input.Value() != "" {
		t.Error("Input should reset after submit")
	}
}

func TestChatInput_Update_ExitRequestsQuit(t *testing.T) {
	for _, value := range []string{"exit", "EXIT", "Exit"} {
		input := NewChatInput()
		input.input.SetValue(value)

		_, cmd := input.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Fatalf("%q: expected a command", value)
		}
		if _, ok := cmd().(QuitRequestedMsg); !ok {
			t.Errorf("%q should request quit", value)
		}
	}
}

func TestExpandFileReferences(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snippet.txt")
	if err := os.WriteFile(path, []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := expandFileReferences("review @" + path + " please")
	if !strings.Contains(got, "package main") {
		t.Errorf("file reference not expanded: %q", got)
	}
	if strings.Contains(got, path) {
		t.Errorf("path should be replaced by contents: %q", got)
	}
}

func TestExpandFileReferencesMissingFileLeftAsTyped(t *testing.T) {
	text := "see @/no/such/file.txt here"
	if got := expandFileReferences(text); got != text {
		t.Errorf("missing file reference should pass through, got %q", got)
	}
}
