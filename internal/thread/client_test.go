package thread

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/parleyhq/parley/pkg/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "threads.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	return NewClient(db)
}

func TestCreateThreadAndAppend(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if threadID == "" {
		t.Fatal("expected non-empty thread ID")
	}

	if _, err := client.AppendText(ctx, threadID, "user", models.RoleUser, "hello"); err != nil {
		t.Fatalf("append user message: %v", err)
	}
	if _, err := client.AppendText(ctx, threadID, "CodeWriterAgent", models.RoleAssistant, "hi there"); err != nil {
		t.Fatalf("append assistant message: %v", err)
	}

	conv, err := client.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve conversation: %v", err)
	}

	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Content != "hello" || conv.Messages[1].Content != "hi there" {
		t.Errorf("expected oldest-first order, got %q then %q",
			conv.Messages[0].Content, conv.Messages[1].Content)
	}
}

func TestLastTextMessage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	appendText := func(sender string, role models.Role, content string) {
		t.Helper()
		if _, err := client.AppendText(ctx, threadID, sender, role, content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	appendText("user", models.RoleUser, "write a parser")
	appendText("CodeWriterAgent", models.RoleAssistant, "first draft")
	appendText("CodeInspectorAgent", models.RoleAssistant, "looks wrong")
	appendText("CodeWriterAgent", models.RoleAssistant, "second draft")

	conv, err := client.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve conversation: %v", err)
	}

	last := conv.LastTextMessage("CodeWriterAgent")
	if last == nil {
		t.Fatal("expected a message from CodeWriterAgent")
	}
	if last.Content != "second draft" {
		t.Errorf("expected most recent message, got %q", last.Content)
	}

	if conv.LastTextMessage("NoSuchAgent") != nil {
		t.Error("expected nil for unknown sender")
	}
}

func TestConversationNewestFirst(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if _, err := client.AppendText(ctx, threadID, "user", models.RoleUser, content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	conv, err := client.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve conversation: %v", err)
	}

	newest := conv.NewestFirst()
	if newest[0].Content != "three" || newest[2].Content != "one" {
		t.Errorf("expected newest-first order, got %q..%q", newest[0].Content, newest[2].Content)
	}
}

func TestPendingSince(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	first, err := client.AppendText(ctx, threadID, "user", models.RoleUser, "first")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := client.AppendText(ctx, threadID, "user", models.RoleUser, "second"); err != nil {
		t.Fatalf("append: %v", err)
	}

	conv, err := client.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve conversation: %v", err)
	}

	pending := conv.PendingSince(first.ID)
	if len(pending) != 1 || pending[0].Content != "second" {
		t.Errorf("expected only the second message pending, got %v", pending)
	}

	all := conv.PendingSince("")
	if len(all) != 2 {
		t.Errorf("expected full conversation for empty lastID, got %d", len(all))
	}
}

func TestAppendBinaryMessage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	threadID, err := client.CreateThread(ctx)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	msg := &models.Message{
		ThreadID: threadID,
		Type:     models.MessageTypeImage,
		Sender:   "CodeWriterAgent",
		Role:     models.RoleAssistant,
		Filename: "chart.png",
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
	}
	if err := client.Append(ctx, msg); err != nil {
		t.Fatalf("append image message: %v", err)
	}

	conv, err := client.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve conversation: %v", err)
	}

	if len(conv.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(conv.Messages))
	}
	got := conv.Messages[0]
	if got.Type != models.MessageTypeImage || got.Filename != "chart.png" {
		t.Errorf("unexpected message: %+v", got)
	}
	if len(got.Data) != 4 {
		t.Errorf("expected 4 data bytes, got %d", len(got.Data))
	}
}
