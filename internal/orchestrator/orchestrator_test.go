package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/parleyhq/parley/internal/assistant"
	"github.com/parleyhq/parley/internal/thread"
	"github.com/parleyhq/parley/pkg/models"
)

// fakeAgent replies to every posted task with a canned message on the
// shared thread, like a real assistant client would.
type fakeAgent struct {
	name string
	role string

	mu       sync.Mutex
	listener assistant.RunListener
	threads  *thread.Client
	requests []string
	runs     int
}

func (a *fakeAgent) Name() string { return a.name }
func (a *fakeAgent) Role() string { return a.role }

func (a *fakeAgent) SetListener(l assistant.RunListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *fakeAgent) ProcessMessages(ctx context.Context, threadID string) error {
	a.mu.Lock()
	a.runs++
	run := a.runs
	listener := a.listener
	a.mu.Unlock()

	reply := fmt.Sprintf("%s reply %d", a.name, run)
	if _, err := a.threads.AppendText(ctx, threadID, a.name, models.RoleAssistant, reply); err != nil {
		return err
	}
	if listener != nil {
		listener.OnRunEnd(ctx, a.name, fmt.Sprintf("run-%d", run), threadID, "")
	}
	return nil
}

func (a *fakeAgent) ProcessRequest(ctx context.Context, userRequest string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, userRequest)
	return "ok", nil
}

func newTestOrchestrator(t *testing.T, agents ...*fakeAgent) (*Orchestrator, *thread.Client, *EventEmitter) {
	t.Helper()
	db, err := thread.OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	threads := thread.NewClient(db)

	byName := make(map[string]Agent, len(agents))
	for _, a := range agents {
		a.threads = threads
		byName[a.name] = a
	}

	emitter := NewEventEmitter(64)
	t.Cleanup(emitter.Close)

	o := New(Config{
		Agents:   byName,
		Threads:  threads,
		Producer: "CodeWriterAgent",
		Consumer: "FileCreatorAgent",
		Emitter:  emitter,
	})
	return o, threads, emitter
}

func drainEvents(emitter *EventEmitter) []Event {
	var events []Event
	for {
		select {
		case ev := <-emitter.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestBatchExecutesTasksInOrder(t *testing.T) {
	ctx := context.Background()
	writer := &fakeAgent{name: "CodeWriterAgent", role: "engineer"}
	inspector := &fakeAgent{name: "CodeInspectorAgent", role: "engineer"}
	o, threads, _ := newTestOrchestrator(t, writer, inspector)

	batch := &models.TaskBatch{
		ID: "batch-1",
		Tasks: []models.Task{
			{ID: "t1", Assistant: "CodeWriterAgent", Instruction: "write fizzbuzz"},
			{ID: "t2", Assistant: "CodeInspectorAgent", Instruction: "review the code"},
		},
	}

	o.OnBatchStarted(ctx, batch, "sched-1")
	result, err := o.OnBatchExecute(ctx, batch, "sched-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// The batch result is the last assistant message on the shared thread.
	if result != "CodeInspectorAgent reply 1" {
		t.Errorf("expected inspector's reply as result, got %q", result)
	}

	// Both tasks and both replies landed on one thread, interleaved.
	o.mu.Lock()
	threadID := o.batchThreads["sched-1"]
	o.mu.Unlock()
	conv, err := threads.Retrieve(ctx, threadID)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	var senders []string
	for _, msg := range conv.Messages {
		senders = append(senders, msg.Sender)
	}
	want := []string{"user", "CodeWriterAgent", "user", "CodeInspectorAgent"}
	if strings.Join(senders, ",") != strings.Join(want, ",") {
		t.Errorf("expected senders %v, got %v", want, senders)
	}
}

func TestBatchFailsOnUnknownAgent(t *testing.T) {
	ctx := context.Background()
	writer := &fakeAgent{name: "CodeWriterAgent", role: "engineer"}
	o, _, _ := newTestOrchestrator(t, writer)

	batch := &models.TaskBatch{
		ID:    "batch-1",
		Tasks: []models.Task{{ID: "t1", Assistant: "NoSuchAgent", Instruction: "do things"}},
	}

	o.OnBatchStarted(ctx, batch, "sched-1")
	_, err := o.OnBatchExecute(ctx, batch, "sched-1")
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
	if !strings.Contains(err.Error(), "NoSuchAgent") {
		t.Errorf("error should name the unknown agent, got %v", err)
	}
}

func TestProducerOutputChainsToConsumer(t *testing.T) {
	ctx := context.Background()
	writer := &fakeAgent{name: "CodeWriterAgent", role: "engineer"}
	creator := &fakeAgent{name: "FileCreatorAgent", role: "engineer"}
	o, _, _ := newTestOrchestrator(t, writer, creator)

	batch := &models.TaskBatch{
		ID:    "batch-1",
		Tasks: []models.Task{{ID: "t1", Assistant: "CodeWriterAgent", Instruction: "write code"}},
	}

	o.OnBatchStarted(ctx, batch, "sched-1")
	if _, err := o.OnBatchExecute(ctx, batch, "sched-1"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	creator.mu.Lock()
	requests := creator.requests
	creator.mu.Unlock()
	if len(requests) != 1 {
		t.Fatalf("expected consumer to receive 1 forwarded request, got %d", len(requests))
	}
	if requests[0] != "CodeWriterAgent reply 1" {
		t.Errorf("expected producer's thread output forwarded verbatim, got %q", requests[0])
	}
}

func TestNonProducerOutputDoesNotChain(t *testing.T) {
	ctx := context.Background()
	inspector := &fakeAgent{name: "CodeInspectorAgent", role: "engineer"}
	creator := &fakeAgent{name: "FileCreatorAgent", role: "engineer"}
	o, _, _ := newTestOrchestrator(t, inspector, creator)

	batch := &models.TaskBatch{
		ID:    "batch-1",
		Tasks: []models.Task{{ID: "t1", Assistant: "CodeInspectorAgent", Instruction: "review"}},
	}

	o.OnBatchStarted(ctx, batch, "sched-1")
	if _, err := o.OnBatchExecute(ctx, batch, "sched-1"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	creator.mu.Lock()
	defer creator.mu.Unlock()
	if len(creator.requests) != 0 {
		t.Errorf("expected no forwarding from a non-producer agent, got %v", creator.requests)
	}
}

func TestInlineResponseEmittedDirectly(t *testing.T) {
	ctx := context.Background()
	creator := &fakeAgent{name: "FileCreatorAgent", role: "engineer"}
	o, _, emitter := newTestOrchestrator(t, creator)

	o.OnRunEnd(ctx, "FileCreatorAgent", "run-1", "", "files written")

	events := drainEvents(emitter)
	found := false
	for _, ev := range events {
		if ev.Type == EventRunMessage && ev.Message == "files written" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected inline response event, got %v", events)
	}
}

func TestRunStartMessageDependsOnRole(t *testing.T) {
	engineer := &fakeAgent{name: "CodeWriterAgent", role: "engineer"}
	planner := &fakeAgent{name: "TaskPlannerAgent", role: "user_interaction"}
	o, _, emitter := newTestOrchestrator(t, engineer, planner)

	o.OnRunStart("CodeWriterAgent", "run-1", "write fizzbuzz")
	o.OnRunStart("TaskPlannerAgent", "run-2", "plan something")

	events := drainEvents(emitter)
	var started []Event
	for _, ev := range events {
		if ev.Type == EventRunStarted {
			started = append(started, ev)
		}
	}
	if len(started) != 1 {
		t.Fatalf("expected only the engineer run to announce itself, got %d events", len(started))
	}
	if !strings.Contains(started[0].Message, "write fizzbuzz") {
		t.Errorf("engineer start message should include the input, got %q", started[0].Message)
	}
}
