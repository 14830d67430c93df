package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/parleyhq/parley/internal/assistant"
	"github.com/parleyhq/parley/internal/thread"
	"github.com/parleyhq/parley/pkg/models"
)

// Agent is the subset of the assistant client the orchestrator drives.
// Using an interface keeps the orchestrator testable without a live backend.
type Agent interface {
	Name() string
	Role() string
	SetListener(l assistant.RunListener)
	ProcessMessages(ctx context.Context, threadID string) error
	ProcessRequest(ctx context.Context, userRequest string) (string, error)
}

// Config wires an Orchestrator's dependencies. Everything is passed in
// explicitly so the orchestrator can be exercised without a live backend.
type Config struct {
	// Agents maps agent names to their clients.
	Agents map[string]Agent
	// Threads is the conversation thread client shared by all batches.
	Threads *thread.Client
	// Producer is the agent whose thread output feeds the consumer.
	Producer string
	// Consumer is the agent that receives the producer's output verbatim.
	Consumer string
	// Emitter receives display events. Required.
	Emitter *EventEmitter
}

// Orchestrator distributes a batch's tasks across named agents over a
// shared conversation thread and chains the producer agent's output into
// the consumer agent. It composes the two listener roles: BatchListener
// for the task manager and assistant.RunListener for agent runs.
type Orchestrator struct {
	agents   map[string]Agent
	threads  *thread.Client
	producer string
	consumer string
	emitter  *EventEmitter

	// mu guards batchThreads.
	mu sync.Mutex
	// batchThreads maps schedule IDs to each batch's shared thread.
	batchThreads map[string]string
}

// New creates an Orchestrator and registers it as the run listener of
// every agent it manages.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		agents:       cfg.Agents,
		threads:      cfg.Threads,
		producer:     cfg.Producer,
		consumer:     cfg.Consumer,
		emitter:      cfg.Emitter,
		batchThreads: make(map[string]string),
	}
	for _, agent := range o.agents {
		agent.SetListener(o)
	}
	return o
}

// AgentByName returns the client for a named agent, or nil if unknown.
func (o *Orchestrator) AgentByName(name string) Agent {
	return o.agents[name]
}

// OnBatchStarted registers the batch and creates its shared thread.
func (o *Orchestrator) OnBatchStarted(ctx context.Context, batch *models.TaskBatch, scheduleID string) {
	threadID, err := o.threads.CreateThread(ctx)
	if err != nil {
		// OnBatchExecute will fail on the missing thread; report here.
		o.emitter.Emit(Event{
			Type:       EventBatchFailed,
			ScheduleID: scheduleID,
			Error:      fmt.Errorf("create batch thread: %w", err),
		})
		return
	}

	o.mu.Lock()
	o.batchThreads[scheduleID] = threadID
	o.mu.Unlock()

	o.emitter.Emit(Event{
		Type:       EventBatchStarted,
		ScheduleID: scheduleID,
		Message: fmt.Sprintf("batch %s started: %d tasks across %s",
			batch.ID, len(batch.Tasks), strings.Join(batch.AgentNames(), ", ")),
	})
}

// OnBatchExecute posts each task to the batch thread and runs the named
// agent on it, sequentially, in the batch's declared order. The result is
// the last assistant message on the thread.
func (o *Orchestrator) OnBatchExecute(ctx context.Context, batch *models.TaskBatch, scheduleID string) (string, error) {
	o.mu.Lock()
	threadID, ok := o.batchThreads[scheduleID]
	o.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no thread registered for schedule %s", scheduleID)
	}

	o.emitter.Emit(Event{Type: EventBatchExecuting, ScheduleID: scheduleID})

	for _, task := range batch.Tasks {
		agent := o.agents[task.Assistant]
		if agent == nil {
			return "", fmt.Errorf("unknown agent %q for task %s", task.Assistant, task.ID)
		}

		if _, err := o.threads.AppendText(ctx, threadID, "user", models.RoleUser, task.Instruction); err != nil {
			return "", fmt.Errorf("post task %s to thread: %w", task.ID, err)
		}
		if err := agent.ProcessMessages(ctx, threadID); err != nil {
			return "", fmt.Errorf("agent %s on task %s: %w", task.Assistant, task.ID, err)
		}
	}

	conv, err := o.threads.Retrieve(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("retrieve batch thread: %w", err)
	}
	for _, msg := range conv.NewestFirst() {
		if msg.IsText() && msg.Role == models.RoleAssistant {
			return msg.Content, nil
		}
	}
	return "", nil
}

// OnBatchCompleted reports the terminal state and forgets the batch thread.
func (o *Orchestrator) OnBatchCompleted(ctx context.Context, batch *models.TaskBatch, scheduleID, result string) {
	o.forgetBatch(scheduleID)
	o.emitter.Emit(Event{
		Type:       EventBatchCompleted,
		ScheduleID: scheduleID,
		Message:    result,
	})
}

// OnBatchFailed reports the failure and forgets the batch thread.
// The failure stops here: no retry, no escalation.
func (o *Orchestrator) OnBatchFailed(ctx context.Context, batch *models.TaskBatch, scheduleID string, err error) {
	o.forgetBatch(scheduleID)
	o.emitter.Emit(Event{
		Type:       EventBatchFailed,
		ScheduleID: scheduleID,
		Error:      err,
	})
}

func (o *Orchestrator) forgetBatch(scheduleID string) {
	o.mu.Lock()
	delete(o.batchThreads, scheduleID)
	o.mu.Unlock()
}

// OnRunStart implements assistant.RunListener. Engineer-role agents show
// their input; user-interaction agents start silently.
func (o *Orchestrator) OnRunStart(assistantName, runID, userInput string) {
	agent := o.agents[assistantName]
	role := ""
	if agent != nil {
		role = agent.Role()
	}

	switch role {
	case "engineer":
		o.emitter.Emit(Event{
			Type:      EventRunStarted,
			AgentName: assistantName,
			Message:   fmt.Sprintf("starting the task with input: %s", userInput),
		})
	case "user_interaction":
		// Quiet role.
	default:
		o.emitter.Emit(Event{
			Type:      EventRunStarted,
			AgentName: assistantName,
			Message:   "starting the task",
		})
	}
}

// OnRunUpdate implements assistant.RunListener.
func (o *Orchestrator) OnRunUpdate(assistantName, runID string, status assistant.RunStatus, firstUpdate bool) {
	if status != assistant.RunStatusInProgress {
		return
	}
	o.emitter.Emit(Event{
		Type:        EventRunProgress,
		AgentName:   assistantName,
		FirstUpdate: firstUpdate,
	})
}

// OnRunEnd implements assistant.RunListener. Thread-backed runs end
// without an inline response; their output is read back from the thread,
// displayed, and chained from the producer agent into the consumer agent.
func (o *Orchestrator) OnRunEnd(ctx context.Context, assistantName, runID, threadID, response string) {
	if response != "" {
		o.emitter.Emit(Event{
			Type:      EventRunMessage,
			AgentName: assistantName,
			Message:   response,
		})
		return
	}
	if threadID == "" {
		return
	}

	conv, err := o.threads.Retrieve(ctx, threadID)
	if err != nil {
		o.emitter.Emit(Event{Type: EventRunMessage, AgentName: assistantName, Error: err})
		return
	}
	msg := conv.LastTextMessage(assistantName)
	if msg == nil {
		return
	}

	o.emitter.Emit(Event{
		Type:      EventRunMessage,
		AgentName: assistantName,
		Message:   msg.Content,
	})

	if assistantName == o.producer {
		consumer := o.agents[o.consumer]
		if consumer == nil {
			return
		}
		if _, err := consumer.ProcessRequest(ctx, msg.Content); err != nil {
			o.emitter.Emit(Event{Type: EventChained, AgentName: o.consumer, Error: err})
			return
		}
		o.emitter.Emit(Event{
			Type:      EventChained,
			AgentName: o.consumer,
			Message:   fmt.Sprintf("forwarded %s output to %s", o.producer, o.consumer),
		})
	}
}
