// Package planner turns user requests into task batches by way of a
// planner agent. The agent replies with a JSON task list inside a fenced
// code block; this package extracts, validates, and parses that list.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/assistant"
	"github.com/parleyhq/parley/internal/thread"
	"github.com/parleyhq/parley/pkg/models"
)

// jsonFencePattern matches the first ```json fenced block in a reply.
var jsonFencePattern = regexp.MustCompile("```json\n([\\s\\S]*?)\n```")

// ExtractJSONBlock returns the content of the first JSON code block in the
// given text. If no JSON fence is present, the original text is returned
// and will fail task-list parsing unless it happens to be raw JSON.
func ExtractJSONBlock(text string) string {
	match := jsonFencePattern.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	return match[1]
}

// RequiresConfirmation reports whether the planner's reply is a question
// back to the user rather than a task list. Text inside JSON fences is
// ignored; a question mark anywhere else means the planner wants input.
func RequiresConfirmation(reply string) bool {
	stripped := jsonFencePattern.ReplaceAllString(reply, "")
	return strings.Contains(stripped, "?")
}

// ParseTaskList parses a JSON array of {"assistant", "task"} objects into
// a task slice with assigned IDs.
func ParseTaskList(jsonStr string) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.Unmarshal([]byte(jsonStr), &tasks); err != nil {
		return nil, fmt.Errorf("unmarshal task list: %w", err)
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("empty task list")
	}

	for i := range tasks {
		if tasks[i].Assistant == "" {
			return nil, fmt.Errorf("task %d has no assistant", i)
		}
		if tasks[i].Instruction == "" {
			return nil, fmt.Errorf("task %d has no instruction", i)
		}
		tasks[i].ID = uuid.New().String()
	}

	return tasks, nil
}

// Result is the outcome of one planning round.
type Result struct {
	// Reply is the planner's raw reply text.
	Reply string
	// NeedsConfirmation is true when the planner asked the user a question
	// instead of producing a task list. Batch is nil in that case.
	NeedsConfirmation bool
	// Batch is the parsed task batch, nil when confirmation is needed.
	Batch *models.TaskBatch
}

// Planner drives the planner agent over a dedicated conversation thread,
// so the agent keeps context across planning rounds.
type Planner struct {
	agent    *assistant.Client
	threads  *thread.Client
	threadID string
}

// New creates a Planner with a fresh planning thread.
func New(ctx context.Context, agent *assistant.Client, threads *thread.Client) (*Planner, error) {
	threadID, err := threads.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create planner thread: %w", err)
	}
	return &Planner{
		agent:    agent,
		threads:  threads,
		threadID: threadID,
	}, nil
}

// ThreadID returns the planner's conversation thread ID.
func (p *Planner) ThreadID() string {
	return p.threadID
}

// Plan posts the user request to the planning thread, runs the planner
// agent, and parses its reply into a task batch. A reply that asks the
// user a question yields NeedsConfirmation without an error; a reply that
// fails to parse as a task list is an error the caller is expected to
// swallow by skipping the current round.
func (p *Planner) Plan(ctx context.Context, userRequest string) (*Result, error) {
	if _, err := p.threads.AppendText(ctx, p.threadID, "user", models.RoleUser, userRequest); err != nil {
		return nil, fmt.Errorf("post request to planner thread: %w", err)
	}

	if err := p.agent.ProcessMessages(ctx, p.threadID); err != nil {
		return nil, fmt.Errorf("run planner agent: %w", err)
	}

	conv, err := p.threads.Retrieve(ctx, p.threadID)
	if err != nil {
		return nil, fmt.Errorf("retrieve planner thread: %w", err)
	}

	msg := conv.LastTextMessage(p.agent.Name())
	if msg == nil {
		return nil, fmt.Errorf("planner produced no reply")
	}

	result := &Result{Reply: msg.Content}
	if RequiresConfirmation(msg.Content) {
		result.NeedsConfirmation = true
		return result, nil
	}

	tasks, err := ParseTaskList(ExtractJSONBlock(msg.Content))
	if err != nil {
		return nil, fmt.Errorf("parse planner reply: %w", err)
	}

	result.Batch = &models.TaskBatch{
		ID:        uuid.New().String(),
		Tasks:     tasks,
		Status:    models.BatchStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	return result, nil
}
