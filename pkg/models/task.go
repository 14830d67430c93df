package models

import "time"

// BatchStatus represents the current state of a task batch.
type BatchStatus string

const (
	// BatchStatusPending indicates the batch has been created but not scheduled.
	BatchStatusPending BatchStatus = "pending"
	// BatchStatusStarted indicates the batch has been picked up by the task manager.
	BatchStatusStarted BatchStatus = "started"
	// BatchStatusExecuting indicates the batch's tasks are being dispatched.
	BatchStatusExecuting BatchStatus = "executing"
	// BatchStatusCompleted indicates every task in the batch finished.
	BatchStatusCompleted BatchStatus = "completed"
	// BatchStatusFailed indicates the batch stopped on an error.
	BatchStatusFailed BatchStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusPending, BatchStatusStarted, BatchStatusExecuting, BatchStatusCompleted, BatchStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a terminal state.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// Task is a single natural-language instruction addressed to a named agent.
// Tasks are parsed from the planner's JSON task list and are immutable once
// created.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Assistant is the name of the agent that should perform the task.
	Assistant string `json:"assistant"`
	// Instruction is the natural-language description of the work.
	Instruction string `json:"task"`
}

// TaskBatch is an ordered set of tasks submitted together under one
// schedule identifier. Tasks within a batch execute sequentially in the
// declared order.
type TaskBatch struct {
	// ID is the unique identifier for this batch.
	ID string `json:"id"`
	// Tasks are the tasks in submission order.
	Tasks []Task `json:"tasks"`
	// Status is the current lifecycle state of the batch.
	Status BatchStatus `json:"status"`
	// CreatedAt is when the batch was created.
	CreatedAt time.Time `json:"created_at"`
	// Error contains the failure message if the batch failed.
	Error string `json:"error,omitempty"`
}

// AgentNames returns the distinct agent names referenced by the batch,
// in first-appearance order.
func (b *TaskBatch) AgentNames() []string {
	seen := make(map[string]bool, len(b.Tasks))
	var names []string
	for _, t := range b.Tasks {
		if !seen[t.Assistant] {
			seen[t.Assistant] = true
			names = append(names, t.Assistant)
		}
	}
	return names
}
