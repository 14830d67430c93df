// Package orchestrator coordinates task batches across named agents.
package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventBatchStarted indicates a task batch has been picked up.
	EventBatchStarted EventType = "batch_started"
	// EventBatchExecuting indicates a batch's tasks are being dispatched.
	EventBatchExecuting EventType = "batch_executing"
	// EventBatchCompleted indicates a batch finished successfully.
	EventBatchCompleted EventType = "batch_completed"
	// EventBatchFailed indicates a batch stopped on an error.
	EventBatchFailed EventType = "batch_failed"
	// EventRunStarted indicates an agent began a run.
	EventRunStarted EventType = "run_started"
	// EventRunProgress provides periodic updates while an agent is working.
	EventRunProgress EventType = "run_progress"
	// EventRunMessage carries an agent's thread output when its run ends.
	EventRunMessage EventType = "run_message"
	// EventChained indicates the producer's output was forwarded to the consumer.
	EventChained EventType = "chained"
)

// Event represents an event emitted by the orchestrator.
// These events feed the CLI/TUI display.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// ScheduleID correlates batch lifecycle events, if applicable.
	ScheduleID string
	// AgentName is the related agent, if applicable.
	AgentName string
	// Message provides display text for the event.
	Message string
	// FirstUpdate is true for the first progress event of a run.
	FirstUpdate bool
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
