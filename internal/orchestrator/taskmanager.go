package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/pkg/models"
)

// TaskManager schedules task batches and drives their lifecycle through a
// BatchListener. Each scheduled batch gets a fresh schedule identifier and
// a CompletionFuture that resolves exactly once, on the batch's single
// terminal transition.
type TaskManager struct {
	listener BatchListener

	// execMu serializes batch execution: a scheduled batch waits for the
	// previous one to reach a terminal state before it starts.
	execMu sync.Mutex

	// mu guards outstanding.
	mu sync.Mutex
	// outstanding maps schedule IDs to unresolved or not-yet-collected futures.
	outstanding map[string]*CompletionFuture
}

// NewTaskManager creates a TaskManager delivering lifecycle events to listener.
func NewTaskManager(listener BatchListener) *TaskManager {
	return &TaskManager{
		listener:    listener,
		outstanding: make(map[string]*CompletionFuture),
	}
}

// Schedule submits a batch for execution and returns its completion future.
// The batch runs on its own goroutine, but batches never execute
// concurrently with each other; tasks within a batch execute sequentially
// in the listener's OnBatchExecute.
func (m *TaskManager) Schedule(ctx context.Context, batch *models.TaskBatch) *CompletionFuture {
	scheduleID := uuid.New().String()
	future := newCompletionFuture(scheduleID)

	m.mu.Lock()
	m.outstanding[scheduleID] = future
	m.mu.Unlock()

	go m.run(ctx, batch, scheduleID, future)

	return future
}

// run drives one batch from started to a terminal state.
func (m *TaskManager) run(ctx context.Context, batch *models.TaskBatch, scheduleID string, future *CompletionFuture) {
	m.execMu.Lock()
	defer m.execMu.Unlock()

	batch.Status = models.BatchStatusStarted
	m.listener.OnBatchStarted(ctx, batch, scheduleID)

	batch.Status = models.BatchStatusExecuting
	result, err := m.listener.OnBatchExecute(ctx, batch, scheduleID)
	if err != nil {
		batch.Status = models.BatchStatusFailed
		batch.Error = err.Error()
		m.listener.OnBatchFailed(ctx, batch, scheduleID, err)
		future.fail(err)
		return
	}

	batch.Status = models.BatchStatusCompleted
	m.listener.OnBatchCompleted(ctx, batch, scheduleID, result)
	future.resolve(result)
}

// Outstanding returns the number of batches whose futures have not been
// collected by WaitForAll yet.
func (m *TaskManager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

// WaitForAll blocks until every outstanding batch has reached a terminal
// state, then clears the collected futures so a later call only waits on
// batches scheduled after this one returned. Batch failures do not fail
// the wait; they were already reported through the listener.
func (m *TaskManager) WaitForAll(ctx context.Context) error {
	for {
		m.mu.Lock()
		futures := make([]*CompletionFuture, 0, len(m.outstanding))
		for _, f := range m.outstanding {
			futures = append(futures, f)
		}
		m.mu.Unlock()

		if len(futures) == 0 {
			return nil
		}

		for _, f := range futures {
			if _, err := f.Wait(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}

		m.mu.Lock()
		for _, f := range futures {
			delete(m.outstanding, f.ScheduleID())
		}
		m.mu.Unlock()
		// Loop again in case new batches were scheduled while waiting.
	}
}
