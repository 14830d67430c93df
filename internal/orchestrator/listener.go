package orchestrator

import (
	"context"

	"github.com/parleyhq/parley/pkg/models"
)

// BatchListener receives task batch lifecycle events from the TaskManager.
// It is a narrow capability interface: implementations that only care about
// some transitions can leave the rest empty.
type BatchListener interface {
	// OnBatchStarted fires once when the batch is picked up, before any
	// task executes.
	OnBatchStarted(ctx context.Context, batch *models.TaskBatch, scheduleID string)
	// OnBatchExecute runs the batch's tasks in order and returns the
	// batch's result. Returning an error fails the whole batch.
	OnBatchExecute(ctx context.Context, batch *models.TaskBatch, scheduleID string) (string, error)
	// OnBatchCompleted fires once after a successful execute.
	OnBatchCompleted(ctx context.Context, batch *models.TaskBatch, scheduleID, result string)
	// OnBatchFailed fires once after a failed execute. Failures are
	// reported, never retried.
	OnBatchFailed(ctx context.Context, batch *models.TaskBatch, scheduleID string, err error)
}
