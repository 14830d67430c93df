package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/models"
)

// recordingListener counts lifecycle callbacks and runs a configurable
// execute function.
type recordingListener struct {
	mu        sync.Mutex
	started   int
	completed int
	failed    int
	execute   func(batch *models.TaskBatch) (string, error)
}

func (l *recordingListener) OnBatchStarted(ctx context.Context, batch *models.TaskBatch, scheduleID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started++
}

func (l *recordingListener) OnBatchExecute(ctx context.Context, batch *models.TaskBatch, scheduleID string) (string, error) {
	if l.execute != nil {
		return l.execute(batch)
	}
	return "done", nil
}

func (l *recordingListener) OnBatchCompleted(ctx context.Context, batch *models.TaskBatch, scheduleID, result string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed++
}

func (l *recordingListener) OnBatchFailed(ctx context.Context, batch *models.TaskBatch, scheduleID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed++
}

func (l *recordingListener) counts() (started, completed, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started, l.completed, l.failed
}

func TestScheduleResolvesFutureOnSuccess(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{}
	manager := NewTaskManager(listener)

	batch := &models.TaskBatch{ID: "batch-1", Tasks: []models.Task{{ID: "t1"}}}
	future := manager.Schedule(ctx, batch)

	result, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result != "done" {
		t.Errorf("expected result done, got %q", result)
	}
	if batch.Status != models.BatchStatusCompleted {
		t.Errorf("expected completed status, got %q", batch.Status)
	}

	started, completed, failed := listener.counts()
	if started != 1 || completed != 1 || failed != 0 {
		t.Errorf("expected 1 started / 1 completed / 0 failed, got %d/%d/%d",
			started, completed, failed)
	}
}

func TestScheduleFailsFutureOnError(t *testing.T) {
	ctx := context.Background()
	execErr := errors.New("agent exploded")
	listener := &recordingListener{
		execute: func(batch *models.TaskBatch) (string, error) {
			return "", execErr
		},
	}
	manager := NewTaskManager(listener)

	batch := &models.TaskBatch{ID: "batch-1"}
	future := manager.Schedule(ctx, batch)

	_, err := future.Wait(ctx)
	if !errors.Is(err, execErr) {
		t.Fatalf("expected execute error, got %v", err)
	}
	if batch.Status != models.BatchStatusFailed {
		t.Errorf("expected failed status, got %q", batch.Status)
	}
	if batch.Error == "" {
		t.Error("expected batch error to be recorded")
	}

	started, completed, failed := listener.counts()
	if started != 1 || completed != 0 || failed != 1 {
		t.Errorf("expected exactly one terminal callback, got completed=%d failed=%d",
			completed, failed)
	}
}

func TestFutureResolvesExactlyOnce(t *testing.T) {
	future := newCompletionFuture("sched-1")

	future.resolve("first")
	future.resolve("second")
	future.fail(errors.New("too late"))

	result, err := future.Wait(context.Background())
	if err != nil {
		t.Fatalf("expected first resolution to win, got error %v", err)
	}
	if result != "first" {
		t.Errorf("expected first result, got %q", result)
	}
}

func TestWaitForAllDrainsOutstanding(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{}
	manager := NewTaskManager(listener)

	for i := 0; i < 3; i++ {
		manager.Schedule(ctx, &models.TaskBatch{ID: "batch"})
	}

	if err := manager.WaitForAll(ctx); err != nil {
		t.Fatalf("wait for all: %v", err)
	}
	if manager.Outstanding() != 0 {
		t.Errorf("expected no outstanding futures after wait, got %d", manager.Outstanding())
	}

	// A second wait with nothing scheduled returns immediately instead of
	// re-waiting already-consumed futures.
	done := make(chan error, 1)
	go func() { done <- manager.WaitForAll(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second WaitForAll did not return promptly")
	}
}

func TestWaitForAllHonorsBatchFailures(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{
		execute: func(batch *models.TaskBatch) (string, error) {
			return "", errors.New("boom")
		},
	}
	manager := NewTaskManager(listener)
	manager.Schedule(ctx, &models.TaskBatch{ID: "batch"})

	// Failures are reported through the listener; the wait itself succeeds
	// so the interactive loop keeps going.
	if err := manager.WaitForAll(ctx); err != nil {
		t.Fatalf("expected wait to succeed despite batch failure, got %v", err)
	}

	_, _, failed := listener.counts()
	if failed != 1 {
		t.Errorf("expected 1 failed callback, got %d", failed)
	}
}

func TestBatchesExecuteSerially(t *testing.T) {
	ctx := context.Background()
	var active, peak int32
	listener := &recordingListener{
		execute: func(batch *models.TaskBatch) (string, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return "done", nil
		},
	}
	manager := NewTaskManager(listener)

	for i := 0; i < 4; i++ {
		manager.Schedule(ctx, &models.TaskBatch{ID: "batch"})
	}
	if err := manager.WaitForAll(ctx); err != nil {
		t.Fatalf("wait for all: %v", err)
	}

	if got := atomic.LoadInt32(&peak); got != 1 {
		t.Errorf("expected one batch executing at a time, saw %d concurrently", got)
	}
}

func TestWaitForAllCancellable(t *testing.T) {
	block := make(chan struct{})
	listener := &recordingListener{
		execute: func(batch *models.TaskBatch) (string, error) {
			<-block
			return "", nil
		},
	}
	manager := NewTaskManager(listener)

	ctx, cancel := context.WithCancel(context.Background())
	manager.Schedule(ctx, &models.TaskBatch{ID: "batch"})

	done := make(chan error, 1)
	go func() { done <- manager.WaitForAll(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForAll did not observe cancellation")
	}
	close(block)
}
