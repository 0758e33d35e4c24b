package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/observability"
)

var (
	// ErrQueueFull is returned when the job buffer has no room.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned for jobs submitted after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

// Job is a unit of notification work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// NotificationWorker runs jobs on a fixed pool fed by a buffered queue.
type NotificationWorker struct {
	queue      chan Job
	workers    int
	jobTimeout time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker pool; call Start to begin processing.
func NewNotificationWorker(workers, queueSize int, jobTimeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotificationWorker{
		queue:      make(chan Job, queueSize),
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger,
		metrics:    metrics,
	}
}

// Start launches the pool. Jobs run until the queue is closed by Stop.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

func (w *NotificationWorker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	for job := range w.queue {
		w.metrics.SetQueueDepth(len(w.queue))
		w.run(ctx, id, job)
	}
}

func (w *NotificationWorker) run(parent context.Context, id int, job Job) {
	ctx := context.WithoutCancel(parent)
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()
	if err := job.Run(ctx); err != nil {
		w.logger.Warn("notification job failed",
			zap.Int("worker", id),
			zap.String("job", job.Name),
			zap.Error(err))
	}
}

// Enqueue submits a job without blocking.
func (w *NotificationWorker) Enqueue(job Job) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- job:
		w.metrics.SetQueueDepth(len(w.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued ones to drain or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
