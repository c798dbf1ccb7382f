package async

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, filename string, data []byte) (pipeline.Outcome, error)
}

type ProcessorQueue struct {
	proc    DocumentProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	attempts   uint
	retryDelay time.Duration
	onDone     func(Completion)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithRetry retries a job on transport errors, 429 and 5xx. attempts counts the first try.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(q *ProcessorQueue) {
		if attempts > 0 {
			q.attempts = attempts
		}
		if delay > 0 {
			q.retryDelay = delay
		}
	}
}

// WithOnDone registers a callback invoked from worker goroutines.
func WithOnDone(fn func(Completion)) Option {
	return func(q *ProcessorQueue) {
		q.onDone = fn
	}
}

func NewProcessorQueue(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:       proc,
		logger:     logger,
		workers:    4,
		timeout:    3 * time.Minute,
		attempts:   1,
		retryDelay: time.Second,
		ch:         make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					c := q.run(job)
					if c.Err != nil {
						q.logger.Error("processing failed",
							"worker_id", workerID, "path", job.Path,
							"attempts", c.Attempts, "kind", llm.ErrorKind(c.Err), "error", c.Err,
						)
					} else {
						q.logger.Info("processed file successfully",
							"worker_id", workerID, "path", job.Path, "attempts", c.Attempts,
						)
					}
					if q.onDone != nil {
						q.onDone(c)
					}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(job Job) Completion {
	c := Completion{Job: job}
	data, err := os.ReadFile(job.Path)
	if err != nil {
		c.Err = fmt.Errorf("read %s: %w", job.Path, err)
		return c
	}
	name := filepath.Base(job.Path)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	c.Err = retry.Do(
		func() error {
			c.Attempts++
			out, err := q.proc.ProcessDocument(ctx, name, data)
			c.Outcome = out
			return err
		},
		retry.Context(ctx),
		retry.Attempts(q.attempts),
		retry.Delay(q.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(llm.Retryable),
		retry.OnRetry(func(n uint, err error) {
			q.logger.Warn("retrying file", "path", job.Path, "attempt", n+1, "error", err)
		}),
	)
	return c
}

// Enqueue blocks when the buffer is full until a worker frees a slot or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
