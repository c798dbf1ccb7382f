package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting for extraction.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Completion is reported once per job after its last attempt.
type Completion struct {
	Job      Job
	Outcome  pipeline.Outcome
	Err      error
	Attempts uint
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
