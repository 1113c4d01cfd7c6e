package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks the workers to run extraction over one stored file.
type Job struct {
	FileID      string
	Source      string // origin for logs, "watcher:<path>"
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor is the unit of work a worker runs per job.
type Processor interface {
	ProcessFile(ctx context.Context, fileID string) (uuid.UUID, error)
}
