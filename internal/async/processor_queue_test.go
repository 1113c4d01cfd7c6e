package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type recordingProcessor struct {
	mu    sync.Mutex
	seen  map[string]int
	fail  string
	delay time.Duration
}

func (p *recordingProcessor) ProcessFile(ctx context.Context, fileID string) (uuid.UUID, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
	p.mu.Lock()
	p.seen[fileID]++
	p.mu.Unlock()
	if fileID == p.fail {
		return uuid.Nil, errors.New("boom")
	}
	if fileID == "panic" {
		panic("reader exploded")
	}
	return uuid.New(), nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueProcessesEveryJobOnce(t *testing.T) {
	t.Parallel()

	proc := &recordingProcessor{seen: map[string]int{}, fail: "f3"}
	q := NewProcessorQueue(proc, quiet(), WithWorkers(3), WithQueueSize(2), WithProcessTimeout(time.Second))

	ids := []string{"f1", "f2", "f3", "f4", "panic", "f5", "f6"}
	for _, id := range ids {
		if err := q.Enqueue(context.Background(), Job{FileID: id, Source: "test"}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	for _, id := range ids {
		if proc.seen[id] != 1 {
			t.Fatalf("%s processed %d times, want once", id, proc.seen[id])
		}
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	t.Parallel()

	q := NewProcessorQueue(&recordingProcessor{seen: map[string]int{}}, quiet(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background()) // idempotent

	if err := q.Enqueue(context.Background(), Job{FileID: "late"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("want ErrQueueClosed got %v", err)
	}
}

func TestEnqueueBackpressureHonorsContext(t *testing.T) {
	t.Parallel()

	proc := &recordingProcessor{seen: map[string]int{}, delay: 200 * time.Millisecond}
	q := NewProcessorQueue(proc, quiet(), WithWorkers(1), WithQueueSize(1))
	defer q.Shutdown(context.Background())

	// one job in the worker, one in the buffer
	_ = q.Enqueue(context.Background(), Job{FileID: "a"})
	time.Sleep(20 * time.Millisecond)
	_ = q.Enqueue(context.Background(), Job{FileID: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{FileID: "c"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded got %v", err)
	}
}
