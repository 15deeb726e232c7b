package queue

import (
	"context"

	"audioscribe/internal/app/model"
)

// JobQueue is the durable, shared FIFO of pending transcription jobs plus the
// per-job result store. Implementations must mint a globally unique job ID at
// enqueue time and hand each job to at most one consumer at a time.
type JobQueue interface {
	// Enqueue appends a job for the given file and returns its new job ID.
	Enqueue(ctx context.Context, file model.FileRecord) (string, error)

	// Dequeue atomically claims the oldest pending job. It blocks up to the
	// configured poll interval and returns (nil, nil) when no job arrived, so
	// callers can observe context cancellation between polls. A claimed job
	// stays on the consumer's processing list until Ack.
	Dequeue(ctx context.Context) (*model.JobSpec, error)

	// Ack releases a claimed job after its terminal result has been stored.
	Ack(ctx context.Context, spec model.JobSpec) error

	// Count returns the number of pending jobs.
	Count(ctx context.Context) (int64, error)

	// JobIDs returns pending job IDs in dequeue order.
	JobIDs(ctx context.Context) ([]string, error)

	// SetResult stores the job's current state; GetResult reads it back.
	SetResult(ctx context.Context, result model.JobResult) error
	GetResult(ctx context.Context, jobID string) (*model.JobResult, error)

	// Heartbeat marks this consumer alive. Consumers call it periodically;
	// RequeueStale treats a consumer whose heartbeat has expired as dead.
	Heartbeat(ctx context.Context) error

	// RequeueStale moves jobs left on processing lists by dead consumers back
	// onto the pending queue and returns how many were moved. Consumers with a
	// live heartbeat are skipped.
	RequeueStale(ctx context.Context) (int, error)
}
