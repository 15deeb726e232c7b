package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/model"
)

const (
	defaultPollInterval = 2 * time.Second

	// defaultHeartbeatTTL is how long a consumer counts as alive after its
	// last heartbeat. It must comfortably exceed the heartbeat refresh
	// interval, not the job duration; workers refresh while processing.
	defaultHeartbeatTTL = 30 * time.Second
)

// Config holds the Redis queue settings.
type Config struct {
	Addr         string
	QueueName    string
	ConsumerName string
	PollInterval time.Duration
	HeartbeatTTL time.Duration
}

// RedisQueue implements JobQueue on a Redis list. Pending jobs live on a
// single list in FIFO order; Dequeue moves the head onto a per-consumer
// processing list with BLMOVE, which is what makes a claim atomic across any
// number of workers.
type RedisQueue struct {
	client    *redis.Client
	name      string
	consumer  string
	poll      time.Duration
	heartbeat time.Duration
}

// NewRedisQueue creates a queue client. ConsumerName defaults to the
// host name plus pid so concurrent workers get distinct processing lists.
func NewRedisQueue(client *redis.Client, cfg Config) *RedisQueue {
	name := cfg.QueueName
	if name == "" {
		name = "transcription"
	}
	consumer := cfg.ConsumerName
	if consumer == "" {
		host, _ := os.Hostname()
		consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ttl := cfg.HeartbeatTTL
	if ttl <= 0 {
		ttl = defaultHeartbeatTTL
	}
	return &RedisQueue{client: client, name: name, consumer: consumer, poll: poll, heartbeat: ttl}
}

// NewClient builds a go-redis client for the given address.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (q *RedisQueue) jobsKey() string {
	return "audioscribe:" + q.name
}

func (q *RedisQueue) processingKey(consumer string) string {
	return "audioscribe:" + q.name + ":processing:" + consumer
}

func (q *RedisQueue) consumersKey() string {
	return "audioscribe:" + q.name + ":consumers"
}

func (q *RedisQueue) resultKey(jobID string) string {
	return "audioscribe:" + q.name + ":job:" + jobID
}

func (q *RedisQueue) heartbeatKey(consumer string) string {
	return "audioscribe:" + q.name + ":alive:" + consumer
}

// Heartbeat marks this consumer alive for the configured TTL. Workers call it
// periodically so a RequeueStale sweep by a newly started worker can tell a
// consumer that is mid-job from one that died.
func (q *RedisQueue) Heartbeat(ctx context.Context) error {
	if err := q.client.Set(ctx, q.heartbeatKey(q.consumer), "1", q.heartbeat).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, file model.FileRecord) (string, error) {
	spec := model.JobSpec{JobID: uuid.New().String(), File: file}
	payload, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("marshal job spec: %w", err)
	}

	initial := model.JobResult{JobID: spec.JobID, File: file, Status: model.StatusQueued}
	state, err := json.Marshal(initial)
	if err != nil {
		return "", fmt.Errorf("marshal job state: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, q.resultKey(spec.JobID), state, 0)
	pipe.RPush(ctx, q.jobsKey(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}
	return spec.JobID, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*model.JobSpec, error) {
	pipe := q.client.TxPipeline()
	pipe.SAdd(ctx, q.consumersKey(), q.consumer)
	pipe.Set(ctx, q.heartbeatKey(q.consumer), "1", q.heartbeat)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}

	payload, err := q.client.BLMove(ctx, q.jobsKey(), q.processingKey(q.consumer), "LEFT", "RIGHT", q.poll).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}

	var spec model.JobSpec
	if err := json.Unmarshal([]byte(payload), &spec); err != nil {
		return nil, fmt.Errorf("unmarshal job spec: %w", err)
	}
	return &spec, nil
}

func (q *RedisQueue) Ack(ctx context.Context, spec model.JobSpec) error {
	payload, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal job spec: %w", err)
	}
	if err := q.client.LRem(ctx, q.processingKey(q.consumer), 1, payload).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Count(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.jobsKey()).Result()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}
	return n, nil
}

func (q *RedisQueue) JobIDs(ctx context.Context) ([]string, error) {
	payloads, err := q.client.LRange(ctx, q.jobsKey(), 0, -1).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}

	ids := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		var spec model.JobSpec
		if err := json.Unmarshal([]byte(payload), &spec); err != nil {
			return nil, fmt.Errorf("unmarshal job spec: %w", err)
		}
		ids = append(ids, spec.JobID)
	}
	return ids, nil
}

func (q *RedisQueue) SetResult(ctx context.Context, result model.JobResult) error {
	state, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal job state: %w", err)
	}
	if err := q.client.Set(ctx, q.resultKey(result.JobID), state, 0).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) GetResult(ctx context.Context, jobID string) (*model.JobResult, error) {
	state, err := q.client.Get(ctx, q.resultKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}

	var result model.JobResult
	if err := json.Unmarshal([]byte(state), &result); err != nil {
		return nil, fmt.Errorf("unmarshal job state: %w", err)
	}
	return &result, nil
}

// RequeueStale drains the processing lists of dead consumers back onto the
// pending queue. A consumer counts as dead when its heartbeat key has
// expired; consumers that are merely mid-job keep heartbeating and their
// claims are left alone, so a job is never active on two workers at once.
// Intended to run once at worker startup, before the first Dequeue.
func (q *RedisQueue) RequeueStale(ctx context.Context) (int, error) {
	consumers, err := q.client.SMembers(ctx, q.consumersKey()).Result()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
	}

	moved := 0
	for _, consumer := range consumers {
		alive, err := q.client.Exists(ctx, q.heartbeatKey(consumer)).Result()
		if err != nil {
			return moved, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
		}
		if alive > 0 {
			continue
		}

		for {
			_, err := q.client.LMove(ctx, q.processingKey(consumer), q.jobsKey(), "LEFT", "LEFT").Result()
			if errors.Is(err, redis.Nil) {
				break
			}
			if err != nil {
				return moved, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
			}
			moved++
		}

		if err := q.client.SRem(ctx, q.consumersKey(), consumer).Err(); err != nil {
			return moved, apperrors.Wrap(apperrors.ErrBackendUnavailable, err)
		}
	}
	return moved, nil
}
