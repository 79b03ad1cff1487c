// Package jobs runs background work on asynq: report cache warmups and
// periodic idempotency key cleanup.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue all scheduled work goes to.
	QueueDefault = "default"

	// TaskAgingWarmup rebuilds the receivables and payables aging caches.
	TaskAgingWarmup = "reports:aging_warmup"
	// TaskIdempotencyCleanup prunes processed idempotency keys.
	TaskIdempotencyCleanup = "ops:idempotency_cleanup"
)

// AgingWarmupPayload parameterises a warmup run.
type AgingWarmupPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// IdempotencyCleanupPayload controls how far back keys are kept.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAgingWarmupTask constructs a warmup task.
func NewAgingWarmupTask(payload AgingWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAgingWarmup, data), nil
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// Client submits ad-hoc jobs outside the scheduler.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueAgingWarmup queues an immediate warmup. Each manual trigger gets its
// own task ID so it never conflicts with the scheduler's pending run.
func (c *Client) EnqueueAgingWarmup(ctx context.Context, payload AgingWarmupPayload) (*asynq.TaskInfo, error) {
	task, err := NewAgingWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.TaskID(uuid.NewString()))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
