package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// IntakeMessage asks a worker to run the async phase for one stored record.
type IntakeMessage struct {
	ApplicationID string    `json:"application_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push adds a job to the queue.
func (q *Queue) Push(ctx context.Context, msg *IntakeMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Dispatch enqueues the async phase for a stored record.
func (q *Queue) Dispatch(ctx context.Context, applicationID string) error {
	return q.Push(ctx, &IntakeMessage{
		ApplicationID: applicationID,
		SubmittedAt:   time.Now().UTC(),
	})
}

// Pop blocks for up to timeout. It returns nil, nil when nothing arrived.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*IntakeMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg IntakeMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
