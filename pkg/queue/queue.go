// Package queue implements the durable job queues backing deferred work:
// producers push typed JSON payloads, worker processes block-pop them.
//
// Semantics:
//   - FIFO per queue key (push at the head, pop at the tail).
//   - Pop is destructive. There is no acknowledgment step; a consumer that
//     crashes after popping loses the job. This is a documented limitation
//     of the design, not something implementations try to mask.
//   - A zero dequeue timeout blocks indefinitely.
//   - A corrupt entry is logged and reported as "no job"; the pop already
//     removed it and it cannot be recovered.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Queue keys. The two queues are never cross-consumed.
const (
	EmailQueueKey        = "queue:emails"
	NotificationQueueKey = "queue:notifications"
)

// Job is the envelope stored on the wire in a queue.
type Job struct {
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Queue is the durable queue contract. Both implementations (Redis lists for
// multi-process deployments, in-memory channels for tests and single-process
// mode) satisfy it; components receive it by injection.
type Queue interface {
	// Enqueue wraps payload with an enqueue timestamp, serializes it and
	// pushes it to the head of the named list. It never blocks on
	// consumers and fails only if the backing store is unreachable.
	Enqueue(ctx context.Context, queueKey string, payload any) error

	// Dequeue blocking-pops from the tail of the named list. timeout of
	// zero blocks indefinitely. Returns (nil, nil) when the timeout
	// elapses with no job.
	Dequeue(ctx context.Context, queueKey string, timeout time.Duration) (*Job, error)

	Close() error
}

func marshalJob(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	job := Job{
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshaling job: %w", err)
	}
	return data, nil
}
