package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/taranpreet09/Event-Management-System/pkg/log"
)

const memoryQueueCapacity = 1024

// MemoryQueue is a channel-backed Queue used in tests and in single-process
// deployments without Redis. Same contract: FIFO per key, destructive pop,
// blocking dequeue with optional timeout.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	logger *log.Logger
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		queues: make(map[string]chan []byte),
		logger: log.ForService("queue"),
	}
}

func (q *MemoryQueue) channel(queueKey string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.queues[queueKey]
	if !ok {
		ch = make(chan []byte, memoryQueueCapacity)
		q.queues[queueKey] = ch
	}
	return ch
}

func (q *MemoryQueue) Enqueue(ctx context.Context, queueKey string, payload any) error {
	data, err := marshalJob(payload)
	if err != nil {
		return err
	}
	return q.push(queueKey, data)
}

// push appends raw bytes to the named queue. Split from Enqueue so tests can
// inject corrupt entries the way a misbehaving producer could on Redis.
func (q *MemoryQueue) push(queueKey string, data []byte) error {
	select {
	case q.channel(queueKey) <- data:
		return nil
	default:
		return fmt.Errorf("queue %s is full", queueKey)
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, queueKey string, timeout time.Duration) (*Job, error) {
	ch := q.channel(queueKey)

	var data []byte
	if timeout == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data = <-ch:
		}
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case data = <-ch:
		}
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		q.logger.Errorf("failed to parse job from %s: %v", queueKey, err)
		return nil, nil
	}
	return &job, nil
}

func (q *MemoryQueue) Close() error {
	return nil
}
