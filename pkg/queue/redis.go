package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taranpreet09/Event-Management-System/pkg/log"
)

// RedisQueue backs the Queue contract with Redis lists (LPUSH/BRPOP).
type RedisQueue struct {
	rdb    *redis.Client
	logger *log.Logger
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{
		rdb:    rdb,
		logger: log.ForService("queue"),
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, queueKey string, payload any) error {
	data, err := marshalJob(payload)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("pushing job to %s: %w", queueKey, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, queueKey string, timeout time.Duration) (*Job, error) {
	// BRPOP with a zero timeout blocks until a job arrives.
	res, err := q.rdb.BRPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("popping job from %s: %w", queueKey, err)
	}
	// BRPOP returns [key, value].
	if len(res) < 2 {
		q.logger.Warnf("unexpected BRPOP reply from %s: %v", queueKey, res)
		return nil, nil
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		// The pop already removed the entry; nothing to recover.
		q.logger.Errorf("failed to parse job from %s: %v", queueKey, err)
		return nil, nil
	}
	return &job, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
