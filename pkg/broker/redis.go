package broker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroker backs the Broker contract with Redis pub/sub channels.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, data []byte) (int64, error) {
	n, err := b.rdb.Publish(ctx, topic, data).Result()
	if err != nil {
		return 0, fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return n, nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, topics...)
	// Force the SUBSCRIBE round trip so a broker that is unreachable at
	// startup surfaces here instead of on the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %v: %w", topics, err)
	}

	sub := &redisSubscription{
		ps:  ps,
		out: make(chan Message, 64),
	}
	go sub.pump()
	return sub, nil
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan Message
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		s.out <- Message{Topic: msg.Channel, Data: []byte(msg.Payload)}
	}
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
