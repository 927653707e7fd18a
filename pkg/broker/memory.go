package broker

import (
	"context"
	"sync"
)

const defaultSubscriberBuffer = 64

// MemoryBroker is an in-process hub implementing the Broker contract. Each
// subscriber owns a buffered channel; a subscriber whose buffer is full has
// the message dropped rather than backpressuring the publisher.
type MemoryBroker struct {
	mu      sync.RWMutex
	subs    map[uint64]*memorySubscription
	nextID  uint64
	bufSize int
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs:    make(map[uint64]*memorySubscription),
		bufSize: defaultSubscriberBuffer,
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, data []byte) (int64, error) {
	msg := Message{Topic: topic, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var delivered int64
	for _, sub := range b.subs {
		if !sub.covers(topic) {
			continue
		}
		select {
		case sub.out <- msg:
			delivered++
		default:
			// Drop for this slow subscriber only.
		}
	}
	return delivered, nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	topicSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		topicSet[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &memorySubscription{
		id:     id,
		broker: b,
		topics: topicSet,
		out:    make(chan Message, b.bufSize),
	}
	b.subs[id] = sub
	return sub, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.closeOnce.Do(func() { close(sub.out) })
	}
	return nil
}

func (b *MemoryBroker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		sub.closeOnce.Do(func() { close(sub.out) })
	}
}

type memorySubscription struct {
	id        uint64
	broker    *MemoryBroker
	topics    map[string]struct{}
	out       chan Message
	closeOnce sync.Once
}

func (s *memorySubscription) covers(topic string) bool {
	_, ok := s.topics[topic]
	return ok
}

func (s *memorySubscription) Messages() <-chan Message {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.broker.remove(s.id)
	return nil
}
