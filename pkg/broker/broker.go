// Package broker provides the topic-based publish/subscribe fanout between
// the notification worker and the realtime gateway. Delivery is
// fire-and-forget and at-most-once: a message published while no subscriber
// is connected is dropped, and there is no ordering guarantee across topics.
package broker

import "context"

// Well-known topics.
const (
	TopicEventUpdates  = "event-updates"
	TopicNotifications = "notifications"
)

// Message is one frame received on a subscription.
type Message struct {
	Topic string
	Data  []byte
}

// Subscription is a live subscriber connection covering one or more topics.
type Subscription interface {
	// Messages yields received frames until the subscription closes.
	Messages() <-chan Message
	Close() error
}

// Broker is the pub/sub contract consumed by both the worker and the
// gateway. Implementations: Redis pub/sub and an in-memory hub.
type Broker interface {
	// Publish sends data to every current subscriber of topic and returns
	// the number of subscribers it was delivered to.
	Publish(ctx context.Context, topic string, data []byte) (int64, error)

	// Subscribe opens one long-lived subscription covering all given
	// topics.
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)

	Close() error
}
