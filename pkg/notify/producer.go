package notify

import (
	"context"

	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

// Producer enqueues notification jobs after a state-changing operation has
// succeeded. It is the only writer to queue:notifications.
type Producer struct {
	queue queue.Queue
}

func NewProducer(q queue.Queue) *Producer {
	return &Producer{queue: q}
}

// EnqueueBroadcast queues an organizer announcement for fanout.
func (p *Producer) EnqueueBroadcast(ctx context.Context, body BroadcastBody) error {
	return p.queue.Enqueue(ctx, queue.NotificationQueueKey, Broadcast{
		Type:    TypeBroadcastMessage,
		Payload: body,
	})
}

// EnqueueInboxMessage queues an inbox notification for one user.
func (p *Producer) EnqueueInboxMessage(ctx context.Context, msg InboxMessage) error {
	msg.Type = TypeInboxMessage
	return p.queue.Enqueue(ctx, queue.NotificationQueueKey, msg)
}

// EnqueueInboxFanout queues one inbox notification per recipient, all sharing
// the same message body. Sequential; stops at the first enqueue failure.
func (p *Producer) EnqueueInboxFanout(ctx context.Context, recipients []string, msg InboxMessage) error {
	for _, userID := range recipients {
		msg.ToUserID = userID
		if err := p.EnqueueInboxMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueEventAdded queues an event-listing addition.
func (p *Producer) EnqueueEventAdded(ctx context.Context, eventID, title string) error {
	return p.queue.Enqueue(ctx, queue.NotificationQueueKey, EventLifecycle{
		Type:    TypeEventAdded,
		EventID: eventID,
		Title:   title,
	})
}

// EnqueueEventDeleted queues an event-listing removal.
func (p *Producer) EnqueueEventDeleted(ctx context.Context, eventID, title string) error {
	return p.queue.Enqueue(ctx, queue.NotificationQueueKey, EventLifecycle{
		Type:    TypeEventDeleted,
		EventID: eventID,
		Title:   title,
	})
}
