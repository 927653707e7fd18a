package mail

import (
	"context"
	"fmt"

	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

// Producer enqueues email jobs. It is the only writer to queue:emails.
type Producer struct {
	queue queue.Queue
}

func NewProducer(q queue.Queue) *Producer {
	return &Producer{queue: q}
}

func (p *Producer) Enqueue(ctx context.Context, payload Payload) error {
	return p.queue.Enqueue(ctx, queue.EmailQueueKey, payload)
}

// EnqueueRegistrationConfirmation queues the confirmation sent after a user
// registers for an event.
func (p *Producer) EnqueueRegistrationConfirmation(ctx context.Context, email, userName, eventTitle string) error {
	return p.Enqueue(ctx, Payload{
		Email:   email,
		Subject: fmt.Sprintf("You're registered for %s", eventTitle),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your registration for <strong>%s</strong> is confirmed.</p>",
			userName, eventTitle),
		Text: fmt.Sprintf("Hi %s, your registration for %s is confirmed.", userName, eventTitle),
	})
}
