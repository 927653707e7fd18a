package mail

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

const defaultBackoff = time.Second

// Worker drains queue:emails and hands each job to the sender. Same contract
// as the notification worker: one bad job never terminates the loop.
type Worker struct {
	queue   queue.Queue
	sender  Sender
	backoff time.Duration
	logger  *log.Logger
}

func NewWorker(q queue.Queue, sender Sender, backoff time.Duration) *Worker {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Worker{
		queue:   q,
		sender:  sender,
		backoff: backoff,
		logger:  log.ForService("email-worker"),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infof("email worker started, waiting for jobs")

	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := w.queue.Dequeue(ctx, queue.EmailQueueKey, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Errorf("dequeue failed: %v", err)
			w.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		var p Payload
		if err := json.Unmarshal(job.Payload, &p); err != nil || p.Email == "" {
			w.logger.Warnf("received email job with empty or invalid payload, skipping")
			continue
		}

		w.logger.Infof("processing email job to=%s subject=%q", p.Email, p.Subject)
		if err := w.sender.Send(ctx, p); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Errorf("sending email: %v", err)
			w.sleep(ctx)
			continue
		}
		w.logger.Infof("email sent to %s", p.Email)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
