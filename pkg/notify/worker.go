package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taranpreet09/Event-Management-System/pkg/broker"
	"github.com/taranpreet09/Event-Management-System/pkg/log"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

const defaultBackoff = time.Second

// Worker is the standalone router from the durable notification queue to the
// ephemeral pub/sub topics. It holds no per-client state.
type Worker struct {
	queue   queue.Queue
	broker  broker.Broker
	backoff time.Duration
	logger  *log.Logger
}

func NewWorker(q queue.Queue, b broker.Broker, backoff time.Duration) *Worker {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Worker{
		queue:   q,
		broker:  b,
		backoff: backoff,
		logger:  log.ForService("notify-worker"),
	}
}

// Run loops until ctx is canceled: blocking dequeue, classify, publish.
// A failed iteration is logged and followed by a fixed backoff; a single bad
// job never terminates the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infof("notification worker started, waiting for jobs")

	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := w.queue.Dequeue(ctx, queue.NotificationQueueKey, 0)
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

		if err := w.process(ctx, job); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Errorf("processing job failed: %v", err)
			w.sleep(ctx)
		}
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) error {
	var env Envelope
	if err := json.Unmarshal(job.Payload, &env); err != nil || env.Type == "" {
		w.logger.Warnf("received job with missing or invalid type, skipping: %s", job.Payload)
		return nil
	}

	topic := TopicFor(env.Type)
	if topic == "" {
		w.logger.Warnf("unknown job type %q, skipping", env.Type)
		return nil
	}

	if _, err := w.broker.Publish(ctx, topic, job.Payload); err != nil {
		return err
	}
	w.logger.Infof("published %s to %q", env.Type, topic)
	return nil
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
