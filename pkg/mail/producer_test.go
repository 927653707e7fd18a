package mail

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/taranpreet09/Event-Management-System/pkg/queue"
)

func TestEnqueueRegistrationConfirmation(t *testing.T) {
	q := queue.NewMemoryQueue()
	p := NewProducer(q)

	err := p.EnqueueRegistrationConfirmation(context.Background(), "ana@example.com", "Ana", "GopherCon")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := q.Dequeue(context.Background(), queue.EmailQueueKey, time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("no job enqueued")
	}

	var payload Payload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Email != "ana@example.com" {
		t.Errorf("email = %q", payload.Email)
	}
	if !strings.Contains(payload.Subject, "GopherCon") {
		t.Errorf("subject = %q", payload.Subject)
	}
	if !strings.Contains(payload.HTML, "Ana") || !strings.Contains(payload.Text, "Ana") {
		t.Errorf("body missing user name: html=%q text=%q", payload.HTML, payload.Text)
	}
}
