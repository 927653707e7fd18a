package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taranpreet09/Event-Management-System/pkg/auth"
	"github.com/taranpreet09/Event-Management-System/pkg/broker"
	"github.com/taranpreet09/Event-Management-System/pkg/notify"
	"github.com/taranpreet09/Event-Management-System/pkg/queue"
	"github.com/taranpreet09/Event-Management-System/pkg/realtime"
	"github.com/taranpreet09/Event-Management-System/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *queue.MemoryQueue, *auth.JWTVerifier) {
	t.Helper()

	verifier := auth.NewJWTVerifier("api-test-secret")
	q := queue.NewMemoryQueue()
	gw := realtime.NewGateway(realtime.Config{
		Verifier: verifier,
		Store:    store.NewMemoryStore(),
		Broker:   broker.NewMemoryBroker(),
	}, realtime.NewRegistry())

	srv := NewServer(gw, notify.NewProducer(q), verifier)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	ts := httptest.NewServer(CorsMiddleware(mux))
	t.Cleanup(ts.Close)
	return ts, q, verifier
}

func postBroadcast(t *testing.T, ts *httptest.Server, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/broadcast", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.Version == "" {
		t.Errorf("health = %+v", health)
	}
}

func TestBroadcastRequiresToken(t *testing.T) {
	ts, q, _ := newTestServer(t)

	resp := postBroadcast(t, ts, "", BroadcastRequest{Title: "T", Text: "X"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	assertQueueEmpty(t, q)
}

func TestBroadcastRequiresOrganizerRole(t *testing.T) {
	ts, q, verifier := newTestServer(t)

	token, err := verifier.Sign(auth.Identity{ID: "u1", Role: auth.RoleUser}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := postBroadcast(t, ts, token, BroadcastRequest{Title: "T", Text: "X"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	assertQueueEmpty(t, q)
}

func TestBroadcastValidatesBody(t *testing.T) {
	ts, q, verifier := newTestServer(t)

	token, err := verifier.Sign(auth.Identity{ID: "org1", Role: auth.RoleOrganizer}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := postBroadcast(t, ts, token, BroadcastRequest{Title: "", Text: "X"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	assertQueueEmpty(t, q)
}

func TestBroadcastEnqueuesJob(t *testing.T) {
	ts, q, verifier := newTestServer(t)

	token, err := verifier.Sign(auth.Identity{ID: "org1", Role: auth.RoleOrganizer, Name: "Ana"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := postBroadcast(t, ts, token, BroadcastRequest{Title: "T", Text: "X"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	job, err := q.Dequeue(context.Background(), queue.NotificationQueueKey, time.Second)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("no job enqueued")
	}
	var b notify.Broadcast
	if err := json.Unmarshal(job.Payload, &b); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if b.Type != notify.TypeBroadcastMessage {
		t.Errorf("type = %q", b.Type)
	}
	if b.Payload.Title != "T" || b.Payload.Text != "X" || b.Payload.OrganizerID != "org1" {
		t.Errorf("payload = %+v", b.Payload)
	}
	if b.Payload.ID == "" {
		t.Error("broadcast ID not assigned")
	}
}

func TestCorsPreflight(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/broadcast", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}

func assertQueueEmpty(t *testing.T, q *queue.MemoryQueue) {
	t.Helper()
	job, err := q.Dequeue(context.Background(), queue.NotificationQueueKey, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job != nil {
		t.Fatalf("unexpected job enqueued: %s", job.Payload)
	}
}
