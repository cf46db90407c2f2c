package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"venturelens/internal/store"
)

func TestRedisPublisherAppendsTransitions(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	publisher, err := NewRedisPublisher(mr.Addr(), "state-transitions", 0)
	if err != nil {
		t.Fatalf("new publisher failed: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	event := store.Event{
		Name:   "report_fetch_failure",
		Domain: "trends",
		Fields: map[string]string{"error": "The market analysis could not be completed at this time."},
		At:     time.Now().UTC(),
	}
	if err := publisher.PublishTransition(ctx, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rows, err := client.XRange(ctx, "state-transitions", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 stream row, got %d", len(rows))
	}
	if rows[0].Values["name"] != "report_fetch_failure" || rows[0].Values["domain"] != "trends" {
		t.Fatalf("unexpected row values: %+v", rows[0].Values)
	}
}

func TestRedisPublisherRedactsSensitiveFields(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	publisher, err := NewRedisPublisher(mr.Addr(), "state-transitions", 0)
	if err != nil {
		t.Fatalf("new publisher failed: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	event := store.Event{
		Name:   "login_failure",
		Domain: "auth",
		Fields: map[string]string{
			"error":   "login rejected for user@example.com",
			"api_key": "AIzaSySecretSecretSecret",
		},
		At: time.Now().UTC(),
	}
	if err := publisher.PublishTransition(ctx, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rows, err := client.XRange(ctx, "state-transitions", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	values := rows[0].Values
	if values["field:api_key"] != "<redacted>" {
		t.Fatalf("sensitive key not redacted: %v", values["field:api_key"])
	}
	if errorValue, _ := values["field:error"].(string); errorValue != "login rejected for <email>" {
		t.Fatalf("email not masked: %v", values["field:error"])
	}
}

func TestRedisPublisherRefusesWrongKeyType(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Set(ctx, "state-transitions", "not-a-stream", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	publisher, err := NewRedisPublisher(mr.Addr(), "state-transitions", 0)
	if err != nil {
		t.Fatalf("new publisher failed: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	if err := publisher.PublishTransition(ctx, store.Event{Name: "x"}); err == nil {
		t.Fatal("expected error for wrong key type")
	}
}

func TestRedisPublisherTrimBoundsStream(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	publisher, err := NewRedisPublisher(mr.Addr(), "state-transitions", 3)
	if err != nil {
		t.Fatalf("new publisher failed: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	for i := 0; i < 10; i++ {
		if err := publisher.PublishTransition(ctx, store.Event{Name: "tick", At: time.Now().UTC()}); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	if _, err := publisher.Trim(ctx); err != nil {
		t.Fatalf("trim failed: %v", err)
	}

	depth, err := publisher.StreamDepth(ctx)
	if err != nil {
		t.Fatalf("stream depth failed: %v", err)
	}
	if depth != 3 {
		t.Fatalf("expected stream trimmed to 3, got %d", depth)
	}
}

func TestRedactFieldValue(t *testing.T) {
	if got := redactFieldValue("password", "hunter2"); got != "<redacted>" {
		t.Fatalf("password key must redact wholesale, got %q", got)
	}
	if got := redactFieldValue("message", "contact admin@example.com now"); got != "contact <email> now" {
		t.Fatalf("email must be masked, got %q", got)
	}
	if got := redactFieldValue("message", "card 4111111111111111 charged"); got == "card 4111111111111111 charged" {
		t.Fatal("long digit runs must be masked")
	}
}
