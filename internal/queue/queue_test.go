package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume init failed: %v", err)
	}

	want := Message{Type: "verify", Body: []byte("admin1/attendance_P100_2026-08-31_09-15-00.jpg")}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-messages:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Publish(ctx, Message{Type: "verify"}); err == nil {
		t.Error("expected publish to fail on cancelled context")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: "verify", Body: []byte("a/b|c.jpg")}
	got, err := deserialize(serialize(msg))
	if err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if got.Type != msg.Type {
		t.Errorf("Type = %q, want %q", got.Type, msg.Type)
	}
	if string(got.Body) != string(msg.Body) {
		t.Errorf("Body = %q, want %q", got.Body, msg.Body)
	}
}
