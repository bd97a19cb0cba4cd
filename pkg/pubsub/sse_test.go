package pubsub

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicBuildStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if err := pub.Publish(TopicBuildStatus, "built", BuildStatus{State: "ready"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Type != "built" {
			t.Errorf("event type = %q, want %q", event.Type, "built")
		}
		if event.Version != 1 {
			t.Errorf("event version = %d, want 1", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestLateSubscriberGetsLastEvent(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	for i := 0; i < 3; i++ {
		if err := pub.Publish(TopicDescription, "built", map[string]int{"build": i}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicDescription)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("replayed version = %d, want 3 (only the last event)", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for replayed event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("unexpected second replayed event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionCloseUnsubscribes(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx := context.Background()
	sub, err := pub.Subscribe(ctx, TopicBuildStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Close()

	// Publishing after close must not panic or deliver.
	if err := pub.Publish(TopicBuildStatus, "built", nil); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicBuildStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	cancel()

	// Unsubscription is asynchronous; poll until the publisher dropped it.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		pub.mu.RLock()
		_, present := pub.subs[TopicBuildStatus][sub.(*sseSubscription).id]
		pub.mu.RUnlock()
		if !present {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("subscription not removed after context cancellation")
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	pub.Close()

	if err := pub.Publish(TopicBuildStatus, "built", nil); err == nil {
		t.Error("expected error publishing on closed publisher")
	}
	if _, err := pub.Subscribe(context.Background(), TopicBuildStatus); err == nil {
		t.Error("expected error subscribing on closed publisher")
	}
}

func TestWriteSSEFormat(t *testing.T) {
	var sb strings.Builder
	event := Event{Topic: TopicBuildStatus, Type: "built", Version: 1}
	if err := WriteSSE(&sb, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := sb.String()
	if !strings.HasPrefix(out, "data: ") || !strings.HasSuffix(out, "\n\n") {
		t.Errorf("bad SSE framing: %q", out)
	}
}
