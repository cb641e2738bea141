package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		if !ok {
			t.Fatalf("channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return Message{}
	}
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	a := hub.Subscribe("user-1")
	b := hub.Subscribe("user-1")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(Event{Type: EventAssetUploaded, Folder: "user-1"})

	for _, c := range []*Client{a, b} {
		msg := recvMessage(t, c)
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Type != EventAssetUploaded {
			t.Fatalf("type = %q, want %q", evt.Type, EventAssetUploaded)
		}
		if evt.Seq != 1 {
			t.Fatalf("seq = %d, want 1", evt.Seq)
		}
		if evt.Folder != "user-1" {
			t.Fatalf("folder = %q, want user-1", evt.Folder)
		}
	}
}

func TestHubSequenceIncreases(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := hub.Subscribe("user-1")
	defer hub.Unsubscribe(c)

	hub.Publish(Event{Type: EventAssetUploaded})
	hub.Publish(Event{Type: EventAssetDeleted})

	first := recvMessage(t, c)
	second := recvMessage(t, c)
	if second.Seq != first.Seq+1 {
		t.Fatalf("seq = %d after %d, want consecutive", second.Seq, first.Seq)
	}
}

func TestHubSubscribeFromReplaysBacklog(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	hub.Publish(Event{Type: EventAssetUploaded})
	hub.Publish(Event{Type: EventAssetDeleted})
	hub.Publish(Event{Type: EventPartUpdated})

	c, backlog := hub.SubscribeFrom("user-1", 1)
	defer hub.Unsubscribe(c)

	if len(backlog) != 2 {
		t.Fatalf("backlog length = %d, want 2", len(backlog))
	}
	if backlog[0].Seq != 2 || backlog[1].Seq != 3 {
		t.Fatalf("backlog seqs = %d,%d, want 2,3", backlog[0].Seq, backlog[1].Seq)
	}
}

func TestHubScopesEventsToSubscriberFolder(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := hub.Subscribe("user-1")
	defer hub.Unsubscribe(c)

	hub.Publish(Event{Type: EventAssetUploaded, Folder: "user-2"})
	hub.Publish(Event{Type: EventAssetUploaded, Folder: "user-1"})

	msg := recvMessage(t, c)
	if msg.Folder != "user-1" {
		t.Fatalf("received event for folder %q, want user-1", msg.Folder)
	}

	select {
	case extra := <-c.Messages():
		t.Fatalf("received foreign-folder event: %+v", extra)
	default:
	}
}

func TestHubBacklogScopedToSubscriberFolder(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	hub.Publish(Event{Type: EventAssetUploaded, Folder: "user-1"})
	hub.Publish(Event{Type: EventAssetUploaded, Folder: "user-2"})
	hub.Publish(Event{Type: EventAssetDeleted, Folder: "user-1"})

	c, backlog := hub.SubscribeFrom("user-1", 0)
	hub.Unsubscribe(c)
	if len(backlog) != 0 {
		t.Fatalf("backlog without afterSeq = %d messages, want 0", len(backlog))
	}

	c, backlog = hub.SubscribeFrom("user-1", 1)
	defer hub.Unsubscribe(c)
	if len(backlog) != 1 {
		t.Fatalf("backlog length = %d, want 1", len(backlog))
	}
	if backlog[0].Seq != 3 || backlog[0].Folder != "user-1" {
		t.Fatalf("backlog = %+v, want seq 3 for user-1", backlog[0])
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := hub.Subscribe("user-1")
	hub.Unsubscribe(c)
	hub.Unsubscribe(c) // second call is a no-op

	if _, ok := <-c.Messages(); ok {
		t.Fatalf("expected closed channel")
	}
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := hub.Subscribe("user-1")
	defer hub.Unsubscribe(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			hub.Publish(Event{Type: EventAssetUploaded})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on slow consumer")
	}
}
