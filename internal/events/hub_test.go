package events

import (
	"testing"
	"time"
)

func TestHubPublishAndSubscribe(t *testing.T) {
	hub := NewHub()

	sub, cancel := hub.Subscribe()
	defer cancel()

	if hub.Subscribers() != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.Subscribers())
	}

	hub.Publish(Event{Type: TypeReceived, UserID: "u1", QuestID: "q1"})

	select {
	case e := <-sub:
		if e.Type != TypeReceived || e.UserID != "u1" || e.QuestID != "q1" {
			t.Errorf("unexpected event: %+v", e)
		}
		if e.Time.IsZero() {
			t.Error("publish should stamp a missing time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubFansOut(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	hub.Publish(Event{Type: TypeScored, UserID: "u1"})

	for i, sub := range []<-chan Event{first, second} {
		select {
		case e := <-sub:
			if e.Type != TypeScored {
				t.Errorf("subscriber %d: unexpected event %+v", i, e)
			}
		default:
			t.Errorf("subscriber %d: event not delivered", i)
		}
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()

	sub, cancel := hub.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; Publish must never block
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Type: TypeDecided, UserID: "u1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if len(sub) == 0 {
		t.Error("expected at least the buffered events to be delivered")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()
	cancel()
	cancel() // second call must not panic on the closed channel

	if hub.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers after cancel, got %d", hub.Subscribers())
	}

	// Publishing with no subscribers is a no-op
	hub.Publish(Event{Type: TypeApplied})
}
