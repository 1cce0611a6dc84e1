package sse

import (
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventGateLocked, Data: map[string]string{}})

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: gate.locked") {
			t.Errorf("missing event type in %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestItemEventCarriesID(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishItemEvent(EventItemUpdated, 42)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: item.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":42`) {
			t.Errorf("missing id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestItemEventThrottlesTreeUpdates(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event triggers tree.updated; the immediate second one must not.
	b.PublishItemEvent(EventItemCreated, 1)
	b.PublishItemEvent(EventItemUpdated, 2)

	time.Sleep(50 * time.Millisecond)
	treeCount := 0
	itemCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "tree.updated") {
				treeCount++
			} else {
				itemCount++
			}
		default:
			break loop
		}
	}

	if itemCount != 2 {
		t.Errorf("item events = %d, want 2", itemCount)
	}
	if treeCount != 1 {
		t.Errorf("tree.updated events = %d, want 1", treeCount)
	}
}
