package sink

import (
	"fmt"
	"testing"
	"time"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	h.Emit("styled", "plain line")

	for i, sub := range []<-chan string{sub1, sub2} {
		select {
		case line := <-sub:
			if line != "plain line" {
				t.Errorf("subscriber %d: expected plain rendering, got %q", i, line)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestHubSlowConsumerDrops(t *testing.T) {
	h := NewHub()
	defer h.Close()

	// Subscribe but never read — the buffer fills and later lines drop.
	_ = h.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Emit("", fmt.Sprintf("line %d", i))
	}

	if h.Dropped() == 0 {
		t.Error("expected drops for a saturated subscriber")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", h.Subscribers())
	}

	h.Unsubscribe(sub)
	if h.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", h.Subscribers())
	}
	if _, open := <-sub; open {
		t.Error("unsubscribed channel should be closed")
	}

	// Emitting after unsubscribe must not panic or drop.
	h.Emit("", "line")
	if h.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", h.Dropped())
	}
}

func TestHubCloseStopsEmit(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()

	h.Close()
	if _, open := <-sub; open {
		t.Error("close should close subscriber channels")
	}
	h.Emit("", "after close") // must be a no-op
}
