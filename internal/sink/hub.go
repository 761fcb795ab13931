package sink

import (
	"log"
	"sync"
)

const subscriberBuffer = 1024

// Hub broadcasts plain log lines to all subscribers. Each subscriber gets a
// buffered channel; a full buffer drops the line for that subscriber only,
// so a slow consumer never stalls persistence or other subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[<-chan string]chan string
	dropped     int64
	closed      bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[<-chan string]chan string)}
}

// Subscribe returns a buffered channel that will receive every plain line
// emitted from now on.
func (h *Hub) Subscribe() <-chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subscribers[ch] = ch
	return ch
}

// Unsubscribe drops a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub <-chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(ch)
	}
}

// Dropped returns the total number of lines dropped for slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Subscribers returns the current fan-out set size.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Emit broadcasts the plain rendering to every subscriber without blocking.
func (h *Hub) Emit(_, plain string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- plain:
		default:
			h.dropped++
			log.Printf("hub: dropped line for slow consumer (total dropped: %d)", h.dropped)
		}
	}
}

// Close closes all subscriber channels; later Emit calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[<-chan string]chan string)
}
