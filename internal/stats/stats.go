package stats

import (
	"sync"
	"time"

	"mcptap/internal/model"
)

// Snapshot is a point-in-time view of one proxy session's traffic counters.
type Snapshot struct {
	Uptime       string           `json:"uptime"`
	Total        int64            `json:"total"`
	ByKind       map[string]int64 `json:"by_kind"`
	ByDirection  map[string]int64 `json:"by_direction"`
	DroppedLines int64            `json:"dropped_lines"`
	Subscribers  int              `json:"subscribers"`
}

// Collector counts observed protocol messages by kind and direction.
// droppedFn and subscribersFn provide live values from the fan-out hub.
type Collector struct {
	mu          sync.RWMutex
	start       time.Time
	total       int64
	byKind      map[string]int64
	byDirection map[string]int64
	dropped     func() int64
	subscribers func() int
}

// NewCollector creates a Collector. Nil funcs are allowed and report zero.
func NewCollector(droppedFn func() int64, subscribersFn func() int) *Collector {
	if droppedFn == nil {
		droppedFn = func() int64 { return 0 }
	}
	if subscribersFn == nil {
		subscribersFn = func() int { return 0 }
	}
	return &Collector{
		start:       time.Now(),
		byKind:      make(map[string]int64),
		byDirection: make(map[string]int64),
		dropped:     droppedFn,
		subscribers: subscribersFn,
	}
}

// Observe records one classified message.
func (c *Collector) Observe(dir model.Direction, kind model.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byKind[kind.String()]++
	c.byDirection[dir.Label()]++
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byKind := make(map[string]int64, len(c.byKind))
	for k, v := range c.byKind {
		byKind[k] = v
	}
	byDirection := make(map[string]int64, len(c.byDirection))
	for k, v := range c.byDirection {
		byDirection[k] = v
	}

	return Snapshot{
		Uptime:       time.Since(c.start).Truncate(time.Second).String(),
		Total:        c.total,
		ByKind:       byKind,
		ByDirection:  byDirection,
		DroppedLines: c.dropped(),
		Subscribers:  c.subscribers(),
	}
}
