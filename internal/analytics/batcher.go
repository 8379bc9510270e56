// Package analytics batches usage events and delivers them to the ingestion
// endpoint. Delivery failures are swallowed: observability must never affect
// user-facing behavior.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one user-interaction event.
type Event struct {
	SessionID string         `json:"session_id"`
	Name      string         `json:"name"`
	Props     map[string]any `json:"props,omitempty"`
	Time      time.Time      `json:"ts"`
}

// Sender delivers a flushed batch.
type Sender interface {
	SendEvents(ctx context.Context, endpoint string, events any) error
}

type buffer struct {
	events []*Event
	timer  *time.Timer
}

// Batcher buffers events per session and flushes each buffer after a
// debounce window, or immediately once it reaches the batch cap.
type Batcher struct {
	sender   Sender
	endpoint string
	debounce time.Duration
	maxBatch int
	logger   *slog.Logger

	mu      sync.Mutex
	buffers map[string]*buffer
	stopped bool
}

// NewBatcher creates an analytics batcher. A zero debounce flushes every
// event immediately.
func NewBatcher(sender Sender, endpoint string, debounce time.Duration, maxBatch int, logger *slog.Logger) *Batcher {
	if maxBatch <= 0 {
		maxBatch = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		sender:   sender,
		endpoint: endpoint,
		debounce: debounce,
		maxBatch: maxBatch,
		logger:   logger.With("component", "analytics"),
		buffers:  map[string]*buffer{},
	}
}

// Track enqueues an event for delivery.
func (b *Batcher) Track(ev *Event) {
	if b == nil || ev == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	key := ev.SessionID

	if b.debounce <= 0 {
		b.mu.Unlock()
		b.deliver([]*Event{ev})
		return
	}

	buf, ok := b.buffers[key]
	if !ok {
		buf = &buffer{}
		buf.timer = time.AfterFunc(b.debounce, func() {
			b.FlushSession(key)
		})
		b.buffers[key] = buf
	} else if buf.timer != nil {
		buf.timer.Stop()
		buf.timer = time.AfterFunc(b.debounce, func() {
			b.FlushSession(key)
		})
	}
	buf.events = append(buf.events, ev)

	if len(buf.events) >= b.maxBatch {
		events := b.takeLocked(key, buf)
		b.mu.Unlock()
		b.deliver(events)
		return
	}
	b.mu.Unlock()
}

// FlushSession delivers all pending events for one session.
func (b *Batcher) FlushSession(sessionID string) {
	b.mu.Lock()
	buf, ok := b.buffers[sessionID]
	if !ok || b.stopped {
		b.mu.Unlock()
		return
	}
	events := b.takeLocked(sessionID, buf)
	b.mu.Unlock()
	b.deliver(events)
}

// takeLocked detaches the buffer's events and stops its timer.
// Must be called with b.mu held.
func (b *Batcher) takeLocked(key string, buf *buffer) []*Event {
	delete(b.buffers, key)
	if buf.timer != nil {
		buf.timer.Stop()
		buf.timer = nil
	}
	events := buf.events
	buf.events = nil
	return events
}

func (b *Batcher) deliver(events []*Event) {
	if len(events) == 0 || b.sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.sender.SendEvents(ctx, b.endpoint, events); err != nil {
		// Dropped on purpose; analytics never surfaces to the user.
		b.logger.Debug("analytics delivery failed", "count", len(events), "error", err)
	}
}

// Stop flushes everything pending and rejects further events.
func (b *Batcher) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	pending := make([][]*Event, 0, len(b.buffers))
	for key, buf := range b.buffers {
		pending = append(pending, b.takeLocked(key, buf))
	}
	b.stopped = true
	b.mu.Unlock()

	for _, events := range pending {
		b.deliver(events)
	}
}

// Pending returns the number of buffered events across all sessions.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, buf := range b.buffers {
		count += len(buf.events)
	}
	return count
}
