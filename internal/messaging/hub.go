package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

const subscriberBuffer = 256

// Hub is the in-process progress transport: every subscriber gets its own
// ordered event channel. The SSE endpoint subscribes here.
//
// The hub retains every event of the most recent run and replays it to new
// subscribers, so a client that starts a run and connects to the stream a
// moment later still sees the full history, terminal event included. A fast
// failure (input source unreachable) would otherwise fire before anyone is
// listening.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan domain.ProgressEvent]struct{}
	lastRun uuid.UUID
	history []domain.ProgressEvent
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan domain.ProgressEvent]struct{}),
	}
}

// Subscribe returns a channel of events and a cancel function. The retained
// history of the current run is replayed first, in order; the channel is
// closed when the subscription is cancelled.
func (h *Hub) Subscribe() (<-chan domain.ProgressEvent, func()) {
	h.mu.Lock()
	ch := make(chan domain.ProgressEvent, subscriberBuffer+len(h.history))
	for _, event := range h.history {
		ch <- event
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish retains the event and delivers it to every subscriber. A subscriber
// that stopped draining loses events rather than stalling the run. The first
// event of a new run evicts the previous run's history.
func (h *Hub) Publish(ctx context.Context, event domain.ProgressEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event.AggregateID() != h.lastRun {
		h.lastRun = event.AggregateID()
		h.history = h.history[:0]
	}
	h.history = append(h.history, event)
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}
