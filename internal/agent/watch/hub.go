package watch

import (
	"sync"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/internal/pkg/metrics"
)

// Hub fans the vehicle's single change listener out to any number of
// subscribers. Each subscriber has a one-slot mailbox that always holds the
// newest snapshot, so a stalled subscriber never blocks the vehicle.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	latest car.Snapshot
	seen   bool
}

var (
	_ car.Listener = (*Hub)(nil)
	_ core.Watcher = (*Hub)(nil)
)

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// OnChanged implements car.Listener.
func (h *Hub) OnChanged(s car.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest, h.seen = s, true
	for sub := range h.subs {
		sub.offer(s)
	}
}

// Latest returns the last snapshot seen and whether there was one.
func (h *Hub) Latest() (car.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.seen
}

// Subscribe registers a subscriber. If a snapshot was already seen it is
// queued right away.
func (h *Hub) Subscribe() core.Subscription {
	sub := &subscription{hub: h, ch: make(chan car.Snapshot, 1)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	if h.seen {
		sub.offer(h.latest)
	}
	n := len(h.subs)
	h.mu.Unlock()

	metrics.WatchSubscribers.Set(float64(n))
	return sub
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	metrics.WatchSubscribers.Set(float64(n))
}

type subscription struct {
	hub  *Hub
	ch   chan car.Snapshot
	once sync.Once
}

func (s *subscription) C() <-chan car.Snapshot { return s.ch }

// Close unsubscribes. The channel is left open; readers stop on their own
// context.
func (s *subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// offer replaces any unread snapshot with s. Called with hub.mu held, which
// makes it the only sender.
func (s *subscription) offer(snap car.Snapshot) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}
