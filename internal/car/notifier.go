package car

import (
	"context"
	"sync/atomic"

	"github.com/autopeer-io/picar/internal/pkg/metrics"
)

// Notifier is a single-slot coalescing signal with one consumer.
//
// Signal never blocks. While a signal is pending further signals are
// dropped, so memory stays bounded whatever the burst rate. The consumer
// computes fresh state on every wake-up, so coalesced signals still end in
// the latest state being delivered.
type Notifier struct {
	slot chan struct{}

	delivered atomic.Uint64
	coalesced atomic.Uint64
}

func NewNotifier() *Notifier {
	return &Notifier{slot: make(chan struct{}, 1)}
}

// Signal marks the state as changed. It reports false when the signal was
// absorbed by one already pending.
func (n *Notifier) Signal() bool {
	select {
	case n.slot <- struct{}{}:
		metrics.NotifierSignals.WithLabelValues("queued").Inc()
		return true
	default:
		n.coalesced.Add(1)
		metrics.NotifierSignals.WithLabelValues("coalesced").Inc()
		return false
	}
}

// Pending reports whether a signal is waiting for the consumer.
func (n *Notifier) Pending() bool {
	return len(n.slot) > 0
}

// Run consumes signals until ctx is done, calling deliver once per drained
// marker. It must be called by exactly one goroutine.
func (n *Notifier) Run(ctx context.Context, deliver func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-n.slot:
			deliver()
			n.delivered.Add(1)
			metrics.NotifierDeliveries.Inc()
		}
	}
}

// Stats returns how many deliveries ran and how many signals were absorbed.
func (n *Notifier) Stats() (delivered, coalesced uint64) {
	return n.delivered.Load(), n.coalesced.Load()
}
