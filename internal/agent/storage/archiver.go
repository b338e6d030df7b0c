package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/internal/pkg/metrics"
	"github.com/autopeer-io/picar/pkg/log"
)

// maxBuffered caps the snapshots held between flushes. The oldest are
// dropped first when the store is unreachable for long.
const maxBuffered = 4096

// Record is one archived snapshot.
type Record struct {
	Time time.Time `json:"time"`
	car.Snapshot
}

// Batch is the object body written on every flush.
type Batch struct {
	VehicleID string   `json:"vehicle_id"`
	Records   []Record `json:"records"`
}

// Archiver buffers every snapshot and uploads the buffer as one JSON object
// per interval under telemetry/{vehicleID}/{unix}.json.
type Archiver struct {
	vehicleID string
	store     Provider
	watcher   core.Watcher
	interval  time.Duration
	clock     clock.Clock

	mu      sync.Mutex
	pending []Record
}

type ArchiverOption func(*Archiver)

func WithClock(c clock.Clock) ArchiverOption {
	return func(a *Archiver) { a.clock = c }
}

func NewArchiver(vid string, store Provider, w core.Watcher, interval time.Duration, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		vehicleID: vid,
		store:     store,
		watcher:   w,
		interval:  interval,
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ObjectKey returns the key a batch flushed at t is stored under.
func ObjectKey(vid string, t time.Time) string {
	return fmt.Sprintf("telemetry/%s/%d.json", vid, t.Unix())
}

// Start records snapshots and flushes on every tick. A final flush runs on
// shutdown.
func (a *Archiver) Start(ctx context.Context) error {
	if err := a.store.CheckBucket(ctx); err != nil {
		return err
	}

	sub := a.watcher.Subscribe()
	defer sub.Close()

	ticker := a.clock.Ticker(a.interval)
	defer ticker.Stop()

	log.Info("Telemetry archive started", "interval", a.interval)
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Flush(flushCtx); err != nil {
				log.Error(err, "Final telemetry flush failed")
			}
			return nil
		case snap := <-sub.C():
			a.record(snap)
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				log.Error(err, "Telemetry flush failed, will retry")
			}
		}
	}
}

func (a *Archiver) record(s car.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = append(a.pending, Record{Time: a.clock.Now().UTC(), Snapshot: s})
	if over := len(a.pending) - maxBuffered; over > 0 {
		a.pending = append(a.pending[:0], a.pending[over:]...)
	}
}

// Pending returns the number of buffered records.
func (a *Archiver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Flush uploads buffered records. On failure they stay buffered.
func (a *Archiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := a.pending
	a.pending = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	body, err := json.Marshal(Batch{VehicleID: a.vehicleID, Records: batch})
	if err != nil {
		return err
	}

	key := ObjectKey(a.vehicleID, a.clock.Now())
	start := time.Now()
	err = a.store.Put(ctx, key, body, "application/json")
	metrics.ArchiveUploadLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ArchiveUploadTotal.WithLabelValues("failed").Inc()
		a.requeue(batch)
		return err
	}

	metrics.ArchiveUploadTotal.WithLabelValues("success").Inc()
	log.Debug("Telemetry archived", "key", key, "records", len(batch))
	return nil
}

func (a *Archiver) requeue(batch []Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = append(batch, a.pending...)
	if over := len(a.pending) - maxBuffered; over > 0 {
		a.pending = a.pending[over:]
	}
}
