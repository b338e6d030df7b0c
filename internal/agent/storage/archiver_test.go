package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/picar/internal/agent/watch"
	"github.com/autopeer-io/picar/internal/car"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) CheckBucket(context.Context) error { return nil }

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

func TestObjectKey(t *testing.T) {
	got := ObjectKey("car-1", time.Unix(1700000000, 0))
	if got != "telemetry/car-1/1700000000.json" {
		t.Errorf("ObjectKey() = %q", got)
	}
}

func TestFlushWritesBatch(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	store := newMemStore()
	a := NewArchiver("car-1", store, watch.NewHub(), time.Minute, WithClock(mock))

	a.record(car.Snapshot{Status: car.Forward, StatusText: "前进", Humidity: 44, Temperature: 20})
	a.record(car.Snapshot{Status: car.Stopped, StatusText: "停止", Humidity: 44, Temperature: 20})

	if err := a.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.Pending() != 0 {
		t.Errorf("Pending() = %d after flush", a.Pending())
	}

	body, ok := store.get("telemetry/car-1/1700000000.json")
	if !ok {
		t.Fatal("batch not written")
	}
	var got Batch
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	statuses := []car.Status{}
	for _, r := range got.Records {
		statuses = append(statuses, r.Status)
	}
	if diff := cmp.Diff([]car.Status{car.Forward, car.Stopped}, statuses); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushFailureKeepsRecords(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("connection refused")
	a := NewArchiver("car-1", store, watch.NewHub(), time.Minute, WithClock(clock.NewMock()))

	a.record(car.Snapshot{Status: car.Backward})
	if err := a.Flush(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if a.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", a.Pending())
	}

	// Empty buffer is a no-op.
	store.fail = nil
	if err := a.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := a.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestStartFlushesOnShutdown(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000100, 0))
	store := newMemStore()
	hub := watch.NewHub()
	a := NewArchiver("car-2", store, hub, time.Hour, WithClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	for deadline := time.Now().Add(2 * time.Second); hub.Len() == 0 && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
	}
	hub.OnChanged(car.Snapshot{Status: car.TurnLeft})
	for deadline := time.Now().Add(2 * time.Second); a.Pending() == 0 && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, ok := store.get("telemetry/car-2/1700000100.json"); !ok {
		t.Error("final flush not written")
	}
}
