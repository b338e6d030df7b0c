package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/autopeer-io/picar/internal/agent/watch"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/options"
)

type fakeVehicle struct {
	mu     sync.Mutex
	status car.Status
	failOn string
}

func (v *fakeVehicle) Info() car.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return car.Snapshot{Status: v.status, StatusText: v.status.Label(), Humidity: 44, Temperature: 20}
}

func (v *fakeVehicle) DoAction(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if name == v.failOn {
		return errors.New("gpio busy")
	}
	if s, err := car.ParseStatus(name); err == nil {
		v.status = s
	}
	return nil
}

func (v *fakeVehicle) IsAction(name string) bool {
	for _, a := range v.Actions() {
		if a == name {
			return true
		}
	}
	return false
}

func (v *fakeVehicle) Actions() []string {
	return []string{"backward", "forward", "stop", "turnleft", "turnright", "turnstop"}
}

func (v *fakeVehicle) Visualize() string { return "" }

func newTestClient(t *testing.T) (*Client, *fakeVehicle, *watch.Hub) {
	t.Helper()

	v := &fakeVehicle{}
	hub := watch.NewHub()
	srv := NewServer(options.NewGrpcOptions(), v, hub)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	c, err := Dial("passthrough:///bufnet", time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return c, v, hub
}

func TestInfoAndDoAction(t *testing.T) {
	c, v, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.DoAction(ctx, "forward"); err != nil {
		t.Fatal(err)
	}
	got, err := c.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := car.Snapshot{Status: car.Forward, StatusText: "前进", Humidity: 44, Temperature: 20}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}

	if err := c.DoAction(ctx, "jump"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("unknown action code = %v, want InvalidArgument", status.Code(err))
	}

	v.mu.Lock()
	v.failOn = "stop"
	v.mu.Unlock()
	if err := c.DoAction(ctx, "stop"); status.Code(err) != codes.Internal {
		t.Errorf("failed action code = %v, want Internal", status.Code(err))
	}
}

func TestWatch(t *testing.T) {
	c, _, hub := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan car.Snapshot, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Watch(ctx, func(s car.Snapshot) error {
			got <- s
			return nil
		})
	}()

	first := <-got
	if first.Status != car.Stopped {
		t.Fatalf("first snapshot = %+v, want stopped", first)
	}

	changed := car.Snapshot{Status: car.TurnLeft, StatusText: "左转", Humidity: 45, Temperature: 21}
	deadline := time.After(3 * time.Second)
	for {
		hub.OnChanged(changed)
		select {
		case s := <-got:
			if s == changed {
				cancel()
				if err := <-errCh; err != nil {
					t.Errorf("Watch() error = %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("change not streamed")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestSnapshotStructRoundTrip(t *testing.T) {
	in := car.Snapshot{Status: car.Backward, StatusText: "后退", Humidity: 43.2, Temperature: -3.5}
	st, err := SnapshotToStruct(in)
	if err != nil {
		t.Fatal(err)
	}
	if st.GetFields()["status"].GetStringValue() != "backward" {
		t.Errorf("status field = %v", st.GetFields()["status"])
	}
	out, err := StructToSnapshot(st)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestWatchSendsInitialSnapshotOnce(t *testing.T) {
	c, v, hub := newTestClient(t)
	hub.OnChanged(v.Info())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var got []car.Snapshot
	if err := c.Watch(ctx, func(s car.Snapshot) error {
		got = append(got, s)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("received %d snapshots, want 1", len(got))
	}
}
