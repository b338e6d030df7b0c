package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/agent/watch"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/picar/pkg/mqtt/topic"
)

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	pubs      []published
	handlers  map[string]mqtt.MessageHandler
	pubCh     chan published
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]mqtt.MessageHandler{}, pubCh: make(chan published, 32)}
}

func (c *fakeClient) Start(context.Context) error { return nil }

func (c *fakeClient) Disconnect(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Publish(_ context.Context, topic string, _ int, retain bool, payload []byte) error {
	p := published{topic: topic, retain: retain, payload: payload}
	c.mu.Lock()
	c.pubs = append(c.pubs, p)
	c.mu.Unlock()
	c.pubCh <- p
	return nil
}

func (c *fakeClient) Subscribe(_ context.Context, topic string, _ int, h mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
	return nil
}

func (c *fakeClient) Unsubscribe(context.Context, string) error { return nil }

func (c *fakeClient) AwaitConnection(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) handler(topic string) mqtt.MessageHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[topic]
}

type fakeVehicle struct {
	mu      sync.Mutex
	actions []string
}

func (v *fakeVehicle) Info() car.Snapshot { return car.Snapshot{} }
func (v *fakeVehicle) IsAction(string) bool { return true }
func (v *fakeVehicle) Actions() []string   { return nil }
func (v *fakeVehicle) Visualize() string   { return "" }

func (v *fakeVehicle) DoAction(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actions = append(v.actions, name)
	return nil
}

func (v *fakeVehicle) done() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.actions...)
}

func nextOn(t *testing.T, c *fakeClient, topic string) published {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p := <-c.pubCh:
			if p.topic == topic {
				return p
			}
		case <-timeout:
			t.Fatalf("nothing published on %s", topic)
		}
	}
}

func TestHubBridgesStateAndCommands(t *testing.T) {
	client := newFakeClient()
	watcher := watch.NewHub()
	vehicle := &fakeVehicle{}
	h := New("car-1", client, mqtttopic.NewBuilder("picar/v1"), vehicle, watcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	online := nextOn(t, client, "picar/v1/online/car-1")
	var msg core.OnlineMessage
	if err := json.Unmarshal(online.payload, &msg); err != nil || !msg.Online || !online.retain {
		t.Fatalf("online marker = %s (retain %v), err %v", online.payload, online.retain, err)
	}

	watcher.OnChanged(car.Snapshot{Status: car.Forward, StatusText: car.Forward.Label(), Humidity: 44, Temperature: 20})
	state := nextOn(t, client, "picar/v1/state/car-1")
	var got map[string]any
	if err := json.Unmarshal(state.payload, &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "forward" || got["status_text"] != "前进" {
		t.Errorf("state payload = %s", state.payload)
	}

	var handler mqtt.MessageHandler
	for deadline := time.Now().Add(2 * time.Second); handler == nil && time.Now().Before(deadline); {
		handler = client.handler("picar/v1/command/car-1")
		time.Sleep(time.Millisecond)
	}
	if handler == nil {
		t.Fatal("command topic not subscribed")
	}
	handler(ctx, "picar/v1/command/car-1", []byte(`{"action":"turnleft"}`))
	handler(ctx, "picar/v1/command/car-1", []byte(`{"action":`))
	handler(ctx, "picar/v1/command/car-1", []byte("stop"))
	if acts := vehicle.done(); len(acts) != 2 || acts[0] != "turnleft" || acts[1] != "stop" {
		t.Errorf("actions = %v, want [turnleft stop]", acts)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	offline := nextOn(t, client, "picar/v1/online/car-1")
	if err := json.Unmarshal(offline.payload, &msg); err != nil || msg.Online {
		t.Errorf("offline marker = %s", offline.payload)
	}
}

func TestOfflineMessage(t *testing.T) {
	var msg core.OnlineMessage
	if err := json.Unmarshal(OfflineMessage("car-9"), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.VehicleID != "car-9" || msg.Online || msg.Timestamp != 0 {
		t.Errorf("OfflineMessage = %+v", msg)
	}
}
