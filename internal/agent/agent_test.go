package agent

import (
	"context"
	"testing"
	"time"

	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/internal/hal"
	"github.com/autopeer-io/picar/pkg/options"
)

func testConfig() *Config {
	cfg := &Config{
		HttpOptions:    options.NewHttpOptions(),
		GrpcOptions:    options.NewGrpcOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		VehicleOptions: options.NewVehicleOptions(),
	}
	cfg.HttpOptions.Addr = "127.0.0.1:0"
	cfg.GrpcOptions.Addr = "127.0.0.1:0"
	cfg.VehicleOptions.Simulate = true
	return cfg
}

func newTestAgent(t *testing.T, cfg *Config) *Agent {
	t.Helper()
	hc := hal.Config{
		LeftPins:      []car.PinPair{{17, 18}, {22, 23}},
		RightPins:     []car.PinPair{{5, 6}, {13, 19}},
		RightInverted: true,
	}
	a, err := cfg.newAgent("car-test", hal.NewSimulatedProviderWithSeed(hc, 1))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAgentServers(t *testing.T) {
	a := newTestAgent(t, testConfig())
	// vehicle, http, grpc
	if len(a.servers) != 3 {
		t.Errorf("servers = %d, want 3", len(a.servers))
	}
	if a.hub != nil {
		t.Error("mqtt hub built while disabled")
	}
	if err := a.ready(); err != nil {
		t.Errorf("ready() = %v", err)
	}

	cfg := testConfig()
	cfg.MqttOptions.Enabled = true
	a = newTestAgent(t, cfg)
	if a.hub == nil || len(a.servers) != 4 {
		t.Fatalf("mqtt hub not wired: servers = %d", len(a.servers))
	}
	if err := a.ready(); err == nil {
		t.Error("ready() = nil before the broker connected")
	}
}

func TestAgentRunHaltsOnShutdown(t *testing.T) {
	a := newTestAgent(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	if err := a.Vehicle().DoAction(car.ActionForward); err != nil {
		t.Fatal(err)
	}
	left, right := a.Vehicle().Sides()
	if !left.IsActive() || !right.IsActive() {
		t.Fatal("sides idle after forward")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return")
	}
	if left.IsActive() || right.IsActive() {
		t.Error("motors still driven after shutdown")
	}
}

func TestNewProviderRejectsBadPins(t *testing.T) {
	cfg := testConfig()
	cfg.VehicleOptions.LeftPins = []string{"17:x"}
	if _, err := cfg.newProvider(); err == nil {
		t.Error("expected pin parse error")
	}
}
