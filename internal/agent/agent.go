package agent

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/picar/internal/agent/hub"
	"github.com/autopeer-io/picar/internal/agent/server/grpc"
	"github.com/autopeer-io/picar/internal/agent/server/http"
	"github.com/autopeer-io/picar/internal/agent/storage"
	"github.com/autopeer-io/picar/internal/agent/watch"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/log"
)

// Server is anything the agent runs until its context is done.
type Server interface {
	Start(ctx context.Context) error
}

// ServerFunc adapts a function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Start(ctx context.Context) error { return f(ctx) }

// Agent owns the vehicle and every server built around it.
type Agent struct {
	vehicleID string
	vehicle   *car.Vehicle
	watcher   *watch.Hub
	hub       *hub.Hub
	servers   []Server
}

func newAgent(vid string, v *car.Vehicle, w *watch.Hub, h *hub.Hub) *Agent {
	return &Agent{
		vehicleID: vid,
		vehicle:   v,
		watcher:   w,
		hub:       h,
	}
}

func (a *Agent) setupServers(cfg *Config) error {
	a.servers = append(a.servers,
		ServerFunc(a.vehicle.Run),
		http.NewServer(cfg.HttpOptions, a.vehicleID, a.vehicle, a.watcher, a.ready),
		grpc.NewServer(cfg.GrpcOptions, a.vehicle, a.watcher),
	)

	if a.hub != nil {
		a.servers = append(a.servers, a.hub)
	}

	if cfg.S3Options.Enabled {
		store, err := storage.NewMinIOProvider(cfg.S3Options)
		if err != nil {
			return fmt.Errorf("failed to init telemetry storage: %w", err)
		}
		a.servers = append(a.servers, storage.NewArchiver(a.vehicleID, store, a.watcher, cfg.S3Options.FlushInterval))
	}
	return nil
}

// ready fails while an enabled broker link is down.
func (a *Agent) ready() error {
	if a.hub != nil && !a.hub.IsConnected() {
		return errors.New("mqtt not connected")
	}
	return nil
}

// Vehicle exposes the car for tests and embedding.
func (a *Agent) Vehicle() *car.Vehicle {
	return a.vehicle
}

// Run starts every server and blocks until ctx is done or one of them
// fails. The motors are released on return.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("Starting picar agent", "vehicleID", a.vehicleID, "actions", a.vehicle.Actions())
	defer func() {
		if err := a.vehicle.Close(); err != nil {
			log.Error(err, "Failed to release hardware")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range a.servers {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	err := g.Wait()
	log.Info("Agent shutting down...")
	return err
}
