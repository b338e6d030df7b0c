package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/pkg/metrics"
	"github.com/autopeer-io/picar/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/picar/pkg/log"
	"github.com/autopeer-io/picar/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/picar/pkg/mqtt/topic"
)

var events = map[core.EventType]string{
	core.EventCommand: paths.Command,
	core.EventState:   paths.State,
	core.EventOnline:  paths.Online,
}

// Hub bridges the vehicle to an MQTT broker: snapshots go out retained on
// the state topic and actions come in on the command topic.
type Hub struct {
	vehicleID string

	mc      mqtt.Client
	topics  *mqtttopic.Builder
	vehicle core.Vehicle
	watcher core.Watcher
}

func New(vid string, client mqtt.Client, builder *mqtttopic.Builder, v core.Vehicle, w core.Watcher) *Hub {
	return &Hub{
		vehicleID: vid,
		mc:        client,
		topics:    builder,
		vehicle:   v,
		watcher:   w,
	}
}

// Topic returns the full topic of event for this vehicle.
func (b *Hub) Topic(event core.EventType) (string, error) {
	segment, ok := events[event]
	if !ok {
		return "", fmt.Errorf("unmapped event: %s", event)
	}
	return b.topics.Build(segment, b.vehicleID), nil
}

func (b *Hub) Send(ctx context.Context, event core.EventType, payload []byte) error {
	topic, err := b.Topic(event)
	if err != nil {
		return err
	}
	err = b.mc.Publish(ctx, topic, 1, true, payload)
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.MQTTPublishTotal.WithLabelValues(string(event), status).Inc()
	return err
}

func (b *Hub) SendJSON(ctx context.Context, event core.EventType, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Send(ctx, event, payload)
}

func (b *Hub) IsConnected() bool {
	return b.mc.IsConnected()
}

// OfflineMessage is the payload registered as the client's will.
func OfflineMessage(vid string) []byte {
	// No timestamp: the will is published long after it was composed.
	payload, _ := json.Marshal(core.OnlineMessage{VehicleID: vid, Online: false, Reason: "UnexpectedDisconnect"})
	return payload
}

// Start connects, announces presence, subscribes to commands and then
// publishes every snapshot until ctx is done.
func (b *Hub) Start(ctx context.Context) error {
	if err := b.mc.Start(ctx); err != nil {
		return err
	}
	defer b.stop()

	log.Info("Waiting for MQTT connection...")
	if err := b.mc.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := b.announce(ctx, true, ""); err != nil {
		log.Error(err, "Failed to publish online marker")
	}

	cmdTopic, _ := b.Topic(core.EventCommand)
	if err := b.mc.Subscribe(ctx, cmdTopic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", cmdTopic, err)
	}

	sub := b.watcher.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-sub.C():
			if err := b.SendJSON(ctx, core.EventState, snap); err != nil && ctx.Err() == nil {
				log.Error(err, "Failed to publish state", "status", snap.Status)
			}
		}
	}
}

func (b *Hub) handleCommand(ctx context.Context, topic string, payload []byte) {
	action, err := core.ParseCommand(payload)
	if err != nil {
		log.Warn("Dropping malformed command", "topic", topic, "err", err)
		return
	}
	log.Info("Received MQTT command", "action", action)
	if err := b.vehicle.DoAction(action); err != nil {
		log.Error(err, "Command failed", "action", action)
	}
}

func (b *Hub) announce(ctx context.Context, online bool, reason string) error {
	return b.SendJSON(ctx, core.EventOnline, core.OnlineMessage{
		VehicleID: b.vehicleID,
		Online:    online,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	})
}

func (b *Hub) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if b.mc.IsConnected() {
		if err := b.announce(ctx, false, "Shutdown"); err != nil {
			log.Error(err, "Failed to publish offline marker")
		}
	}
	log.Info("Disconnecting MQTT client...")
	b.mc.Disconnect(ctx)
}
