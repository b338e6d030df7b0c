package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/picar/pkg/log"
	"github.com/autopeer-io/picar/pkg/mqtt"
	"github.com/autopeer-io/picar/pkg/mqtt/topic"
)

// ExampleClient shows the usual lifecycle: configure, start in the
// background, subscribe, wait for the broker and publish.
func ExampleClient() {
	topics := topic.NewBuilder("picar/v1")

	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "picar-car-001",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,

		// Retained offline marker, replaced by "online" once connected.
		WillTopic:   topics.Build("online", "car-001"),
		WillPayload: []byte(`{"online":false}`),
		WillQoS:     1,
		WillRetain:  true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; connecting and reconnecting happen in the
	// background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	// Subscriptions are replayed after every reconnect.
	onCommand := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("command on %s: %s\n", topic, payload)
	}
	if err := client.Subscribe(ctx, topics.Build("command", "car-001"), 1, onCommand); err != nil {
		log.Error(err, "Failed to subscribe")
	}

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	state := []byte(`{"status":"stopped","status_text":"停止","humidity":44,"temperature":20}`)
	if err := client.Publish(ctx, topics.Build("state", "car-001"), 1, true, state); err != nil {
		log.Error(err, "Failed to publish state")
	}

	client.Disconnect(ctx)
}
