package agent

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/picar/internal/agent/hub"
	"github.com/autopeer-io/picar/internal/agent/watch"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/internal/hal"
	"github.com/autopeer-io/picar/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/picar/pkg/log"
	"github.com/autopeer-io/picar/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/picar/pkg/mqtt/topic"
	"github.com/autopeer-io/picar/pkg/options"
)

type Config struct {
	HttpOptions    *options.HttpOptions
	GrpcOptions    *options.GrpcOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	VehicleOptions *options.VehicleOptions
}

// Provider builds both sides and the sensor of the car.
type Provider interface {
	car.ActuatorProvider
	car.SensorProvider
}

// NewAgent wires the car to the hardware (or its simulation) and builds
// every enabled server around it.
func (cfg *Config) NewAgent() (*Agent, error) {
	vid := cfg.VehicleOptions.ID
	if vid == "" {
		vid = hal.DiscoverVehicleID()
	}
	if vid == "" {
		return nil, errors.New("unable to determine the vehicle ID")
	}

	provider, err := cfg.newProvider()
	if err != nil {
		return nil, err
	}
	return cfg.newAgent(vid, provider)
}

func (cfg *Config) newAgent(vid string, provider Provider) (*Agent, error) {
	vo := cfg.VehicleOptions
	v, err := car.New(provider, provider,
		car.WithSpeed(vo.Speed),
		car.WithTurnSpeed(vo.TurnSpeed),
		car.WithPollerOptions(car.WithInterval(vo.SensorInterval)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build vehicle: %w", err)
	}

	w := watch.NewHub()
	v.OnChanged(w)

	var mqttHub *hub.Hub
	if cfg.MqttOptions.Enabled {
		client, builder, err := cfg.initMqttClientAndTopicBuilder(vid)
		if err != nil {
			_ = v.Close()
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		mqttHub = hub.New(vid, client, builder, v, w)
	}

	a := newAgent(vid, v, w, mqttHub)
	if err := a.setupServers(cfg); err != nil {
		_ = v.Close()
		return nil, err
	}
	return a, nil
}

func (cfg *Config) newProvider() (Provider, error) {
	vo := cfg.VehicleOptions
	left, err := hal.ParsePinPairs(vo.LeftPins)
	if err != nil {
		return nil, fmt.Errorf("left pins: %w", err)
	}
	right, err := hal.ParsePinPairs(vo.RightPins)
	if err != nil {
		return nil, fmt.Errorf("right pins: %w", err)
	}

	hc := hal.Config{
		Driver:        vo.Driver,
		Chip:          vo.Chip,
		PWMFrequency:  vo.PWMFrequency,
		LeftPins:      left,
		RightPins:     right,
		LeftInverted:  vo.LeftInverted,
		RightInverted: vo.RightInverted,
		I2CBus:        vo.I2CBus,
		I2CAddr:       vo.I2CAddr,
	}

	if vo.Simulate {
		log.Info("Running with simulated hardware")
		return hal.NewSimulatedProvider(hc), nil
	}
	return hal.NewRealProvider(hc)
}

func (cfg *Config) initMqttClientAndTopicBuilder(vid string) (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("picar-%s", vid)
	}

	mqttConfig.WillTopic = topicBuilder.Build(paths.Online, vid)
	mqttConfig.WillPayload = hub.OfflineMessage(vid)
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}
	return mqttClient, topicBuilder, nil
}
