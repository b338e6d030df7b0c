package options

import (
	"testing"
)

func TestPicarOptionsDefaultsValidate(t *testing.T) {
	o := NewPicarOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	fss := o.Flags()
	for _, name := range []string{"vehicle", "http", "grpc", "mqtt", "s3", "log"} {
		if _, ok := fss.FlagSets[name]; !ok {
			t.Errorf("missing flag set %q", name)
		}
	}
}

func TestPicarOptionsValidateAggregates(t *testing.T) {
	o := NewPicarOptions()
	o.HttpOptions.Addr = "nope"
	o.VehicleOptions.Speed = 2

	if err := o.Validate(); err == nil {
		t.Fatal("expected validation errors")
	}
}

func TestConfig(t *testing.T) {
	o := NewPicarOptions()
	cfg, err := o.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VehicleOptions != o.VehicleOptions || cfg.MqttOptions != o.MqttOptions {
		t.Error("Config() did not carry the options through")
	}
}
