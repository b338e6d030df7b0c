package options

import (
	"testing"
	"time"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8000", false},
		{":8091", false},
		{"localhost:0", false},
		{"localhost", true},
		{"localhost:http", true},
		{"localhost:70000", true},
	}

	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	all := []IOptions{
		NewHttpOptions(),
		NewGrpcOptions(),
		NewMqttOptions(),
		NewS3Options(),
		NewVehicleOptions(),
	}
	for _, o := range all {
		if errs := o.Validate(); len(errs) != 0 {
			t.Errorf("%T defaults invalid: %v", o, errs)
		}
	}
}

func TestVehicleOptionsValidate(t *testing.T) {
	o := NewVehicleOptions()
	o.Driver = "serial"
	o.TurnSpeed = 1.5
	o.SensorInterval = time.Millisecond
	o.RightPins = nil

	if errs := o.Validate(); len(errs) != 4 {
		t.Errorf("Validate() = %v, want 4 errors", errs)
	}
}

func TestDisabledSectionsSkipValidation(t *testing.T) {
	m := NewMqttOptions()
	m.Broker = ""
	if errs := m.Validate(); len(errs) != 0 {
		t.Errorf("disabled mqtt validated: %v", errs)
	}
	m.Enabled = true
	if errs := m.Validate(); len(errs) != 1 {
		t.Errorf("enabled mqtt without broker: %v", errs)
	}

	s := NewS3Options()
	s.Enabled = true
	s.BucketName = ""
	if errs := s.Validate(); len(errs) != 1 {
		t.Errorf("enabled s3 without bucket: %v", errs)
	}
}
