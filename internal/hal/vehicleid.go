package hal

import (
	"os"
	"strings"

	"github.com/autopeer-io/picar/pkg/log"
)

// VehicleIDEnv and VehicleIDFile are checked in that order by DiscoverVehicleID.
const (
	VehicleIDEnv  = "PICAR_VEHICLE_ID"
	VehicleIDFile = "/etc/picar/vehicle-id"
)

// DiscoverVehicleID returns the vehicle identity from the environment or
// the identity file, falling back to the host name. It returns "" when
// nothing is available.
func DiscoverVehicleID() string {
	return discoverVehicleID(os.Getenv, VehicleIDFile, os.Hostname)
}

func discoverVehicleID(getenv func(string) string, file string, hostname func() (string, error)) string {
	if id := strings.TrimSpace(getenv(VehicleIDEnv)); id != "" {
		log.Info("VehicleID detected from env", "id", id)
		return id
	}

	if content, err := os.ReadFile(file); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			log.Info("VehicleID detected from file", "id", id, "file", file)
			return id
		}
	}

	if name, err := hostname(); err == nil && name != "" {
		log.Info("VehicleID falls back to hostname", "id", name)
		return name
	}

	return ""
}
