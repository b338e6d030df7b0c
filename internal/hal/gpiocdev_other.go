//go:build !linux

package hal

import (
	"errors"

	"github.com/autopeer-io/picar/internal/car"
)

var errNoCharacterDevice = errors.New("gpiocdev driver requires linux")

func cdevMotorFactory(string) car.MotorFactory {
	return func(int, int) (car.Motor, error) {
		return nil, errNoCharacterDevice
	}
}
