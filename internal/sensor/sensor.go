package sensor

import (
	"fmt"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Source produces one reading per call.
// Implementations return an error wrapping ErrRead on any failure.
type Source interface {
	Read() (telemetry.Reading, error)
}

// Clock returns the current time. Drivers stamp readings with it.
type Clock func() time.Time

// New builds the driver selected by cfg.Driver. Drivers holding hardware
// also implement io.Closer.
func New(cfg config.SensorConfig, clock Clock) (Source, error) {
	if clock == nil {
		clock = time.Now
	}

	switch cfg.Driver {
	case "iio":
		return NewIIO(cfg.IIOPath, clock), nil
	case "bmp280":
		dev, err := OpenBMP280(cfg.I2CBus, cfg.I2CAddress, clock)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case "simulated":
		return NewSimulated(cfg.Simulated, clock), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrRead, cfg.Driver)
	}
}
