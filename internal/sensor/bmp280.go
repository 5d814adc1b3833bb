package sensor

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

// envSensor is the part of a bmxx80 device the driver uses.
type envSensor interface {
	Sense(e *physic.Env) error
	Halt() error
}

// BMP280 talks to a BMP280/BME280 over I2C from user space, for boards
// where the kernel bmp280 iio driver is not loaded.
//
// Thread Safety: Read must not be called concurrently.
type BMP280 struct {
	dev   envSensor
	bus   io.Closer
	clock Clock
}

// OpenBMP280 initialises the host drivers and opens the sensor at addr on
// the named bus. An empty bus name picks the first bus registered.
func OpenBMP280(busName string, addr uint16, clock Clock) (*BMP280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrRead, err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: opening i2c bus %q: %w", ErrRead, busName, err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close() //nolint:errcheck // init error takes precedence
		return nil, fmt.Errorf("%w: bmp280 at %#x: %w", ErrRead, addr, err)
	}
	return &BMP280{dev: dev, bus: bus, clock: clock}, nil
}

// Read performs one forced measurement. Pressure is reported in hectopascal.
func (s *BMP280) Read() (telemetry.Reading, error) {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return telemetry.Reading{}, fmt.Errorf("%w: bmp280: %w", ErrRead, err)
	}
	return telemetry.NewReading(s.clock(), celsius(env.Temperature), hectopascal(env.Pressure)), nil
}

// Close halts the device and releases the bus.
func (s *BMP280) Close() error {
	return errors.Join(s.dev.Halt(), s.bus.Close())
}

func celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

func hectopascal(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}
