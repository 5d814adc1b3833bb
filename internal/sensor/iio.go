package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

// IIO channel files exposed by the Linux bmp280 driver (BMP280/BME280).
const (
	tempChannel     = "in_temp_input"     // milli degrees Celsius
	pressureChannel = "in_pressure_input" // kilopascal
)

const (
	milliPerUnit = 1000.0
	hPaPerKPa    = 10.0
)

// IIO reads temperature and pressure from an Industrial I/O sysfs device.
type IIO struct {
	dir   string
	clock Clock
}

// NewIIO returns a driver for the device directory, e.g.
// /sys/bus/iio/devices/iio:device0.
func NewIIO(dir string, clock Clock) *IIO {
	return &IIO{dir: dir, clock: clock}
}

// Read samples both channels. Pressure is reported in hectopascal.
func (s *IIO) Read() (telemetry.Reading, error) {
	milliC, err := s.channel(tempChannel)
	if err != nil {
		return telemetry.Reading{}, err
	}
	kPa, err := s.channel(pressureChannel)
	if err != nil {
		return telemetry.Reading{}, err
	}

	return telemetry.NewReading(s.clock(), milliC/milliPerUnit, kPa*hPaPerKPa), nil
}

func (s *IIO) channel(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}
	return v, nil
}
