package sensor

import "errors"

// ErrRead is returned when the sensor cannot produce a reading.
var ErrRead = errors.New("sensor: read failed")
