package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the format of Reading.Timestamp: RFC 3339 in UTC at
// second precision. It never contains a comma, which the line format relies on.
const TimestampLayout = "2006-01-02T15:04:05Z"

// lineFields is the number of comma-separated fields in a stored record.
const lineFields = 3

// Reading is a single sensor sample. It is a value type and is never
// modified after the sensor produces it.
type Reading struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
}

// NewReading stamps a sample with t formatted per TimestampLayout.
func NewReading(t time.Time, temperature, pressure float64) Reading {
	return Reading{
		Timestamp:   FormatTimestamp(t),
		Temperature: temperature,
		Pressure:    pressure,
	}
}

// FormatTimestamp renders t in UTC per TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatLine encodes r as one offline-store record without the trailing newline:
// timestamp, temperature and pressure, the numbers at two decimal places.
//
// Example: 2026-10-18T09:15:00Z,21.47,1013.25
func FormatLine(r Reading) string {
	return fmt.Sprintf("%s,%.2f,%.2f", r.Timestamp, r.Temperature, r.Pressure)
}

// ParseLine decodes a record produced by FormatLine.
// Surrounding whitespace (including the newline) is ignored.
func ParseLine(line string) (Reading, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != lineFields {
		return Reading{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, lineFields, len(fields))
	}

	temperature, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: temperature: %w", ErrMalformedRecord, err)
	}
	pressure, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: pressure: %w", ErrMalformedRecord, err)
	}

	return Reading{
		Timestamp:   fields[0],
		Temperature: temperature,
		Pressure:    pressure,
	}, nil
}

// Rounded returns r with both values rounded to the two decimals the store keeps.
// A reading read back from the store equals Rounded of the reading written.
func (r Reading) Rounded() Reading {
	out, err := ParseLine(FormatLine(r))
	if err != nil {
		return r
	}
	return out
}
