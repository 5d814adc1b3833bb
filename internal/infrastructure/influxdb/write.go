package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

// DefaultMeasurement is used when influxdb.measurement is empty.
const DefaultMeasurement = "environment"

// WriteReading writes one reading and waits for the server's answer.
//
// Point layout:
//
//	environment,node_id=<id> temperature=<°C>,pressure=<hPa>,reading_time="<ts>" <ts>
//
// The point time is the reading's own timestamp so replayed offline readings
// land where they were taken, not when they were delivered.
func (c *Client) WriteReading(ctx context.Context, nodeID string, r telemetry.Reading) error {
	if c.isClosed() {
		return ErrClosed
	}

	if err := c.writeAPI.WritePoint(ctx, c.point(nodeID, r)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (c *Client) point(nodeID string, r telemetry.Reading) *write.Point {
	measurement := c.cfg.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}

	at, err := time.Parse(telemetry.TimestampLayout, r.Timestamp)
	if err != nil {
		at = time.Now().UTC()
	}

	return write.NewPoint(
		measurement,
		map[string]string{"node_id": nodeID},
		map[string]interface{}{
			"temperature":  r.Temperature,
			"pressure":     r.Pressure,
			"reading_time": r.Timestamp,
		},
		at,
	)
}
