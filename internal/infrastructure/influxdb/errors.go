package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrWriteFailed) {
//	    // queue the reading for later
//	}
var (
	// ErrWriteFailed indicates the server did not accept a point.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("influxdb: client closed")
)
