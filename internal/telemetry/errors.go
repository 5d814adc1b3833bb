package telemetry

import "errors"

// ErrMalformedRecord is returned when a stored record cannot be decoded.
var ErrMalformedRecord = errors.New("telemetry: malformed record")
