package sink

import "errors"

var (
	// ErrDelivery wraps a transport failure that has no sentinel of its own.
	ErrDelivery = errors.New("sink: delivery failed")

	// ErrUnknownTransport is returned by New for an unsupported transport name.
	ErrUnknownTransport = errors.New("sink: unknown transport")
)
