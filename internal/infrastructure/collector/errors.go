package collector

import "errors"

// Sentinel errors for collector requests.
var (
	// ErrRequestFailed indicates no response was received.
	ErrRequestFailed = errors.New("collector: request failed")

	// ErrUnexpectedStatus indicates Fetch received a non-2xx response.
	ErrUnexpectedStatus = errors.New("collector: unexpected status")
)
