package timesync

import "errors"

var (
	// ErrInvalidResponse indicates the time service did not return JSON.
	ErrInvalidResponse = errors.New("timesync: response is not valid JSON")

	// ErrFieldMissing indicates the configured field is absent from the response.
	ErrFieldMissing = errors.New("timesync: field not found in response")
)
