package config

import "errors"

// ErrInvalid is returned for any configuration that cannot be loaded or fails
// validation. It is fatal at startup and never produced inside the tick loop.
var ErrInvalid = errors.New("config: invalid configuration")
