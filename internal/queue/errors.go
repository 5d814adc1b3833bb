package queue

import "errors"

// ErrStorage is returned when the backing store cannot be written.
// The cause (filesystem or SQLite error) is wrapped alongside it.
var ErrStorage = errors.New("queue: storage failure")
