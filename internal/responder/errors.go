package responder

import "errors"

// ErrListen indicates the status listener could not be opened.
var ErrListen = errors.New("responder: listen failed")
