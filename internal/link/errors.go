package link

import "errors"

var (
	// ErrConnectFailed indicates a connection attempt or check failed.
	ErrConnectFailed = errors.New("link: connect failed")

	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("link: closed")
)
