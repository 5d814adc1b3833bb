// Package responder serves the status page from the scheduler loop.
//
// This is deliberately not an http.Server: the node services at most one
// request per tick on the scheduler goroutine, with short accept, read and
// write deadlines, and every request gets the same 200 response followed
// by the page rendered from the snapshot taken when the connection was
// accepted.
package responder
