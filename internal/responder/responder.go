package responder

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/panel"
	"github.com/nerrad567/weather-node/internal/scheduler"
)

// fallbackPage is served when the template fails to render.
const fallbackPage = "<!DOCTYPE html><html><body><p>Status unavailable</p></body></html>"

// Renderer turns a status into a page body.
type Renderer interface {
	Bytes(s panel.Status) ([]byte, error)
}

// Logger is the logging interface used by the responder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Responder answers every request with the status page.
//
// It is polled from the scheduler: each Poll waits at most the accept
// timeout for a pending connection and serves at most one. There is no
// routing; method, path and headers are ignored.
//
// Thread Safety: Poll must be called from a single goroutine. Close may be
// called from any goroutine.
type Responder struct {
	cfg      config.ResponderConfig
	listener *net.TCPListener
	page     Renderer
	nodeName string
	logger   Logger
	buf      []byte
}

// Listen opens the TCP listener on cfg.Listen.
func Listen(cfg config.ResponderConfig, nodeName string, page Renderer, logger Logger) (*Responder, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListen, cfg.Listen, err)
	}
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close() //nolint:errcheck // Not a TCP listener, nothing to keep
		return nil, fmt.Errorf("%w: %s: not a TCP address", ErrListen, cfg.Listen)
	}
	return &Responder{
		cfg:      cfg,
		listener: tcp,
		page:     page,
		nodeName: nodeName,
		logger:   logger,
		buf:      make([]byte, cfg.MaxRequestBytes),
	}, nil
}

// Addr returns the listener's address.
func (r *Responder) Addr() net.Addr { return r.listener.Addr() }

// Close stops accepting connections.
func (r *Responder) Close() error { return r.listener.Close() }

// Poll serves one pending request, if any, with the page for snap.
// It returns true when a connection was accepted. A closed responder
// returns false without logging.
func (r *Responder) Poll(snap scheduler.Snapshot) bool {
	if err := r.listener.SetDeadline(time.Now().Add(r.cfg.AcceptTimeout)); err != nil {
		if !errors.Is(err, net.ErrClosed) {
			r.logger.Warn("setting accept deadline failed", "error", err)
		}
		return false
	}
	conn, err := r.listener.Accept()
	if err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, net.ErrClosed) {
			r.logger.Warn("accept failed", "error", err)
		}
		return false
	}
	defer conn.Close() //nolint:errcheck // Response already written or abandoned

	r.serve(conn, snap)
	return true
}

func (r *Responder) serve(conn net.Conn, snap scheduler.Snapshot) {
	remote := conn.RemoteAddr().String()

	conn.SetReadDeadline(time.Now().Add(r.cfg.ReadTimeout)) //nolint:errcheck // Read error handled below
	n, err := conn.Read(r.buf)
	if err != nil {
		r.logger.Debug("request read failed", "remote", remote, "error", err)
	}
	r.logger.Debug("status request", "remote", remote, "bytes", n)

	body, err := r.page.Bytes(StatusFrom(r.nodeName, snap))
	if err != nil {
		r.logger.Warn("rendering status page failed", "error", err)
		body = []byte(fallbackPage)
	}

	conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout)) //nolint:errcheck // Write error handled below
	if _, err := conn.Write(response(body)); err != nil {
		r.logger.Debug("response write failed", "remote", remote, "error", err)
	}
}

// response builds the fixed status line and headers followed by body.
func response(body []byte) []byte {
	header := fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html\r\n"+
		"Content-Length: %d\r\n"+
		"Connection: close\r\n"+
		"\r\n", len(body))
	return append([]byte(header), body...)
}

// StatusFrom maps a scheduler snapshot to the page's view of it.
func StatusFrom(nodeName string, snap scheduler.Snapshot) panel.Status {
	return panel.Status{
		NodeName:    nodeName,
		HasReading:  snap.HasReading,
		Temperature: snap.Reading.Temperature,
		Pressure:    snap.Reading.Pressure,
		Connection:  snap.State.Label(),
		Pending:     snap.Pending,
		UpdatedAt:   snap.TakenAt,
	}
}
