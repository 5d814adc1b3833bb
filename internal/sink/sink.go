package sink

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Sink delivers readings to the remote collector.
//
// Send makes exactly one attempt and reports whether the transport confirmed
// delivery. It never panics and never returns an error: failures are logged
// and reported as false so the caller can queue the reading.
type Sink interface {
	Send(ctx context.Context, r telemetry.Reading) bool
}

// Transport is one way of reaching the collector.
type Transport interface {
	// Deliver makes one attempt. A nil error means the collector has r.
	Deliver(ctx context.Context, r telemetry.Reading) error

	// Name identifies the transport in logs.
	Name() string
}

// Logger is the logging interface used by the sink.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Uploader adapts a Transport to Sink: it bounds every attempt by the
// collector timeout, turns errors and panics into false, and optionally asks
// the runtime to return freed memory to the OS afterwards.
type Uploader struct {
	transport Transport
	timeout   time.Duration
	reclaim   func()
	logger    Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithLogger sets the logger for failed attempts.
func WithLogger(logger Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithMemoryReclaim calls debug.FreeOSMemory after every attempt.
func WithMemoryReclaim(enabled bool) Option {
	return func(u *Uploader) {
		if enabled {
			u.reclaim = debug.FreeOSMemory
		}
	}
}

// NewUploader wraps transport. A non-positive timeout leaves attempts bounded
// only by ctx.
func NewUploader(transport Transport, timeout time.Duration, opts ...Option) *Uploader {
	u := &Uploader{
		transport: transport,
		timeout:   timeout,
		reclaim:   func() {},
		logger:    noopLogger{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Send makes one bounded delivery attempt.
func (u *Uploader) Send(ctx context.Context, r telemetry.Reading) bool {
	defer u.reclaim()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := u.deliver(ctx, r); err != nil {
		u.logger.Warn("upload failed",
			"transport", u.transport.Name(),
			"timestamp", r.Timestamp,
			"elapsed", time.Since(start),
			"error", err,
		)
		return false
	}

	u.logger.Debug("upload succeeded",
		"transport", u.transport.Name(),
		"timestamp", r.Timestamp,
		"elapsed", time.Since(start),
	)
	return true
}

func (u *Uploader) deliver(ctx context.Context, r telemetry.Reading) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDelivery, p)
		}
	}()
	return u.transport.Deliver(ctx, r)
}
