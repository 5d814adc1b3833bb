package scheduler

import (
	"context"
	"time"

	"github.com/nerrad567/weather-node/internal/connectivity"
	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Sensor produces the current reading.
type Sensor interface {
	Read() (telemetry.Reading, error)
}

// Queue is the offline store used by the upload cycle.
type Queue interface {
	Append(ctx context.Context, r telemetry.Reading) error
	DrainAll(ctx context.Context) []telemetry.Reading
	DropHead(ctx context.Context, n int) error
	Len(ctx context.Context) int
}

// Sink makes one delivery attempt and reports success.
type Sink interface {
	Send(ctx context.Context, r telemetry.Reading) bool
}

// Supervisor owns the connection state.
type Supervisor interface {
	Step(ctx context.Context, now time.Time) connectivity.Event
	State() connectivity.State
}

// Responder serves at most one pending request per call without blocking
// beyond its accept timeout.
type Responder interface {
	Poll(snap Snapshot) bool
}

// TimeCheck runs the one-shot time-service check.
type TimeCheck interface {
	RunOnce(ctx context.Context)
}

// Logger is the logging interface used by the scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the collaborators driven by the scheduler.
type Deps struct {
	Config     config.SchedulerConfig
	Sensor     Sensor
	Queue      Queue
	Sink       Sink
	Supervisor Supervisor

	Responder Responder // optional: nil disables request servicing
	TimeCheck TimeCheck // optional
	Logger    Logger    // optional

	// Clock defaults to time.Now.
	Clock func() time.Time
}
