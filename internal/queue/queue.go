package queue

import (
	"context"

	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Queue is the durable FIFO of readings waiting for the collector.
//
// Entries are kept in arrival order. Nothing is removed except through
// Clear or DropHead, which the upload cycle calls only after the collector
// acknowledged the removed entries.
type Queue interface {
	// Append stores r at the tail. The entry is durable once Append returns nil.
	Append(ctx context.Context, r telemetry.Reading) error

	// DrainAll returns every stored entry, oldest first, without removing
	// anything. A failed read yields an empty slice.
	DrainAll(ctx context.Context) []telemetry.Reading

	// Clear atomically removes every entry.
	Clear(ctx context.Context) error

	// DropHead atomically removes the n oldest entries and keeps the rest,
	// including entries appended after the last DrainAll.
	DropHead(ctx context.Context, n int) error

	// Len returns the number of stored entries, 0 when unknown.
	Len(ctx context.Context) int
}

// Logger is the logging interface used by the queue backends.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

func orNoop(logger Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}
