package scheduler

import (
	"time"

	"github.com/nerrad567/weather-node/internal/connectivity"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Snapshot is the state visible to a tick's downstream actions. It is
// passed by value, so a responder renders exactly what was current when
// it accepted the connection.
type Snapshot struct {
	Reading    telemetry.Reading
	HasReading bool
	State      connectivity.State
	Pending    int
	Tick       uint64

	// TakenAt is the tick clock value of the last good reading.
	TakenAt time.Time
}

// timer fires an action every interval, measured from its last firing.
type timer struct {
	interval  time.Duration
	lastFired time.Time
}

func (t *timer) due(now time.Time) bool {
	return now.Sub(t.lastFired) >= t.interval
}

func (t *timer) fire(now time.Time) {
	t.lastFired = now
}
