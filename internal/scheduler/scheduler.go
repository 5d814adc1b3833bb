package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nerrad567/weather-node/internal/connectivity"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// Scheduler is the node's single logical actor. Each Tick reads the clock
// and the sensor once, steps the connectivity supervisor, fires due timers
// and polls the responder.
//
// Thread Safety: not safe for concurrent use. Tick and Run must be called
// from one goroutine; the scheduler owns the snapshot, timers and drain.
type Scheduler struct {
	sensor     Sensor
	queue      Queue
	sink       Sink
	supervisor Supervisor
	responder  Responder
	timeCheck  TimeCheck
	logger     Logger
	clock      func() time.Time

	tickInterval time.Duration
	pacing       time.Duration

	logTimer    timer
	uploadTimer timer

	snapshot      Snapshot
	tick          uint64
	sensorFailing bool
	drain         *drain
}

// New creates a scheduler. Timers start counting from construction time.
func New(deps Deps) (*Scheduler, error) {
	switch {
	case deps.Sensor == nil:
		return nil, fmt.Errorf("%w: sensor", ErrMissingDependency)
	case deps.Queue == nil:
		return nil, fmt.Errorf("%w: queue", ErrMissingDependency)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: sink", ErrMissingDependency)
	case deps.Supervisor == nil:
		return nil, fmt.Errorf("%w: supervisor", ErrMissingDependency)
	}

	s := &Scheduler{
		sensor:       deps.Sensor,
		queue:        deps.Queue,
		sink:         deps.Sink,
		supervisor:   deps.Supervisor,
		responder:    deps.Responder,
		timeCheck:    deps.TimeCheck,
		logger:       deps.Logger,
		clock:        deps.Clock,
		tickInterval: deps.Config.TickInterval,
		pacing:       deps.Config.UploadPacing,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	start := s.clock()
	s.logTimer = timer{interval: deps.Config.LogInterval, lastFired: start}
	s.uploadTimer = timer{interval: deps.Config.UploadInterval, lastFired: start}
	s.snapshot.State = s.supervisor.State()

	return s, nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Scheduler) Snapshot() Snapshot { return s.snapshot }

// Draining reports whether a queue drain is in progress.
func (s *Scheduler) Draining() bool { return s.drain != nil }

// Run ticks until ctx is cancelled. A panic inside a tick is logged and
// the loop continues with the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "tick_interval", s.tickInterval)
	s.safeTick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", "ticks", s.tick)
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic recovered in tick",
				"panic", p,
				"tick", s.tick,
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.Tick(ctx)
}

// Tick runs one scheduler iteration.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock()
	s.tick++
	s.snapshot.Tick = s.tick

	reading, err := s.sensor.Read()
	healthy := s.observeSensor(now, reading, err)

	if s.supervisor.Step(ctx, now) == connectivity.EventConnected {
		s.onConnected(ctx, now)
	}
	s.refresh(ctx)

	if healthy {
		if s.logTimer.due(now) {
			s.logTimer.fire(now)
			s.logReading(reading)
		}
		if s.uploadTimer.due(now) {
			s.uploadTimer.fire(now)
			s.upload(ctx, now, reading)
		}
	}
	s.stepDrain(ctx, now)

	s.refresh(ctx)
	if s.responder != nil {
		s.responder.Poll(s.snapshot)
	}
}

// observeSensor records a good reading in the snapshot. Failures are logged
// when they start and when they clear, not on every tick.
func (s *Scheduler) observeSensor(now time.Time, r telemetry.Reading, err error) bool {
	if err != nil {
		if !s.sensorFailing {
			s.logger.Warn("sensor read failed", "error", err)
		}
		s.sensorFailing = true
		return false
	}
	if s.sensorFailing {
		s.logger.Info("sensor recovered")
		s.sensorFailing = false
	}
	s.snapshot.Reading = r
	s.snapshot.HasReading = true
	s.snapshot.TakenAt = now
	return true
}

func (s *Scheduler) refresh(ctx context.Context) {
	s.snapshot.State = s.supervisor.State()
	s.snapshot.Pending = s.queue.Len(ctx)
}

// onConnected runs the one-shot time check and starts an out-of-cycle
// drain of anything queued while offline.
func (s *Scheduler) onConnected(ctx context.Context, now time.Time) {
	if s.timeCheck != nil {
		s.timeCheck.RunOnce(ctx)
	}
	if s.drain == nil {
		s.startDrain(ctx, now)
	}
}

func (s *Scheduler) logReading(r telemetry.Reading) {
	s.logger.Info("reading",
		"timestamp", r.Timestamp,
		"temperature", r.Temperature,
		"pressure", r.Pressure,
		"state", s.snapshot.State.String(),
		"pending", s.snapshot.Pending,
	)
}
