package connectivity

import (
	"context"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

// Link is the connection the supervisor drives.
type Link interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Address() string
}

// Indicator is the status light toggled while connecting.
type Indicator interface {
	On()
	Off()
	Toggle()
}

// Logger is the logging interface used by the supervisor.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

type noopIndicator struct{}

func (noopIndicator) On()     {}
func (noopIndicator) Off()    {}
func (noopIndicator) Toggle() {}

// Settings are the supervisor's fixed intervals and retry ceiling.
type Settings struct {
	// ReconnectInterval is the minimum time between two connect requests.
	ReconnectInterval time.Duration

	// ConnectWait bounds how long one request may stay in Connecting.
	ConnectWait time.Duration

	// ConnectPoll is the indicator blink period while connecting.
	ConnectPoll time.Duration

	// Cooldown is how long the supervisor rests after MaxAttempts failures.
	Cooldown time.Duration

	MaxAttempts int
}

// SettingsFrom extracts the supervisor settings from the scheduler config.
func SettingsFrom(cfg config.SchedulerConfig) Settings {
	return Settings{
		ReconnectInterval: cfg.ReconnectInterval,
		ConnectWait:       cfg.ConnectWait,
		ConnectPoll:       cfg.ConnectPoll,
		Cooldown:          cfg.Cooldown,
		MaxAttempts:       cfg.MaxReconnectAttempts,
	}
}

// Supervisor owns the connection state. It is a state machine advanced by
// Step with the scheduler's clock; it never sleeps or waits on the link.
//
//	Disconnected --reconnect due--> Connecting --link up--> Connected
//	Connecting --deadline or error--> Disconnected | CoolDown (budget spent)
//	Connected --link down--> Disconnected
//	CoolDown --cooldown elapsed--> Disconnected (attempts reset)
//
// Not safe for concurrent use: only the scheduler goroutine calls it.
type Supervisor struct {
	settings  Settings
	link      Link
	indicator Indicator
	logger    Logger

	state    State
	attempts int

	lastRequest time.Time
	requested   bool
	deadline    time.Time
	nextBlink   time.Time
	coolUntil   time.Time
}

// New returns a supervisor in Disconnected. The first Step issues a
// connect request immediately.
func New(settings Settings, link Link, indicator Indicator, logger Logger) *Supervisor {
	if indicator == nil {
		indicator = noopIndicator{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Supervisor{
		settings:  settings,
		link:      link,
		indicator: indicator,
		logger:    logger,
		state:     Disconnected,
	}
}

// State returns the current state.
func (s *Supervisor) State() State { return s.state }

// Attempts returns the failed attempts since the last success or cool-down.
func (s *Supervisor) Attempts() int { return s.attempts }

// CoolDownUntil returns when the current cool-down ends (zero outside CoolDown).
func (s *Supervisor) CoolDownUntil() time.Time {
	if s.state != CoolDown {
		return time.Time{}
	}
	return s.coolUntil
}

// Step advances the state machine to now and reports what changed.
func (s *Supervisor) Step(ctx context.Context, now time.Time) Event {
	switch s.state {
	case Disconnected:
		return s.stepDisconnected(ctx, now)
	case Connecting:
		return s.stepConnecting(now)
	case Connected:
		if !s.link.IsConnected() {
			s.state = Disconnected
			s.indicator.Off()
			s.logger.Warn("connection lost")
			return EventLost
		}
	case CoolDown:
		if !now.Before(s.coolUntil) {
			s.state = Disconnected
			s.attempts = 0
			s.logger.Info("cool-down over, resuming reconnect attempts")
			return EventResumed
		}
	}
	return EventNone
}

func (s *Supervisor) stepDisconnected(ctx context.Context, now time.Time) Event {
	// A link that came up on its own (or never goes down) needs no request.
	if s.link.IsConnected() {
		return s.connected()
	}

	if s.requested && now.Sub(s.lastRequest) < s.settings.ReconnectInterval {
		return EventNone
	}
	s.requested = true
	s.lastRequest = now

	s.logger.Info("connecting", "attempt", s.attempts+1, "max_attempts", s.settings.MaxAttempts)
	if err := s.link.Connect(ctx); err != nil {
		s.logger.Warn("connect request failed", "error", err)
		return s.attemptFailed(now)
	}

	s.state = Connecting
	s.deadline = now.Add(s.settings.ConnectWait)
	s.nextBlink = now.Add(s.settings.ConnectPoll)
	s.indicator.On()
	return EventNone
}

func (s *Supervisor) stepConnecting(now time.Time) Event {
	if s.link.IsConnected() {
		return s.connected()
	}
	if !now.Before(s.deadline) {
		s.logger.Warn("connect attempt timed out", "wait", s.settings.ConnectWait)
		return s.attemptFailed(now)
	}
	if !now.Before(s.nextBlink) {
		s.indicator.Toggle()
		s.nextBlink = s.nextBlink.Add(s.settings.ConnectPoll)
	}
	return EventNone
}

func (s *Supervisor) connected() Event {
	s.state = Connected
	s.attempts = 0
	s.indicator.On()
	s.logger.Info("connected", "address", s.link.Address())
	return EventConnected
}

func (s *Supervisor) attemptFailed(now time.Time) Event {
	s.attempts++
	s.indicator.Off()

	if s.attempts >= s.settings.MaxAttempts {
		s.state = CoolDown
		s.coolUntil = now.Add(s.settings.Cooldown)
		s.logger.Warn("reconnect attempts exhausted, cooling down",
			"attempts", s.attempts,
			"cooldown", s.settings.Cooldown,
		)
		return EventCoolDown
	}

	s.state = Disconnected
	return EventAttemptFailed
}
