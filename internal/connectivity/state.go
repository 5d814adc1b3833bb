package connectivity

// State is the supervisor's view of the link.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	CoolDown
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case CoolDown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name shown on the status page.
func (s State) Label() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case CoolDown:
		return "Cool-down"
	default:
		return "Unknown"
	}
}

// Event reports what a Step changed.
type Event int

const (
	EventNone Event = iota

	// EventConnected fires on every transition into Connected.
	EventConnected

	// EventLost fires when an established link drops.
	EventLost

	// EventAttemptFailed fires when a connect attempt times out or errors
	// without exhausting the budget.
	EventAttemptFailed

	// EventCoolDown fires when the budget is exhausted.
	EventCoolDown

	// EventResumed fires when the cool-down has elapsed.
	EventResumed
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventConnected:
		return "connected"
	case EventLost:
		return "lost"
	case EventAttemptFailed:
		return "attempt_failed"
	case EventCoolDown:
		return "cooldown"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}
