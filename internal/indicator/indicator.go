package indicator

import (
	"fmt"
	"os"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

// Indicator is the node's status light.
type Indicator interface {
	On()
	Off()
	Toggle()
}

// Logger is the logging interface used by the indicators.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// New builds the indicator selected by cfg.Type.
func New(cfg config.IndicatorConfig, logger Logger) (Indicator, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	switch cfg.Type {
	case "none":
		return None{}, nil
	case "log":
		return &Log{logger: logger}, nil
	case "led":
		return NewLED(cfg.LEDPath, logger), nil
	case "gpio":
		led, err := OpenGPIO(cfg.GPIOPin, logger)
		if err != nil {
			return nil, err
		}
		return led, nil
	default:
		return nil, fmt.Errorf("indicator: unknown type %q", cfg.Type)
	}
}

// None ignores every call.
type None struct{}

func (None) On()     {}
func (None) Off()    {}
func (None) Toggle() {}

// Log records indicator changes at debug level.
type Log struct {
	mu     sync.Mutex
	lit    bool
	logger Logger
}

func (l *Log) On()  { l.set(true) }
func (l *Log) Off() { l.set(false) }

func (l *Log) Toggle() {
	l.mu.Lock()
	lit := !l.lit
	l.mu.Unlock()
	l.set(lit)
}

func (l *Log) set(lit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lit == lit {
		return
	}
	l.lit = lit
	l.logger.Debug("indicator", "lit", lit)
}

// LED drives a status LED through a write function: the sysfs brightness
// file (NewLED) or a GPIO pin (OpenGPIO).
type LED struct {
	mu       sync.Mutex
	target   string
	write    func(lit bool) error
	lit      bool
	reported bool
	logger   Logger
}

// NewLED returns an LED writing to path, e.g. /sys/class/leds/led0/brightness.
func NewLED(path string, logger Logger) *LED {
	return newLED(path, func(lit bool) error {
		value := []byte("0")
		if lit {
			value = []byte("1")
		}
		return os.WriteFile(path, value, 0)
	}, logger)
}

// pinOut is the part of a periph.io GPIO pin the LED drives.
type pinOut interface {
	Out(l gpio.Level) error
}

// OpenGPIO initialises the host drivers and returns an LED on the named
// pin, e.g. "GPIO17".
func OpenGPIO(name string, logger Logger) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("indicator: periph host init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("indicator: unknown gpio pin %q", name)
	}
	return newGPIO(name, pin, logger), nil
}

func newGPIO(name string, pin pinOut, logger Logger) *LED {
	return newLED(name, func(lit bool) error { return pin.Out(gpio.Level(lit)) }, logger)
}

func newLED(target string, write func(bool) error, logger Logger) *LED {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LED{target: target, write: write, logger: logger}
}

func (l *LED) On()  { l.set(true) }
func (l *LED) Off() { l.set(false) }

func (l *LED) Toggle() {
	l.mu.Lock()
	lit := !l.lit
	l.mu.Unlock()
	l.set(lit)
}

// Lit reports the last state written.
func (l *LED) Lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lit
}

// set drives the LED. The first write error is logged; later ones are
// dropped so a missing LED does not flood the log.
func (l *LED) set(lit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lit = lit
	if err := l.write(lit); err != nil && !l.reported {
		l.reported = true
		l.logger.Warn("indicator LED write failed", "target", l.target, "error", err)
	}
}
