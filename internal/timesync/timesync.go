package timesync

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

// Fetcher performs a bounded GET and returns the body of a 2xx response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Logger is the logging interface used by the checker.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Checker asks a public time service for the current time once the node
// first gets online. The result is only logged; it is a sanity check that
// outbound HTTP works, not a clock source.
type Checker struct {
	cfg     config.TimeServiceConfig
	fetcher Fetcher
	logger  Logger
	done    bool
}

// New creates a checker. A nil logger discards output.
func New(cfg config.TimeServiceConfig, fetcher Fetcher, logger Logger) *Checker {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Checker{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Done reports whether the one-shot check has already run.
func (c *Checker) Done() bool { return c.done || !c.cfg.Enabled }

// RunOnce performs the check the first time it is called and does nothing
// afterwards. Failures are logged and never returned.
func (c *Checker) RunOnce(ctx context.Context) {
	if c.Done() {
		return
	}
	c.done = true

	value, err := c.Check(ctx)
	if err != nil {
		c.logger.Warn("Time unavailable", "url", c.cfg.URL, "error", err)
		return
	}
	c.logger.Info("time service", "time", value)
}

// Check fetches the configured URL and extracts the configured field.
func (c *Checker) Check(ctx context.Context) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := c.fetcher.Fetch(ctx, c.cfg.URL)
	if err != nil {
		return "", err
	}
	return extract(body, c.cfg.Field)
}

func extract(body []byte, field string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidResponse
	}
	result := gjson.GetBytes(body, field)
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, field)
	}
	return result.String(), nil
}
