package link

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Probe treats the network as up while a TCP connection to a known
// address can be opened. Useful where the OS manages the interface and the
// node only needs to know whether the collector is reachable.
type Probe struct {
	monitor
	target  string
	timeout time.Duration
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbe returns a probe link dialling target ("host:port").
func NewProbe(target string, timeout, keepalive time.Duration, logger Logger) *Probe {
	p := &Probe{
		target:  target,
		timeout: timeout,
		dialer:  (&net.Dialer{}).DialContext,
	}
	p.monitor = monitor{
		name:      "probe",
		keepalive: keepalive,
		logger:    logger,
		establish: p.dial,
		check: func(ctx context.Context) error {
			_, err := p.dial(ctx)
			return err
		},
	}
	p.monitor.init()
	return p
}

func (p *Probe) dial(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer(ctx, "tcp", p.target)
	if err != nil {
		return "", fmt.Errorf("%w: dialing %s: %w", ErrConnectFailed, p.target, err)
	}
	local := conn.LocalAddr().String()
	conn.Close() //nolint:errcheck // probe connection carries no data

	if host, _, err := net.SplitHostPort(local); err == nil {
		return host, nil
	}
	return local, nil
}
