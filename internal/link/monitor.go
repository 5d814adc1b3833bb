package link

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// monitor runs a connection attempt in the background and, once it
// succeeds, re-checks the connection every keepalive until a check fails.
// Probe and NMCLI are built on it.
type monitor struct {
	name      string
	keepalive time.Duration
	logger    Logger

	// establish makes one connection attempt and returns the local address.
	establish func(ctx context.Context) (string, error)
	// check verifies an established connection.
	check func(ctx context.Context) error

	connected atomic.Bool
	running   atomic.Bool
	address   atomic.Value // string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (m *monitor) init() {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.address.Store("")
	m.logger = orNoop(m.logger)
}

// Connect starts an attempt unless one is running or the link is up.
func (m *monitor) Connect(context.Context) error {
	if m.ctx.Err() != nil {
		return ErrClosed
	}
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}

	m.wg.Add(1)
	go m.run()
	return nil
}

func (m *monitor) IsConnected() bool {
	return m.connected.Load()
}

func (m *monitor) Address() string {
	return m.address.Load().(string)
}

// Close stops the background goroutine and marks the link down.
func (m *monitor) Close() error {
	m.cancel()
	m.wg.Wait()
	m.connected.Store(false)
	return nil
}

func (m *monitor) run() {
	defer m.wg.Done()
	defer m.running.Store(false)

	addr, err := m.establish(m.ctx)
	if err != nil {
		m.logger.Warn("link connect failed", "link", m.name, "error", err)
		return
	}
	m.address.Store(addr)
	m.connected.Store(true)
	m.logger.Info("link up", "link", m.name, "address", addr)

	ticker := time.NewTicker(m.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.connected.Store(false)
			return
		case <-ticker.C:
			if err := m.check(m.ctx); err != nil {
				m.connected.Store(false)
				m.logger.Warn("link lost", "link", m.name, "error", err)
				return
			}
		}
	}
}
