package link

import (
	"context"
	"net"
)

// Link is the network connection the node uploads through.
//
// Connect only requests a connection and returns promptly; whether it
// succeeded is observed through IsConnected on later ticks.
type Link interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Address() string
}

// Logger is the logging interface used by the links.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

func orNoop(logger Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}

// Static is a link that is always up: wired Ethernet or a development host.
type Static struct{}

// Connect implements Link.
func (Static) Connect(context.Context) error { return nil }

// IsConnected implements Link.
func (Static) IsConnected() bool { return true }

// Address returns the first non-loopback IPv4 address of the host.
func (Static) Address() string {
	return firstIPv4()
}

func firstIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
