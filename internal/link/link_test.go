package link

import (
	"context"
	"errors"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatic(t *testing.T) {
	var l Link = Static{}
	if err := l.Connect(context.Background()); err != nil {
		t.Errorf("Connect() error = %v", err)
	}
	if !l.IsConnected() {
		t.Error("IsConnected() = false")
	}
}

func TestProbe_ConnectAndLose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := NewProbe(ln.Addr().String(), time.Second, 20*time.Millisecond, nil)
	defer p.Close() //nolint:errcheck // Test cleanup

	if p.IsConnected() {
		t.Fatal("IsConnected() = true before Connect")
	}
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitFor(t, "probe to connect", p.IsConnected)

	if p.Address() != "127.0.0.1" {
		t.Errorf("Address() = %q, want local address of the probe", p.Address())
	}

	ln.Close()
	waitFor(t, "keepalive to notice the lost path", func() bool { return !p.IsConnected() })
}

func TestProbe_Unreachable(t *testing.T) {
	p := NewProbe("127.0.0.1:1", 200*time.Millisecond, time.Second, nil)
	defer p.Close() //nolint:errcheck // Test cleanup

	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitFor(t, "attempt to finish", func() bool { return !p.running.Load() })
	if p.IsConnected() {
		t.Error("IsConnected() = true for an unreachable target")
	}
}

func TestProbe_ConnectAfterClose(t *testing.T) {
	p := NewProbe("127.0.0.1:1", time.Second, time.Second, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Connect() after Close error = %v, want ErrClosed", err)
	}
}

// scriptedRunner answers nmcli invocations from a table keyed by the
// first distinguishing argument.
type scriptedRunner struct {
	mu       sync.Mutex
	state    string
	joinErr  error
	scanOut  string
	commands []string
}

func (r *scriptedRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))

	joined := strings.Join(args, " ")
	switch {
	case strings.Contains(joined, "wifi connect"):
		return nil, r.joinErr
	case strings.Contains(joined, "STATE general"):
		return []byte(r.state + "\n"), nil
	case strings.Contains(joined, "IP4.ADDRESS"):
		return []byte("192.168.4.23/24\n"), nil
	case strings.Contains(joined, "wifi list"):
		return []byte(r.scanOut), nil
	}
	return nil, errors.New("unexpected command")
}

func (r *scriptedRunner) setState(state string) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func TestNMCLI_Join(t *testing.T) {
	runner := &scriptedRunner{state: "connected"}
	n := NewNMCLI(NMCLIConfig{SSID: "field-ap", Password: "secret", Interface: "wlan0", Keepalive: 20 * time.Millisecond}, runner.run, nil)
	defer n.Close() //nolint:errcheck // Test cleanup

	if err := n.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitFor(t, "nmcli link to connect", n.IsConnected)

	if n.Address() != "192.168.4.23" {
		t.Errorf("Address() = %q", n.Address())
	}

	runner.mu.Lock()
	first := runner.commands[0]
	runner.mu.Unlock()
	if !strings.Contains(first, "device wifi connect field-ap password secret ifname wlan0") {
		t.Errorf("connect command = %q", first)
	}

	runner.setState("disconnected")
	waitFor(t, "keepalive to notice the drop", func() bool { return !n.IsConnected() })
}

func TestNMCLI_JoinFailure(t *testing.T) {
	tests := []struct {
		name   string
		runner *scriptedRunner
	}{
		{name: "connect command fails", runner: &scriptedRunner{state: "connected", joinErr: errors.New("exit status 10")}},
		{name: "no full connectivity", runner: &scriptedRunner{state: "connected (site only)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNMCLI(NMCLIConfig{SSID: "field-ap", Keepalive: time.Second}, tt.runner.run, nil)
			defer n.Close() //nolint:errcheck // Test cleanup

			if err := n.Connect(context.Background()); err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			waitFor(t, "attempt to finish", func() bool { return !n.running.Load() })
			if n.IsConnected() {
				t.Error("IsConnected() = true after a failed join")
			}
		})
	}
}

func TestNMCLI_Scan(t *testing.T) {
	runner := &scriptedRunner{scanOut: "home:40\nfield-ap:82\n:70\ncafe\\:guest:55\nbroken\n"}
	n := NewNMCLI(NMCLIConfig{SSID: "field-ap", Keepalive: time.Second}, runner.run, nil)
	defer n.Close() //nolint:errcheck // Test cleanup

	got, err := n.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []Network{
		{SSID: "field-ap", Signal: 82},
		{SSID: "cafe:guest", Signal: 55},
		{SSID: "home", Signal: 40},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}
