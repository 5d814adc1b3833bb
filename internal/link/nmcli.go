package link

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// nmcliConnectWait is passed to nmcli --wait and bounds the connect command.
	nmcliConnectWait = 30 * time.Second

	nmcliQueryTimeout = 5 * time.Second
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// NMCLI joins a Wi-Fi network through NetworkManager's nmcli.
type NMCLI struct {
	monitor
	ssid     string
	password string
	iface    string
	runner   Runner
}

// NMCLIConfig holds the credentials and interface for NewNMCLI.
type NMCLIConfig struct {
	SSID      string
	Password  string
	Interface string
	Keepalive time.Duration
}

// NewNMCLI returns a Wi-Fi link. runner defaults to ExecRunner.
func NewNMCLI(cfg NMCLIConfig, runner Runner, logger Logger) *NMCLI {
	if runner == nil {
		runner = ExecRunner
	}
	n := &NMCLI{
		ssid:     cfg.SSID,
		password: cfg.Password,
		iface:    cfg.Interface,
		runner:   runner,
	}
	n.monitor = monitor{
		name:      "nmcli",
		keepalive: cfg.Keepalive,
		logger:    logger,
		establish: n.join,
		check:     n.checkState,
	}
	n.monitor.init()
	return n
}

func (n *NMCLI) join(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, nmcliConnectWait+nmcliQueryTimeout)
	defer cancel()

	args := []string{"--wait", strconv.Itoa(int(nmcliConnectWait.Seconds())), "device", "wifi", "connect", n.ssid}
	if n.password != "" {
		args = append(args, "password", n.password)
	}
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}

	if _, err := n.runner(ctx, "nmcli", args...); err != nil {
		// The password is part of args; report only the SSID.
		return "", fmt.Errorf("%w: joining %q: %w", ErrConnectFailed, n.ssid, err)
	}
	if err := n.checkState(ctx); err != nil {
		return "", err
	}
	return n.localAddress(ctx), nil
}

// checkState asks NetworkManager for the overall state; only full
// connectivity ("connected") counts.
func (n *NMCLI) checkState(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, nmcliQueryTimeout)
	defer cancel()

	out, err := n.runner(ctx, "nmcli", "-t", "-f", "STATE", "general")
	if err != nil {
		return fmt.Errorf("%w: querying state: %w", ErrConnectFailed, err)
	}
	if state := strings.TrimSpace(string(out)); state != "connected" {
		return fmt.Errorf("%w: network state %q", ErrConnectFailed, state)
	}
	return nil
}

func (n *NMCLI) localAddress(ctx context.Context) string {
	if n.iface == "" {
		return firstIPv4()
	}

	ctx, cancel := context.WithTimeout(ctx, nmcliQueryTimeout)
	defer cancel()

	out, err := n.runner(ctx, "nmcli", "-g", "IP4.ADDRESS", "device", "show", n.iface)
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "|")
	addr, _, _ := strings.Cut(strings.TrimSpace(first), "/")
	return addr
}

// Network is one entry of a Wi-Fi scan.
type Network struct {
	SSID   string
	Signal int
}

// Scan lists visible Wi-Fi networks, strongest first. Hidden networks
// (empty SSID) are omitted.
func (n *NMCLI) Scan(ctx context.Context) ([]Network, error) {
	ctx, cancel := context.WithTimeout(ctx, nmcliConnectWait)
	defer cancel()

	args := []string{"-t", "-f", "SSID,SIGNAL", "device", "wifi", "list", "--rescan", "yes"}
	if n.iface != "" {
		args = append(args, "ifname", n.iface)
	}
	out, err := n.runner(ctx, "nmcli", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning: %w", ErrConnectFailed, err)
	}
	return parseScan(out), nil
}

// parseScan reads nmcli terse output, where ':' inside a field is escaped as '\:'.
func parseScan(out []byte) []Network {
	var networks []Network

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		sep := strings.LastIndex(line, ":")
		if sep < 0 {
			continue
		}
		ssid := strings.ReplaceAll(line[:sep], `\:`, ":")
		signal, err := strconv.Atoi(line[sep+1:])
		if ssid == "" || err != nil {
			continue
		}
		networks = append(networks, Network{SSID: ssid, Signal: signal})
	}

	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})
	return networks
}
