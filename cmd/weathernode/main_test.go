package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/infrastructure/logging"
	"github.com/nerrad567/weather-node/internal/responder"
)

// writeNodeConfig writes a config for a simulated node with a static link.
func writeNodeConfig(t *testing.T, listen, collectorURL string) string {
	t.Helper()
	dir := t.TempDir()
	content := `
node:
  id: "test-node"
  name: "Test Node"
sensor:
  driver: "simulated"
link:
  type: "static"
collector:
  transport: "http"
  url: "` + collectorURL + `"
  timeout: "1s"
queue:
  backend: "file"
  path: "` + filepath.Join(dir, "offline.txt") + `"
scheduler:
  tick_interval: "10ms"
  upload_interval: "50ms"
responder:
  enabled: true
  listen: "` + listen + `"
time_service:
  enabled: false
indicator:
  type: "none"
logging:
  level: "error"
  format: "text"
  output: "stderr"
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(configEnv, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, nil)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("run() error = %v, want config.ErrInvalid", err)
	}
}

// TestRun_ResponderListenFailure verifies a node that cannot serve its
// status page does not start.
func TestRun_ResponderListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer busy.Close()

	t.Setenv(configEnv, writeNodeConfig(t, busy.Addr().String(), "http://127.0.0.1:1/exec"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, nil)
	if !errors.Is(err, responder.ErrListen) {
		t.Fatalf("run() error = %v, want responder.ErrListen", err)
	}
}

// TestRun_UploadsAndStops runs a node against a fake collector until the
// context ends.
func TestRun_UploadsAndStops(t *testing.T) {
	uploads := make(chan string, 64)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case uploads <- r.URL.RawQuery:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	t.Setenv(configEnv, writeNodeConfig(t, "127.0.0.1:0", collector.URL+"/exec"))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx, nil); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	select {
	case query := <-uploads:
		for _, param := range []string{"time=", "sensor1=", "pressure="} {
			if !strings.Contains(query, param) {
				t.Errorf("upload query %q missing %s", query, param)
			}
		}
	default:
		t.Error("collector received no uploads")
	}
}

// TestRun_InterruptRequestsRestart verifies SIGINT ends run with errRestart.
func TestRun_InterruptRequestsRestart(t *testing.T) {
	t.Setenv(configEnv, writeNodeConfig(t, "127.0.0.1:0", "http://127.0.0.1:1/exec"))

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, interrupts); !errors.Is(err, errRestart) {
		t.Fatalf("run() error = %v, want errRestart", err)
	}
	if ctx.Err() != nil {
		t.Error("run should return on the interrupt, not the test timeout")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv(configEnv, "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv(configEnv, expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestBuildLink_UnknownType verifies link selection rejects unknown types.
func TestBuildLink_UnknownType(t *testing.T) {
	cfg := &config.Config{Link: config.LinkConfig{Type: "carrier-pigeon"}}

	if _, _, err := buildLink(context.Background(), cfg, nil, nil); err == nil {
		t.Error("buildLink() should fail for an unknown link type")
	}
}

// TestBuildLink_MQTTWithoutClient verifies the mqtt link needs a client.
func TestBuildLink_MQTTWithoutClient(t *testing.T) {
	cfg := &config.Config{Link: config.LinkConfig{Type: "mqtt"}}

	if _, _, err := buildLink(context.Background(), cfg, nil, nil); err == nil {
		t.Error("buildLink() should fail without an MQTT client")
	}
}

// TestOpenQueue_SQLite verifies the sqlite backend opens, migrates and
// passes its health check.
func TestOpenQueue_SQLite(t *testing.T) {
	cfg := &config.Config{
		Queue:    config.QueueConfig{Backend: "sqlite"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "queue.db"), WALMode: true, BusyTimeout: 5},
	}

	q, closer, err := openQueue(context.Background(), cfg, logging.Default())
	if err != nil {
		t.Fatalf("openQueue() error = %v", err)
	}
	defer closer.Close()

	if got := q.Len(context.Background()); got != 0 {
		t.Errorf("Len() = %d, want 0 for a fresh database", got)
	}
}

type checkedClient struct {
	err      error
	deadline bool
}

func (c *checkedClient) Close() error { return nil }

func (c *checkedClient) HealthCheck(ctx context.Context) error {
	_, c.deadline = ctx.Deadline()
	return c.err
}

// TestTransportHealth verifies only clients with a health check are checked.
func TestTransportHealth(t *testing.T) {
	errDown := errors.New("server not healthy")

	tests := []struct {
		name        string
		client      io.Closer
		wantChecked bool
		wantErr     error
	}{
		{"no health check", nopCloser{}, false, nil},
		{"healthy", &checkedClient{}, true, nil},
		{"unhealthy", &checkedClient{err: errDown}, true, errDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checked, err := transportHealth(context.Background(), tt.client, time.Second)
			if checked != tt.wantChecked {
				t.Errorf("checked = %v, want %v", checked, tt.wantChecked)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if c, ok := tt.client.(*checkedClient); ok && !c.deadline {
				t.Error("health check ran without a deadline")
			}
		})
	}
}
