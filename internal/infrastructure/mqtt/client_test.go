package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
// Unit tests in this file never need the broker to be running.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "weathernode-test",
		},
		QoS:         1,
		TopicPrefix: "weathernode",
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"reading", NewTopics("weathernode", "node-1").Reading(), "weathernode/node-1/reading"},
		{"status", NewTopics("weathernode", "node-1").Status(), "weathernode/node-1/status"},
		{"default prefix", NewTopics("", "node-1").Reading(), "weathernode/node-1/reading"},
		{"custom prefix", NewTopics("site/roof", "n2").Status(), "site/roof/n2/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}

	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "node"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want reconnection left to the supervisor")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false")
	}
	if opts.ClientID != "weathernode-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "node" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "weathernode/node-1/status", "weathernode-test")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatalf("will enabled=%v retained=%v, want both true", opts.WillEnabled, opts.WillRetained)
	}
	if opts.WillTopic != "weathernode/node-1/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" {
		t.Errorf("will payload = %v", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
	}{
		{"online", buildOnlinePayload("weathernode-test"), "online"},
		{"offline", buildOfflinePayload("weathernode-test"), "offline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			if err := json.Unmarshal([]byte(tt.payload), &got); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if got["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", got["status"], tt.wantStatus)
			}
			if got["client_id"] != "weathernode-test" {
				t.Errorf("client_id = %q", got["client_id"])
			}
			if _, err := time.Parse(time.RFC3339, got["timestamp"]); err != nil {
				t.Errorf("timestamp %q is not RFC3339: %v", got["timestamp"], err)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	client := New(testConfig(), "node-1")
	ctx := context.Background()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 0, ErrInvalidTopic},
		{"bad qos", "t", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "t", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "t", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(ctx, tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_NewIsDisconnected(t *testing.T) {
	client := New(testConfig(), "node-1")

	if client.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if client.Address() != "tcp://127.0.0.1:1883" {
		t.Errorf("Address() = %q", client.Address())
	}
	if err := client.PublishReading(context.Background(), []byte("{}")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishReading() error = %v, want ErrNotConnected", err)
	}
}

func TestClient_ConnectUnreachableBrokerStaysDisconnected(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // nothing listens here

	client := New(cfg, "node-1")
	defer client.Close() //nolint:errcheck // Test cleanup

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v, want the request accepted", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.connecting.Load() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true for an unreachable broker")
	}
}
