package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// validConfig returns a config that passes validation with the http transport.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Node.ID = "node-test"
	cfg.Collector.URL = "http://collector.local/exec"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  id: "station-01"
  name: "Roof"
sensor:
  driver: "simulated"
collector:
  transport: "http"
  url: "http://collector.local/exec"
  timeout: "2s"
queue:
  path: "/tmp/offline.txt"
scheduler:
  tick_interval: "100ms"
  upload_interval: "10s"
  cooldown: "5m"
  max_reconnect_attempts: 3
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ID != "station-01" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "station-01")
	}
	if cfg.Collector.Timeout != 2*time.Second {
		t.Errorf("Collector.Timeout = %v, want 2s", cfg.Collector.Timeout)
	}
	if cfg.Scheduler.UploadInterval != 10*time.Second {
		t.Errorf("Scheduler.UploadInterval = %v, want 10s", cfg.Scheduler.UploadInterval)
	}
	if cfg.Scheduler.Cooldown != 5*time.Minute {
		t.Errorf("Scheduler.Cooldown = %v, want 5m", cfg.Scheduler.Cooldown)
	}
	if cfg.Scheduler.MaxReconnectAttempts != 3 {
		t.Errorf("Scheduler.MaxReconnectAttempts = %d, want 3", cfg.Scheduler.MaxReconnectAttempts)
	}
	// Defaults survive for keys not present in the file
	if cfg.Scheduler.LogInterval != 2*time.Second {
		t.Errorf("Scheduler.LogInterval = %v, want default 2s", cfg.Scheduler.LogInterval)
	}
	if cfg.MQTT.Broker.ClientID != "weathernode-station-01" {
		t.Errorf("MQTT.Broker.ClientID = %q, want derived from node id", cfg.MQTT.Broker.ClientID)
	}
}

func TestLoad_GeneratesNodeID(t *testing.T) {
	content := `
sensor:
  driver: "simulated"
collector:
  url: "http://collector.local/exec"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !strings.HasPrefix(cfg.Node.ID, "node-") {
		t.Errorf("Node.ID = %q, want generated node- prefix", cfg.Node.ID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
collector:
  transport: "http"
  url: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for empty collector.url, got nil")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown sensor driver",
			mutate:  func(c *Config) { c.Sensor.Driver = "bme680" },
			wantErr: true,
		},
		{
			name:    "iio without path",
			mutate:  func(c *Config) { c.Sensor.IIOPath = "" },
			wantErr: true,
		},
		{
			name:    "probe link without address",
			mutate:  func(c *Config) { c.Link.Type = "probe" },
			wantErr: true,
		},
		{
			name: "probe link with address",
			mutate: func(c *Config) {
				c.Link.Type = "probe"
				c.Link.ProbeAddress = "collector.local:443"
			},
			wantErr: false,
		},
		{
			name:    "nmcli link without ssid",
			mutate:  func(c *Config) { c.Link.Type = "nmcli" },
			wantErr: true,
		},
		{
			name:    "mqtt transport needs mqtt link",
			mutate:  func(c *Config) { c.Collector.Transport = "mqtt" },
			wantErr: true,
		},
		{
			name: "mqtt transport with mqtt link",
			mutate: func(c *Config) {
				c.Collector.Transport = "mqtt"
				c.Link.Type = "mqtt"
			},
			wantErr: false,
		},
		{
			name: "invalid QoS",
			mutate: func(c *Config) {
				c.Link.Type = "mqtt"
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name:    "influxdb transport without bucket",
			mutate:  func(c *Config) { c.Collector.Transport = "influxdb" },
			wantErr: true,
		},
		{
			name: "kafka transport",
			mutate: func(c *Config) {
				c.Collector.Transport = "kafka"
				c.Kafka.Brokers = []string{"localhost:9092"}
				c.Kafka.Topic = "readings"
			},
			wantErr: false,
		},
		{
			name:    "unknown queue backend",
			mutate:  func(c *Config) { c.Queue.Backend = "redis" },
			wantErr: true,
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Scheduler.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero reconnect attempts",
			mutate:  func(c *Config) { c.Scheduler.MaxReconnectAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "connect poll longer than wait",
			mutate:  func(c *Config) { c.Scheduler.ConnectPoll = time.Minute },
			wantErr: true,
		},
		{
			name:    "led indicator without path",
			mutate:  func(c *Config) { c.Indicator.Type = "led" },
			wantErr: true,
		},
		{
			name:    "gpio indicator without pin",
			mutate:  func(c *Config) { c.Indicator.Type = "gpio" },
			wantErr: true,
		},
		{
			name:    "bmp280 at default address",
			mutate:  func(c *Config) { c.Sensor.Driver = "bmp280" },
			wantErr: false,
		},
		{
			name: "bmp280 at foreign address",
			mutate: func(c *Config) {
				c.Sensor.Driver = "bmp280"
				c.Sensor.I2CAddress = 0x40
			},
			wantErr: true,
		},
		{
			name:    "node id with topic wildcard",
			mutate:  func(c *Config) { c.Node.ID = "node/#" },
			wantErr: true,
		},
		{
			name: "disabled responder skips listen check",
			mutate: func(c *Config) {
				c.Responder.Enabled = false
				c.Responder.Listen = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Sensor.Driver = "unknown"
	cfg.Queue.Backend = "unknown"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.Contains(err.Error(), "sensor.driver") || !strings.Contains(err.Error(), "queue.backend") {
		t.Errorf("Validate() error = %v, want both problems reported", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("WEATHERNODE_NODE_ID", "env-node")
	t.Setenv("WEATHERNODE_LINK_SSID", "field-ap")
	t.Setenv("WEATHERNODE_LINK_PASSWORD", "wifi-secret")
	t.Setenv("WEATHERNODE_COLLECTOR_URL", "https://collector.example.com/exec")
	t.Setenv("WEATHERNODE_QUEUE_PATH", "/var/lib/weathernode/offline.txt")
	t.Setenv("WEATHERNODE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("WEATHERNODE_MQTT_PASSWORD", "testpass")
	t.Setenv("WEATHERNODE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Node.ID != "env-node" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "env-node")
	}
	if cfg.Link.SSID != "field-ap" {
		t.Errorf("Link.SSID = %q, want %q", cfg.Link.SSID, "field-ap")
	}
	if cfg.Link.Password != "wifi-secret" {
		t.Errorf("Link.Password = %q, want %q", cfg.Link.Password, "wifi-secret")
	}
	if cfg.Collector.URL != "https://collector.example.com/exec" {
		t.Errorf("Collector.URL = %q", cfg.Collector.URL)
	}
	if cfg.Queue.Path != "/var/lib/weathernode/offline.txt" {
		t.Errorf("Queue.Path = %q", cfg.Queue.Path)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Scheduler.TickInterval != 100*time.Millisecond {
		t.Errorf("defaultConfig TickInterval = %v, want 100ms", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.MaxReconnectAttempts != 5 {
		t.Errorf("defaultConfig MaxReconnectAttempts = %d, want 5", cfg.Scheduler.MaxReconnectAttempts)
	}
	if cfg.Scheduler.Cooldown != 5*time.Minute {
		t.Errorf("defaultConfig Cooldown = %v, want 5m", cfg.Scheduler.Cooldown)
	}
	if cfg.Queue.Backend != "file" {
		t.Errorf("defaultConfig Queue.Backend = %q, want file", cfg.Queue.Backend)
	}
}

func TestConfig_MQTTTopic(t *testing.T) {
	cfg := validConfig()

	if got := cfg.MQTTTopic("reading"); got != "weathernode/node-test/reading" {
		t.Errorf("MQTTTopic() = %q", got)
	}
}
