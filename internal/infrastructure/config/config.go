package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the weather node.
// All configuration is loaded from YAML and can be overridden by environment variables.
// Once loaded it is treated as immutable and passed by value into the components.
type Config struct {
	Node        NodeConfig        `yaml:"node"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Link        LinkConfig        `yaml:"link"`
	Collector   CollectorConfig   `yaml:"collector"`
	Queue       QueueConfig       `yaml:"queue"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Responder   ResponderConfig   `yaml:"responder"`
	Indicator   IndicatorConfig   `yaml:"indicator"`
	TimeService TimeServiceConfig `yaml:"time_service"`
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	// ID is used in topics, tags and log fields. Generated when empty.
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// RestartOnInterrupt re-executes the binary on SIGINT instead of exiting.
	RestartOnInterrupt bool `yaml:"restart_on_interrupt"`
}

// SensorConfig selects and configures the sensor driver.
type SensorConfig struct {
	// Driver is "iio" (Linux IIO sysfs), "bmp280" (direct I2C) or "simulated".
	Driver string `yaml:"driver"`

	// IIOPath is the IIO device directory, e.g. /sys/bus/iio/devices/iio:device0
	IIOPath string `yaml:"iio_path"`

	// I2CBus names the bus for the bmp280 driver, e.g. "1"; empty picks the first.
	I2CBus string `yaml:"i2c_bus"`

	// I2CAddress is the sensor address, 0x76 or 0x77.
	I2CAddress uint16 `yaml:"i2c_address"`

	Simulated SimulatedSensorConfig `yaml:"simulated"`
}

// SimulatedSensorConfig contains the random-walk parameters of the simulated sensor.
type SimulatedSensorConfig struct {
	BaseTemperature float64 `yaml:"base_temperature"`
	BasePressure    float64 `yaml:"base_pressure"`
	MaxStep         float64 `yaml:"max_step"`
	Seed            int64   `yaml:"seed"`
}

// LinkConfig contains the network link settings and credentials.
type LinkConfig struct {
	// Type is "static", "probe", "nmcli" or "mqtt".
	Type string `yaml:"type"`

	// SSID and Password are the Wi-Fi credentials used by the nmcli link.
	SSID      string `yaml:"ssid"`
	Password  string `yaml:"password"`
	Interface string `yaml:"interface"`

	// ScanOnStart logs the visible Wi-Fi networks before the first connect.
	ScanOnStart bool `yaml:"scan_on_start"`

	// ProbeAddress is the host:port dialled by the probe link.
	ProbeAddress string        `yaml:"probe_address"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Keepalive is how often a connected link re-verifies itself.
	Keepalive time.Duration `yaml:"keepalive"`
}

// CollectorConfig contains the remote collector settings.
type CollectorConfig struct {
	// Transport is "http", "mqtt", "influxdb" or "kafka".
	Transport string `yaml:"transport"`

	// URL is the GET endpoint used by the http transport.
	URL string `yaml:"url"`

	// Timeout bounds every delivery attempt.
	Timeout time.Duration `yaml:"timeout"`

	// ReclaimMemory returns freed heap to the OS after each attempt.
	ReclaimMemory bool `yaml:"reclaim_memory"`
}

// QueueConfig contains the offline queue settings.
type QueueConfig struct {
	// Backend is "file" (line records) or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the line file used by the file backend.
	Path string `yaml:"path"`
}

// SchedulerConfig holds the fixed intervals of the tick loop.
type SchedulerConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval"`
	LogInterval       time.Duration `yaml:"log_interval"`
	UploadInterval    time.Duration `yaml:"upload_interval"`
	UploadPacing      time.Duration `yaml:"upload_pacing"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`

	// ConnectWait bounds how long a single reconnect attempt may stay in Connecting.
	ConnectWait time.Duration `yaml:"connect_wait"`

	// ConnectPoll is the busy indicator blink period while connecting.
	ConnectPoll time.Duration `yaml:"connect_poll"`

	Cooldown             time.Duration `yaml:"cooldown"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

// ResponderConfig contains the status responder settings.
type ResponderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Listen          string        `yaml:"listen"`
	AcceptTimeout   time.Duration `yaml:"accept_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxRequestBytes int           `yaml:"max_request_bytes"`
}

// IndicatorConfig selects the status indicator.
type IndicatorConfig struct {
	// Type is "none", "log", "led" or "gpio".
	Type string `yaml:"type"`

	// LEDPath is the sysfs brightness file, e.g. /sys/class/leds/led0/brightness
	LEDPath string `yaml:"led_path"`

	// GPIOPin names the pin driving the gpio indicator, e.g. "GPIO17".
	GPIOPin string `yaml:"gpio_pin"`
}

// TimeServiceConfig configures the one-shot connectivity sanity check.
type TimeServiceConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Field   string        `yaml:"field"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	RequiredAcks int      `yaml:"required_acks"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WEATHERNODE_SECTION_KEY
// For example: WEATHERNODE_QUEUE_PATH, WEATHERNODE_LINK_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file: %w", ErrInvalid, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file: %w", ErrInvalid, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Node.ID == "" {
		cfg.Node.ID = generateNodeID()
	}
	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = "weathernode-" + cfg.Node.ID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// generateNodeID returns a short random identifier for nodes deployed without one.
func generateNodeID() string {
	return "node-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			Name:               "Weather Station",
			RestartOnInterrupt: true,
		},
		Sensor: SensorConfig{
			Driver:     "iio",
			IIOPath:    "/sys/bus/iio/devices/iio:device0",
			I2CAddress: 0x76,
			Simulated: SimulatedSensorConfig{
				BaseTemperature: 21.0,
				BasePressure:    1013.25,
				MaxStep:         0.05,
			},
		},
		Link: LinkConfig{
			Type:         "static",
			ProbeTimeout: 3 * time.Second,
			Keepalive:    30 * time.Second,
		},
		Collector: CollectorConfig{
			Transport: "http",
			Timeout:   5 * time.Second,
		},
		Queue: QueueConfig{
			Backend: "file",
			Path:    "./data/offline_readings.txt",
		},
		Scheduler: SchedulerConfig{
			TickInterval:         100 * time.Millisecond,
			LogInterval:          2 * time.Second,
			UploadInterval:       5 * time.Second,
			UploadPacing:         500 * time.Millisecond,
			ReconnectInterval:    30 * time.Second,
			ConnectWait:          10 * time.Second,
			ConnectPoll:          time.Second,
			Cooldown:             5 * time.Minute,
			MaxReconnectAttempts: 5,
		},
		Responder: ResponderConfig{
			Enabled:         true,
			Listen:          "0.0.0.0:80",
			AcceptTimeout:   50 * time.Millisecond,
			ReadTimeout:     500 * time.Millisecond,
			WriteTimeout:    2 * time.Second,
			MaxRequestBytes: 1024,
		},
		Indicator: IndicatorConfig{
			Type: "log",
		},
		TimeService: TimeServiceConfig{
			Enabled: true,
			URL:     "https://timeapi.io/api/time/current/zone?timeZone=UTC",
			Field:   "dateTime",
			Timeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/weathernode.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:         1,
			TopicPrefix: "weathernode",
		},
		InfluxDB: InfluxDBConfig{
			Measurement: "environment",
		},
		Kafka: KafkaConfig{
			RequiredAcks: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./data/weathernode.log",
				MaxSize:    5,
				MaxBackups: 3,
				MaxAge:     14,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WEATHERNODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEATHERNODE_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}

	// Link credentials
	if v := os.Getenv("WEATHERNODE_LINK_SSID"); v != "" {
		cfg.Link.SSID = v
	}
	if v := os.Getenv("WEATHERNODE_LINK_PASSWORD"); v != "" {
		cfg.Link.Password = v
	}

	if v := os.Getenv("WEATHERNODE_COLLECTOR_URL"); v != "" {
		cfg.Collector.URL = v
	}

	if v := os.Getenv("WEATHERNODE_QUEUE_PATH"); v != "" {
		cfg.Queue.Path = v
	}
	if v := os.Getenv("WEATHERNODE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("WEATHERNODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WEATHERNODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WEATHERNODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("WEATHERNODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are collected so a single startup failure reports every
// misconfigured field.
//
// Returns:
//   - error: Wraps ErrInvalid with a description of each problem, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	} else if strings.ContainsAny(c.Node.ID, "/+# ") {
		errs = append(errs, "node.id must not contain '/', '+', '#' or spaces")
	}

	errs = append(errs, c.Sensor.validate()...)
	errs = append(errs, c.Link.validate()...)
	errs = append(errs, c.validateCollector()...)
	errs = append(errs, c.validateQueue()...)
	errs = append(errs, c.Scheduler.validate()...)
	errs = append(errs, c.Responder.validate()...)

	switch c.Indicator.Type {
	case "none", "log":
	case "led":
		if c.Indicator.LEDPath == "" {
			errs = append(errs, "indicator.led_path is required for the led indicator")
		}
	case "gpio":
		if c.Indicator.GPIOPin == "" {
			errs = append(errs, "indicator.gpio_pin is required for the gpio indicator")
		}
	default:
		errs = append(errs, fmt.Sprintf("indicator.type %q is not one of none, log, led, gpio", c.Indicator.Type))
	}

	if c.TimeService.Enabled {
		if c.TimeService.URL == "" {
			errs = append(errs, "time_service.url is required when the time service is enabled")
		}
		if c.TimeService.Timeout <= 0 {
			errs = append(errs, "time_service.timeout must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}

	return nil
}

func (s SensorConfig) validate() []string {
	switch s.Driver {
	case "iio":
		if s.IIOPath == "" {
			return []string{"sensor.iio_path is required for the iio driver"}
		}
	case "bmp280":
		if s.I2CAddress != 0x76 && s.I2CAddress != 0x77 {
			return []string{fmt.Sprintf("sensor.i2c_address %#x is not 0x76 or 0x77", s.I2CAddress)}
		}
	case "simulated":
		if s.Simulated.MaxStep < 0 {
			return []string{"sensor.simulated.max_step must not be negative"}
		}
	default:
		return []string{fmt.Sprintf("sensor.driver %q is not one of iio, bmp280, simulated", s.Driver)}
	}
	return nil
}

func (l LinkConfig) validate() []string {
	var errs []string
	switch l.Type {
	case "static", "mqtt":
	case "probe":
		if l.ProbeAddress == "" {
			errs = append(errs, "link.probe_address is required for the probe link")
		}
		if l.ProbeTimeout <= 0 {
			errs = append(errs, "link.probe_timeout must be positive")
		}
		if l.Keepalive <= 0 {
			errs = append(errs, "link.keepalive must be positive")
		}
	case "nmcli":
		if l.SSID == "" {
			errs = append(errs, "link.ssid is required for the nmcli link (set WEATHERNODE_LINK_SSID)")
		}
		if l.Keepalive <= 0 {
			errs = append(errs, "link.keepalive must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("link.type %q is not one of static, probe, nmcli, mqtt", l.Type))
	}
	return errs
}

func (c *Config) validateCollector() []string {
	var errs []string

	if c.Collector.Timeout <= 0 {
		errs = append(errs, "collector.timeout must be positive")
	}

	switch c.Collector.Transport {
	case "http":
		if c.Collector.URL == "" {
			errs = append(errs, "collector.url is required for the http transport (set WEATHERNODE_COLLECTOR_URL)")
		}
	case "mqtt":
		if c.Link.Type != "mqtt" {
			errs = append(errs, "link.type must be mqtt when collector.transport is mqtt")
		}
	case "influxdb":
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required for the influxdb transport")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			errs = append(errs, "kafka.brokers and kafka.topic are required for the kafka transport")
		}
	default:
		errs = append(errs, fmt.Sprintf("collector.transport %q is not one of http, mqtt, influxdb, kafka", c.Collector.Transport))
	}

	if c.Link.Type == "mqtt" || c.Collector.Transport == "mqtt" {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	return errs
}

func (c *Config) validateQueue() []string {
	switch c.Queue.Backend {
	case "file":
		if c.Queue.Path == "" {
			return []string{"queue.path is required for the file backend"}
		}
	case "sqlite":
		if c.Database.Path == "" {
			return []string{"database.path is required for the sqlite backend"}
		}
	default:
		return []string{fmt.Sprintf("queue.backend %q is not one of file, sqlite", c.Queue.Backend)}
	}
	return nil
}

func (s SchedulerConfig) validate() []string {
	var errs []string

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"scheduler.tick_interval", s.TickInterval},
		{"scheduler.log_interval", s.LogInterval},
		{"scheduler.upload_interval", s.UploadInterval},
		{"scheduler.reconnect_interval", s.ReconnectInterval},
		{"scheduler.connect_wait", s.ConnectWait},
		{"scheduler.connect_poll", s.ConnectPoll},
		{"scheduler.cooldown", s.Cooldown},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			errs = append(errs, iv.name+" must be positive")
		}
	}

	if s.UploadPacing < 0 {
		errs = append(errs, "scheduler.upload_pacing must not be negative")
	}
	if s.ConnectPoll > s.ConnectWait {
		errs = append(errs, "scheduler.connect_poll must not exceed scheduler.connect_wait")
	}
	if s.MaxReconnectAttempts < 1 {
		errs = append(errs, "scheduler.max_reconnect_attempts must be at least 1")
	}

	return errs
}

func (r ResponderConfig) validate() []string {
	if !r.Enabled {
		return nil
	}

	var errs []string
	if r.Listen == "" {
		errs = append(errs, "responder.listen is required when the responder is enabled")
	}
	if r.AcceptTimeout <= 0 {
		errs = append(errs, "responder.accept_timeout must be positive")
	}
	if r.ReadTimeout <= 0 || r.WriteTimeout <= 0 {
		errs = append(errs, "responder.read_timeout and responder.write_timeout must be positive")
	}
	if r.MaxRequestBytes <= 0 {
		errs = append(errs, "responder.max_request_bytes must be positive")
	}
	return errs
}

// MQTTTopic joins the topic prefix, node id and the given suffix.
//
// Example: weathernode/node-1a2b3c4d/reading
func (c *Config) MQTTTopic(suffix string) string {
	return fmt.Sprintf("%s/%s/%s", c.MQTT.TopicPrefix, c.Node.ID, suffix)
}
