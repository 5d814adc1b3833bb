package mqtt

import (
	"context"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the weather node.
//
// Unlike a long-running service client it does not reconnect on its own:
// the connectivity supervisor decides when to retry and calls Connect.
// While a session is up, the broker holds a retained online status for the
// node and publishes the Last Will if the session dies.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics
	broker string

	connected  atomic.Bool
	connecting atomic.Bool

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// New builds a client for the broker in cfg. It does not connect.
func New(cfg config.MQTTConfig, nodeID string) *Client {
	c := &Client{
		cfg:    cfg,
		topics: NewTopics(cfg.TopicPrefix, nodeID),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics.Status(), cfg.Broker.ClientID)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.broker = brokerURL(cfg)
	c.client = pahomqtt.NewClient(opts)
	return c
}

// Connect requests a session and returns without waiting for it.
// Progress is observed through IsConnected. A request made while one is
// already in flight, or while connected, is a no-op.
func (c *Client) Connect(_ context.Context) error {
	if c.connected.Load() || !c.connecting.CompareAndSwap(false, true) {
		return nil
	}

	token := c.client.Connect()
	go func() {
		defer c.connecting.Store(false)
		<-token.Done()
		if err := token.Error(); err != nil {
			c.warn("MQTT connect failed", "broker", c.broker, "error", err)
		}
	}()
	return nil
}

// handleConnect runs on paho's goroutine once the session is established.
func (c *Client) handleConnect() {
	c.connected.Store(true)

	payload := buildOnlinePayload(c.cfg.Broker.ClientID)
	c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true, payload)

	c.info("MQTT connected", "broker", c.broker)
}

// handleDisconnect runs on paho's goroutine when the session is lost.
func (c *Client) handleDisconnect(err error) {
	c.connected.Store(false)
	c.warn("MQTT connection lost", "broker", c.broker, "error", err)
}

// IsConnected reports whether a session is currently up.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client.IsConnected()
}

// Address returns the broker URL.
func (c *Client) Address() string {
	return c.broker
}

// Topics returns the topic builder bound to this node.
func (c *Client) Topics() Topics {
	return c.topics
}

// Close publishes a graceful offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true, buildOfflinePayload(c.cfg.Broker.ClientID))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// SetLogger sets a logger for connection events.
// If not set, events are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) info(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
