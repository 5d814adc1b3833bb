package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/nerrad567/weather-node/internal/infrastructure/collector"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// payload is the JSON body used by the message-oriented transports.
type payload struct {
	NodeID      string  `json:"node_id"`
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
}

// EncodeJSON renders r as the JSON payload published by the mqtt and kafka transports.
func EncodeJSON(nodeID string, r telemetry.Reading) ([]byte, error) {
	body, err := json.Marshal(payload{
		NodeID:      nodeID,
		Timestamp:   r.Timestamp,
		Temperature: r.Temperature,
		Pressure:    r.Pressure,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %w", ErrDelivery, err)
	}
	return body, nil
}

// HTTP delivers with a GET to the collector endpoint.
type HTTP struct {
	client *collector.Client
}

// NewHTTP returns the http transport.
func NewHTTP(client *collector.Client) *HTTP {
	return &HTTP{client: client}
}

// Name implements Transport.
func (*HTTP) Name() string { return "http" }

// Deliver implements Transport. Any response counts as delivered.
func (h *HTTP) Deliver(ctx context.Context, r telemetry.Reading) error {
	_, err := h.client.Upload(ctx, r)
	return err
}

// ReadingPublisher is the part of the MQTT client the mqtt transport uses.
type ReadingPublisher interface {
	PublishReading(ctx context.Context, payload []byte) error
}

// MQTT publishes a JSON payload to the node's reading topic.
type MQTT struct {
	publisher ReadingPublisher
	nodeID    string
}

// NewMQTT returns the mqtt transport.
func NewMQTT(publisher ReadingPublisher, nodeID string) *MQTT {
	return &MQTT{publisher: publisher, nodeID: nodeID}
}

// Name implements Transport.
func (*MQTT) Name() string { return "mqtt" }

// Deliver implements Transport. Success is the publish being acknowledged.
func (m *MQTT) Deliver(ctx context.Context, r telemetry.Reading) error {
	body, err := EncodeJSON(m.nodeID, r)
	if err != nil {
		return err
	}
	return m.publisher.PublishReading(ctx, body)
}

// PointWriter is the part of the InfluxDB client the influxdb transport uses.
type PointWriter interface {
	WriteReading(ctx context.Context, nodeID string, r telemetry.Reading) error
}

// InfluxDB writes one point per reading.
type InfluxDB struct {
	writer PointWriter
	nodeID string
}

// NewInfluxDB returns the influxdb transport.
func NewInfluxDB(writer PointWriter, nodeID string) *InfluxDB {
	return &InfluxDB{writer: writer, nodeID: nodeID}
}

// Name implements Transport.
func (*InfluxDB) Name() string { return "influxdb" }

// Deliver implements Transport.
func (i *InfluxDB) Deliver(ctx context.Context, r telemetry.Reading) error {
	return i.writer.WriteReading(ctx, i.nodeID, r)
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka produces one message per reading, keyed by node id so a node's
// readings stay ordered within a partition.
type Kafka struct {
	writer MessageWriter
	nodeID string
}

// NewKafka returns the kafka transport.
func NewKafka(writer MessageWriter, nodeID string) *Kafka {
	return &Kafka{writer: writer, nodeID: nodeID}
}

// NewKafkaWriter builds a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string, requiredAcks int) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(requiredAcks),
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
}

// Name implements Transport.
func (*Kafka) Name() string { return "kafka" }

// Deliver implements Transport. WriteMessages returns once the brokers
// acknowledged per RequiredAcks.
func (k *Kafka) Deliver(ctx context.Context, r telemetry.Reading) error {
	body, err := EncodeJSON(k.nodeID, r)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(k.nodeID),
		Value: body,
	})
}

// Close closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
