package sink

import (
	"fmt"
	"io"

	"github.com/nerrad567/weather-node/internal/infrastructure/collector"
	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/infrastructure/influxdb"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewTransport builds the transport named by cfg.Collector.Transport.
// publisher is required for the mqtt transport and ignored otherwise.
// The returned closer releases the transport's client.
func NewTransport(cfg *config.Config, publisher ReadingPublisher) (Transport, io.Closer, error) {
	switch cfg.Collector.Transport {
	case "http":
		return NewHTTP(collector.New(cfg.Collector)), nopCloser{}, nil
	case "mqtt":
		if publisher == nil {
			return nil, nil, fmt.Errorf("%w: mqtt transport needs an MQTT client", ErrUnknownTransport)
		}
		return NewMQTT(publisher, cfg.Node.ID), nopCloser{}, nil
	case "influxdb":
		client := influxdb.New(cfg.InfluxDB)
		return NewInfluxDB(client, cfg.Node.ID), client, nil
	case "kafka":
		k := NewKafka(NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.RequiredAcks), cfg.Node.ID)
		return k, k, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Collector.Transport)
	}
}
