// Package sink delivers readings to the remote collector.
//
// A Transport knows one protocol (http GET, MQTT publish, InfluxDB point,
// Kafka message). NewUploader wraps it into a Sink whose Send is bounded by
// the collector timeout and reports success as a bool. Retrying is the
// scheduler's job; a Sink never retries internally.
package sink
