// Package influxdb provides the InfluxDB v2 collector transport.
//
// It wraps the official influxdb-client-go v2 library. Each reading becomes
// one point in the configured bucket, written synchronously so the caller
// knows whether the collector has it.
//
// # Usage
//
//	client := influxdb.New(cfg.InfluxDB)
//	defer client.Close()
//
//	err := client.WriteReading(ctx, cfg.Node.ID, reading)
//
// # Schema
//
// Measurement "environment" (configurable), tag node_id, fields temperature
// (°C), pressure (hPa) and reading_time (the original RFC 3339 stamp).
package influxdb
