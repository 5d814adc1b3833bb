// Package telemetry defines the Reading exchanged between the sensor, the
// offline queue, the collector sinks and the status page, together with the
// line encoding used by the offline store.
package telemetry
