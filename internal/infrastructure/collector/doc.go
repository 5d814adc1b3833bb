// Package collector provides the HTTP client used to reach the remote
// collector and other plain HTTP endpoints (the time service).
//
// A reading is delivered as a single GET with the values in the query string,
// the format expected by spreadsheet-style collector scripts:
//
//	GET https://collector.example/exec?time=2026-10-18T09:15:00Z&sensor1=21.47&pressure=1013.25
//
// Usage:
//
//	client := collector.New(cfg.Collector)
//	status, err := client.Upload(ctx, reading)
package collector
