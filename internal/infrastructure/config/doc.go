// Package config handles loading and validating the weather node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The configuration surface is fixed at deploy time: network credentials, the
// collector endpoint, the time-service URL, the scheduler intervals and the
// reconnect attempt ceiling. There is no runtime reconfiguration; a loaded
// Config is passed into the components as an immutable value.
//
// Security Considerations:
//   - Credentials (Wi-Fi password, MQTT password, InfluxDB token) should be set
//     via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Scheduler.UploadInterval)
package config
