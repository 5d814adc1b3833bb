// Package mqtt provides the MQTT session of the weather node.
//
// The client serves two roles: as a link (the session being up is what
// "connected" means when link.type is mqtt) and as a collector transport
// (readings are published to {prefix}/{node_id}/reading).
//
// # Connection model
//
// Connect only requests a session. The connectivity supervisor polls
// IsConnected and owns the retry budget, so paho's own auto-reconnect is
// disabled.
//
// # Status
//
// On connect the node publishes a retained {"status":"online"} to
// {prefix}/{node_id}/status. A clean Close publishes "offline" with reason
// graceful_shutdown; an unexpected drop triggers the Last Will with reason
// unexpected_disconnect.
//
// Usage:
//
//	client := mqtt.New(cfg.MQTT, cfg.Node.ID)
//	client.SetLogger(logger)
//	defer client.Close()
//
//	_ = client.Connect(ctx)
//	// ... later, once IsConnected() ...
//	err := client.PublishReading(ctx, payload)
package mqtt
