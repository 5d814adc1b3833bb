// Package scheduler multiplexes the node's concerns on one goroutine.
//
// A fixed-period tick reads the sensor, advances the connectivity
// supervisor, fires the log and upload timers and polls the request
// responder. Nothing inside a tick sleeps: the reconnect wait is a
// supervisor state and the paced queue drain is spread over ticks, one
// send per due step.
//
// Upload cycle:
//
//	disconnected              -> queue the reading
//	connected, queue empty    -> send it, queue it on failure
//	connected, queue pending  -> queue it, then drain the whole batch
//	drain already running     -> queue it behind the batch
//
// A drain stops at the first failed send and drops only the delivered
// prefix from the queue.
package scheduler
