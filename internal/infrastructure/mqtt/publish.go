package mqtt

import (
	"context"
	"fmt"
)

// maxPayloadSize caps a single message at 64 KiB; a reading is well under 200 bytes.
const maxPayloadSize = 64 << 10

// Publish sends payload to topic and waits for the broker acknowledgement
// (for QoS > 0) or until ctx is done.
//
// Returns:
//   - ErrInvalidTopic, ErrInvalidQoS for bad arguments
//   - ErrNotConnected if no session is up
//   - ErrPublishFailed wrapping the cause otherwise
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishReading publishes a reading payload at the configured QoS, not retained.
func (c *Client) PublishReading(ctx context.Context, payload []byte) error {
	return c.Publish(ctx, c.topics.Reading(), payload, byte(c.cfg.QoS), false)
}
