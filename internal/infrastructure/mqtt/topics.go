package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "weathernode"

// Topics builds the MQTT topics of one node:
//
//	{prefix}/{node_id}/reading   readings (not retained)
//	{prefix}/{node_id}/status    retained online/offline status and LWT
type Topics struct {
	prefix string
	nodeID string
}

// NewTopics returns the topic builder for nodeID.
func NewTopics(prefix, nodeID string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix, nodeID: nodeID}
}

// Reading returns the topic readings are published to.
//
// Example: weathernode/node-1a2b3c4d/reading
func (t Topics) Reading() string {
	return t.join("reading")
}

// Status returns the retained status topic.
//
// Example: weathernode/node-1a2b3c4d/status
func (t Topics) Status() string {
	return t.join("status")
}

func (t Topics) join(suffix string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix, t.nodeID, suffix)
}
