package broker

import "context"

// OrderingKeyHeader carries the per-subject sequencing identity. Brokers
// with native ordering (Pub/Sub) promote it out of the headers; others
// deliver it as a plain header.
const OrderingKeyHeader = "ordering_key"

// MessageBroker mirrors domain events to an external broker so consumers
// outside this process can react to catalog changes. The topic is the
// event name; the payload is the JSON envelope.
type MessageBroker interface {
	// Publish sends the envelope to the topic or exchange with optional headers.
	Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error
	// Close cleans up any resources (connections).
	Close() error
}
