package broker

import (
	"context"
	"fmt"

	"github.com/zoff-tech/catalog-ingest/pkg/config"
)

// NewBroker builds the event mirror selected by configuration. An empty
// type returns nil: events then stay in-process.
func NewBroker(ctx context.Context, cfg *config.BrokerSettings) (MessageBroker, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "rabbitmq":
		return NewRabbitMqBroker(ctx, cfg)
	case "gcp-pubsub":
		return NewPubSubClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s", cfg.Type)
	}
}
