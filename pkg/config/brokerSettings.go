package config

// BrokerSettings holds configuration for the optional outbound event
// mirror. An empty Type disables mirroring.
type BrokerSettings struct {
	Type      string `mapstructure:"type" validate:"omitempty,oneof=rabbitmq gcp-pubsub"`
	URL       string `mapstructure:"url"`
	Exchange  string `mapstructure:"exchange"`
	PoolSize  int    `mapstructure:"pool_size"`
	ProjectID string `mapstructure:"projectID"` // Optional for brokers like GCP Pub/Sub
}
