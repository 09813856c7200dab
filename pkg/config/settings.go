package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Settings struct {
	Database      DbSettings       `mapstructure:"database"`
	Broker        BrokerSettings   `mapstructure:"broker"`
	Import        ImportSettings   `mapstructure:"import"`
	Progress      ProgressSettings `mapstructure:"progress"`
	Webhook       WebhookSettings  `mapstructure:"webhook"`
	Observability Observability    `mapstructure:"observability"` // Observability settings
}

type DbSettings struct {
	Type       string `mapstructure:"type" validate:"required,oneof=postgres mongo spanner"`
	DSN        string `mapstructure:"dsn"`
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ImportSettings struct {
	ChunkSize  int  `mapstructure:"chunk_size" validate:"gte=1"`
	ReplaceAll bool `mapstructure:"replace_all"`
	PoolSize   int  `mapstructure:"pool_size" validate:"gte=1"`
}

type ProgressSettings struct {
	Path     string        `mapstructure:"path"`
	InMemory bool          `mapstructure:"in_memory"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type WebhookSettings struct {
	Timeout       time.Duration          `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries    int                    `mapstructure:"max_retries" validate:"gte=0"`
	RetryBackoff  time.Duration          `mapstructure:"retry_backoff" validate:"gt=0"`
	PoolSize      int                    `mapstructure:"pool_size" validate:"gte=1"`
	Subscriptions []SubscriptionSettings `mapstructure:"subscriptions" validate:"dive"`
}

type SubscriptionSettings struct {
	ID      string `mapstructure:"id" validate:"required"`
	URL     string `mapstructure:"url" validate:"required,url"`
	Event   string `mapstructure:"event" validate:"required"`
	Enabled bool   `mapstructure:"enabled"`
}

func (c *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Defaults are applied before validation so a minimal config file stays
// minimal.
func Defaults() {
	viper.SetDefault("import.chunk_size", 5000)
	viper.SetDefault("import.replace_all", true)
	viper.SetDefault("import.pool_size", 4)
	viper.SetDefault("progress.ttl", 24*time.Hour)
	viper.SetDefault("webhook.timeout", 15*time.Second)
	viper.SetDefault("webhook.max_retries", 3)
	viper.SetDefault("webhook.retry_backoff", 60*time.Second)
	viper.SetDefault("webhook.pool_size", 8)
}

func LoadFromFile(filePath string) (*Settings, error) {

	env := getEnvWithDefaultLookup("ENVIRONMENT", "development")

	cfg := &Settings{}
	viper.SetConfigType("yaml") // Set the config type to YAML
	viper.SetConfigName("worker")
	viper.AddConfigPath(filePath) // path to config
	viper.AddConfigPath(".")      // current directory

	Defaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found or read error: %v (will rely on env)", err)
	}

	err := mergeConfig(filePath, "worker."+env)
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error merging dev config: %s\n", err)
			os.Exit(1)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("Failed to load from env: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg, nil
}

func (c *Settings) LoadFromEnv() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // env vars like CATALOG_DATABASE_TYPE

	// Bind environment variables explicitly to ensure they map correctly
	viper.BindEnv("database.type")
	viper.BindEnv("database.dsn")
	viper.BindEnv("database.uri")
	viper.BindEnv("database.database")
	viper.BindEnv("database.collection")
	viper.BindEnv("broker.type")
	viper.BindEnv("broker.url")
	viper.BindEnv("broker.exchange")
	viper.BindEnv("broker.projectID")
	viper.BindEnv("import.chunk_size")
	viper.BindEnv("import.replace_all")
	viper.BindEnv("import.pool_size")
	viper.BindEnv("progress.path")
	viper.BindEnv("progress.in_memory")
	viper.BindEnv("progress.ttl")
	viper.BindEnv("webhook.timeout")
	viper.BindEnv("webhook.max_retries")
	viper.BindEnv("webhook.retry_backoff")
	viper.BindEnv("webhook.pool_size")
	viper.BindEnv("observability.service_name")
	viper.BindEnv("observability.tracing_url")
	viper.BindEnv("observability.metrics_url")

	if err := viper.Unmarshal(&c); err != nil {
		return err
	}
	return nil
}

func mergeConfig(path string, name string) error {
	viper.SetConfigName(name)
	viper.AddConfigPath(path)
	err := viper.MergeInConfig()
	if err != nil {
		return err
	}
	return nil
}

func getEnvWithDefaultLookup(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
