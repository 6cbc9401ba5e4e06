package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	CartDBPath string `yaml:"cart_db_path"`

	Web      WebConfig      `yaml:"web"`
	Services ServicesConfig `yaml:"services"`
	Payment  PaymentConfig  `yaml:"payment"`
	Stream   StreamConfig   `yaml:"stream"`
}

// WebConfig defines the local web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// ServicesConfig points at the external platform services.
type ServicesConfig struct {
	AuthURL    string `yaml:"auth_url"`
	CatalogURL string `yaml:"catalog_url"`
	OrderURL   string `yaml:"order_url"`
}

// PaymentConfig holds the payment gateway hand-off settings.
type PaymentConfig struct {
	CheckoutURL string `yaml:"checkout_url"`
	MerchantID  string `yaml:"merchant_id"`
	Secret      string `yaml:"secret"`
}

// StreamConfig defines the live status feed transport.
type StreamConfig struct {
	Backend string `yaml:"backend"` // "sse", "mqtt" or "kafka"

	// SSE endpoints; the order id is appended as a path segment.
	OrderFeedURL    string `yaml:"order_feed_url"`
	DeliveryFeedURL string `yaml:"delivery_feed_url"`

	MQTT  MQTTConfig  `yaml:"mqtt"`
	Kafka KafkaConfig `yaml:"kafka"`

	// Reconnect policy per feed.
	BackoffStep time.Duration `yaml:"backoff_step"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker              string `yaml:"broker"`
	Port                int    `yaml:"port"`
	ClientID            string `yaml:"client_id"`
	OrderTopicPrefix    string `yaml:"order_topic_prefix"`
	DeliveryTopicPrefix string `yaml:"delivery_topic_prefix"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	OrderTopic    string   `yaml:"order_topic"`
	DeliveryTopic string   `yaml:"delivery_topic"`
	GroupID       string   `yaml:"group_id"`
}

// Defaults returns a Config with sane local-development defaults, matching
// the platform's conventional service ports.
func Defaults() *Config {
	return &Config{
		CartDBPath: "greenbowl.db",
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Services: ServicesConfig{
			AuthURL:    "http://localhost:5000",
			CatalogURL: "http://localhost:5001",
			OrderURL:   "http://localhost:7000",
		},
		Payment: PaymentConfig{
			CheckoutURL: "http://localhost:9000/checkout",
			MerchantID:  "greenbowl-dev",
			Secret:      "dev-secret",
		},
		Stream: StreamConfig{
			Backend:         "sse",
			OrderFeedURL:    "http://localhost:7000/api/order-events",
			DeliveryFeedURL: "http://localhost:8000/api/delivery-progress",
			MQTT: MQTTConfig{
				Broker:              "localhost",
				Port:                1883,
				OrderTopicPrefix:    "orders/status",
				DeliveryTopicPrefix: "delivery/status",
			},
			Kafka: KafkaConfig{
				OrderTopic:    "order-status",
				DeliveryTopic: "delivery-status",
			},
			BackoffStep: time.Second,
			BackoffMax:  5 * time.Second,
			MaxAttempts: 5,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
