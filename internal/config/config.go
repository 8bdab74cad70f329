package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Catalog  ServiceConfig
	Payment  PaymentConfig
	Webhook  WebhookConfig
	Features FeaturesConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

type ServiceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type PaymentConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	SuccessURL string
	CancelURL  string
}

type WebhookConfig struct {
	// Secret is the shared HMAC key for provider event signatures.
	Secret string
	// Tolerance bounds how stale a signed timestamp may be. Zero disables
	// the staleness check.
	Tolerance time.Duration
}

type FeaturesConfig struct {
	EnableOrderCaching          bool
	EnableOrderEvents           bool
	EnablePaymentEventsConsumer bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnvString("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnvString("DB_USER", "acme"),
			Password:       getEnvString("DB_PASSWORD", "acme"),
			Name:           getEnvString("DB_NAME", "acme_checkout"),
			SSLMode:        getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getEnvDuration("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnvString("DB_MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_ORDER_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "checkout.orders"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "payments.events"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "checkout-service"),
		},
		Catalog: ServiceConfig{
			BaseURL: getEnvString("CATALOG_SERVICE_URL", "http://localhost:8081"),
			APIKey:  getEnvString("CATALOG_SERVICE_API_KEY", ""),
			Timeout: getEnvDuration("CATALOG_SERVICE_TIMEOUT", 10*time.Second),
		},
		Payment: PaymentConfig{
			BaseURL:    getEnvString("PAYMENT_PROVIDER_URL", "http://localhost:8083"),
			APIKey:     getEnvString("PAYMENT_PROVIDER_API_KEY", ""),
			Timeout:    getEnvDuration("PAYMENT_PROVIDER_TIMEOUT", 30*time.Second),
			SuccessURL: getEnvString("PAYMENT_SUCCESS_URL", "https://localhost:8080/success"),
			CancelURL:  getEnvString("PAYMENT_CANCEL_URL", "https://localhost:8080/cancel"),
		},
		Webhook: WebhookConfig{
			Secret:    getEnvString("PAYMENT_WEBHOOK_SECRET", ""),
			Tolerance: getEnvDuration("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		Features: FeaturesConfig{
			EnableOrderCaching:          getEnvBool("FEATURE_ORDER_CACHING", true),
			EnableOrderEvents:           getEnvBool("FEATURE_ORDER_EVENTS", true),
			EnablePaymentEventsConsumer: getEnvBool("FEATURE_PAYMENT_EVENTS_CONSUMER", false),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
