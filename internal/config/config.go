package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

type Config struct {
	Env      string `envconfig:"ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`
	SecureCookies      bool          `envconfig:"SECURE_COOKIES" default:"true"`

	API     APIConfig     `envconfig:"API"`
	Redis   RedisConfig   `envconfig:"REDIS"`
	Mongo   MongoConfig   `envconfig:"MONGO"`
	Ledger  LedgerConfig  `envconfig:"LEDGER"`
	Kafka   KafkaConfig   `envconfig:"KAFKA"`
	Tracing TracingConfig `envconfig:"TRACING"`
}

type APIConfig struct {
	Endpoint            string        `envconfig:"ENDPOINT" default:"http://localhost:8080/graphql"`
	Timeout             time.Duration `envconfig:"TIMEOUT" default:"10s"`
	BreakerFailures     uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerOpenDuration time.Duration `envconfig:"BREAKER_OPEN_DURATION" default:"30s"`
}

type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type MongoConfig struct {
	URI      string `envconfig:"URI"`
	Database string `envconfig:"DATABASE" default:"storefront"`
}

type LedgerConfig struct {
	Driver string `envconfig:"DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DSN" default:"file:storefront.db?_pragma=busy_timeout(5000)"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"BROKERS"`
	Topic        string        `envconfig:"TOPIC" default:"storefront-orders"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
}

type TracingConfig struct {
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"storefront"`
}

// Load reads an optional .env file and then the STOREFRONT_* environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return errors.New("api endpoint is required")
	}
	switch c.Ledger.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported ledger driver %q", c.Ledger.Driver)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
