package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Notification sink configuration
	Notify NotifyConfig `env:",prefix=NOTIFY_"`

	// Tracing configuration
	Tracing TracingConfig `env:",prefix=TRACING_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=postgres"`
	Password    string `env:"PASSWORD,default=postgres"`
	Name        string `env:"NAME,default=punchcard"`
	SSLMode     string `env:"SSL_MODE,default=disable"`
	MaxConns    int    `env:"MAX_CONNS,default=25"`
	MinConns    int    `env:"MIN_CONNS,default=5"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=false"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment     string `env:"ENVIRONMENT,default=development"`
	LogLevel        string `env:"LOG_LEVEL,default=info"`
	Debug           bool   `env:"DEBUG,default=false"`
	FrontendBaseURL string `env:"FRONTEND_BASE_URL,default=http://localhost:3000"`
}

// NotifyConfig selects and configures the notification sink.
// Driver is one of log, kafka, redis or all. QueueSize 0 delivers inline.
type NotifyConfig struct {
	Driver       string        `env:"DRIVER,default=log"`
	KafkaBrokers []string      `env:"KAFKA_BROKERS,default=localhost:9092"`
	KafkaTopic   string        `env:"KAFKA_TOPIC,default=punchcard-notifications"`
	RedisAddr    string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisChannel string        `env:"REDIS_CHANNEL,default=punchcard:notifications"`
	Timeout      time.Duration `env:"TIMEOUT,default=3s"`
	QueueSize    int           `env:"QUEUE_SIZE,default=1024"`
}

// TracingConfig holds OpenTelemetry exporter settings. Tracing is off when
// JaegerEndpoint is empty.
type TracingConfig struct {
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
	ServiceName    string `env:"SERVICE_NAME,default=punchcard"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith loads configuration from the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Notify.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c *NotifyConfig) validate() error {
	switch strings.ToLower(c.Driver) {
	case "log", "kafka", "redis", "all":
		c.Driver = strings.ToLower(c.Driver)
		return nil
	default:
		return fmt.Errorf("unknown notify driver %q", c.Driver)
	}
}
