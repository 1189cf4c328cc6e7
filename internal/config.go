package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Search  SearchConfig  `mapstructure:"search"`
	Stub    StubConfig    `mapstructure:"stub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig points the client at the consent platform backend.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token_file"`
}

type SearchConfig struct {
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`
}

// StubConfig configures the bundled reference backend used for local
// development and integration tests.
type StubConfig struct {
	Port              int            `mapstructure:"port"`
	ReadHeaderTimeout time.Duration  `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration  `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration  `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration  `mapstructure:"idle_timeout"`
	TokenSecret       string         `mapstructure:"token_secret"`
	Database          DatabaseConfig `mapstructure:"database"`
	Dispatcher        DispatchConfig `mapstructure:"dispatcher"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Source          string        `mapstructure:"source"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DispatchConfig sizes the stub's webhook delivery worker pool.
type DispatchConfig struct {
	MaxWorkers      int           `mapstructure:"max_workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

type LoggingConfig struct {
	Environment string `mapstructure:"environment"`
	Level       string `mapstructure:"level"`
}

// ----------------- DEFAULTS / ENV -----------------

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			DebounceInterval: 500 * time.Millisecond,
		},
		Stub: StubConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			TokenSecret:       "local-development-secret",
			Database: DatabaseConfig{
				Driver:          "sqlite",
				Source:          "consent-stub.db",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Dispatcher: DispatchConfig{
				MaxWorkers:      4,
				QueueSize:       64,
				DeliveryTimeout: 10 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Environment: "development",
			Level:       "info",
		},
	}
}

// LoadConfigFromEnv builds a config from environment variables only,
// used in container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.API.BaseURL = getEnv("CONSENT_API_BASE_URL", cfg.API.BaseURL)
	cfg.API.Token = getEnv("CONSENT_API_TOKEN", cfg.API.Token)
	cfg.Stub.Port = getEnvAsInt("STUB_PORT", cfg.Stub.Port)
	cfg.Stub.TokenSecret = getEnv("STUB_TOKEN_SECRET", cfg.Stub.TokenSecret)
	cfg.Stub.Database.Driver = getEnv("STUB_DB_DRIVER", cfg.Stub.Database.Driver)
	cfg.Stub.Database.Source = getEnv("STUB_DB_SOURCE", cfg.Stub.Database.Source)
	cfg.Logging.Environment = getEnv("APP_ENV", cfg.Logging.Environment)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("search config: %v", err))
	}
	if err := c.Stub.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("stub config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

func (c *SearchConfig) Validate() error {
	if c.DebounceInterval <= 0 {
		return errors.New("debounce_interval must be positive")
	}
	return nil
}

func (c *StubConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return c.Database.Validate()
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

// ResolveToken returns the bearer token configured directly or via file.
func (c *APIConfig) ResolveToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if c.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
