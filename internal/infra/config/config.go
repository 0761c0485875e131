package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	customvalidator "github.com/spounge-ai/rosetta/pkg/validator"
)

// EnvPrefix is prepended to every environment override, e.g.
// ROSETTA_STORAGE_BACKEND.
const EnvPrefix = "ROSETTA"

type Config struct {
	Server         ServerConfig    `mapstructure:"server"`
	Storage        StorageConfig   `mapstructure:"storage"`
	KMS            KMSConfig       `mapstructure:"kms"`
	AWS            AWSConfig       `mapstructure:"aws"`
	Providers      ProvidersConfig `mapstructure:"providers"`
	Messaging      MessagingConfig `mapstructure:"messaging"`
	Browser        BrowserConfig   `mapstructure:"browser"`
	Metrics        MetricsConfig   `mapstructure:"metrics"`
	Tracing        TracingConfig   `mapstructure:"tracing"`
	Logging        LoggingConfig   `mapstructure:"logging"`
	ServiceVersion string
	BuildCommit    string
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.address", "127.0.0.1:50061")
	vip.SetDefault("server.mode", "development")
	vip.SetDefault("server.rate_limiter.enabled", true)
	vip.SetDefault("server.rate_limiter.rate", 10.0)
	vip.SetDefault("server.rate_limiter.burst", 20)

	vip.SetDefault("storage.backend", "sqlite")
	vip.SetDefault("storage.sqlite.path", "rosetta.db")
	vip.SetDefault("storage.postgres.connection.max_conns", 4)
	vip.SetDefault("storage.postgres.connection.min_conns", 1)
	vip.SetDefault("storage.postgres.connection.max_conn_lifetime", time.Hour)
	vip.SetDefault("storage.postgres.connection.max_conn_idle_time", 30*time.Minute)
	vip.SetDefault("storage.postgres.connection.health_check_period", time.Minute)
	vip.SetDefault("storage.s3.prefix", "rosetta/")
	vip.SetDefault("storage.circuit_breaker.enabled", true)
	vip.SetDefault("storage.circuit_breaker.max_failures", 5)
	vip.SetDefault("storage.circuit_breaker.reset_timeout", 30*time.Second)

	vip.SetDefault("kms.provider", "none")
	vip.SetDefault("aws.region", "us-east-1")
	vip.SetDefault("aws.cache_ttl", 5*time.Minute)

	vip.SetDefault("providers.request_timeout", 60*time.Second)
	vip.SetDefault("providers.validate_keys", true)
	vip.SetDefault("providers.proxy_check_ttl", 30*time.Second)

	vip.SetDefault("messaging.inbox_size", 64)
	vip.SetDefault("messaging.ping_timeout", time.Second)
	vip.SetDefault("messaging.injection_settle_delay", 100*time.Millisecond)

	vip.SetDefault("browser.tabs", 1)

	vip.SetDefault("metrics.address", "127.0.0.1:9464")
	vip.SetDefault("tracing.sample_ratio", 1.0)
	vip.SetDefault("tracing.service_name", "rosetta")

	vip.SetDefault("logging.level", "info")
	vip.SetDefault("logging.format", "text")
}

func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := customvalidator.RegisterCustomValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register custom validators: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.crossCheck(); err != nil {
		return nil, err
	}

	cfg.ServiceVersion = getenv(EnvPrefix+"_SERVICE_VERSION", "unknown")
	cfg.BuildCommit = getenv(EnvPrefix+"_BUILD_COMMIT", "unknown")

	return &cfg, nil
}

// crossCheck covers rules that span config areas.
func (c *Config) crossCheck() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.KMS.Provider == KMSAWS && c.AWS.KMSKeyARN == "" {
		return errMissing("aws.kms_key_arn")
	}
	return nil
}

// getenv returns an environment variable or a default value.
func getenv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
