package config

import "time"

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageS3       = "s3"
)

// StorageConfig selects the key-value backend shared by every context.
type StorageConfig struct {
	Backend        string               `mapstructure:"backend" validate:"required,oneof=memory sqlite postgres s3"`
	SQLite         SQLiteConfig         `mapstructure:"sqlite"`
	Postgres       PostgresConfig       `mapstructure:"postgres"`
	S3             S3Config             `mapstructure:"s3"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig represents the Postgres backend configuration.
type PostgresConfig struct {
	URL        string             `mapstructure:"url"`
	Connection DBConnectionConfig `mapstructure:"connection"`
}

// DBConnectionConfig represents the database connection pool configuration.
type DBConnectionConfig struct {
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// CircuitBreakerConfig holds settings for the storage circuit breaker.
type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxFailures  int           `mapstructure:"max_failures"  validate:"required_if=Enabled true,omitempty,gt=0"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

// Validate checks the fields that depend on the selected backend.
func (c StorageConfig) Validate() error {
	switch c.Backend {
	case StorageSQLite:
		if c.SQLite.Path == "" {
			return errMissing("storage.sqlite.path")
		}
	case StoragePostgres:
		if c.Postgres.URL == "" {
			return errMissing("storage.postgres.url")
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			return errMissing("storage.s3.bucket")
		}
	}
	return nil
}
