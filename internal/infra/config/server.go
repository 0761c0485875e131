package config

// ServerConfig configures the gRPC bridge the popup and CLI talk to.
type ServerConfig struct {
	Address     string            `mapstructure:"address" validate:"required,hostname_port"`
	TLS         TLS               `mapstructure:"tls"`
	Mode        string            `mapstructure:"mode"    validate:"required,oneof=development production"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
}

// RateLimiterConfig holds the configuration for the gRPC rate limiter.
type RateLimiterConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"  validate:"required_if=Enabled true,omitempty,gt=0"`
	Burst   int     `mapstructure:"burst" validate:"required_if=Enabled true,omitempty,gt=0"`
}

// TLS represents the TLS configuration.
type TLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file" validate:"required_if=Enabled true"`
	KeyFile  string `mapstructure:"key_file"  validate:"required_if=Enabled true"`
}
