package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ProvidersConfig tunes the AI provider adapters.
type ProvidersConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ValidateKeys   bool          `mapstructure:"validate_keys"`
	GeminiBaseURL  string        `mapstructure:"gemini_base_url" validate:"omitempty,url"`
	GroqBaseURL    string        `mapstructure:"groq_base_url"   validate:"omitempty,url"`
	ProxyCheckTTL  time.Duration `mapstructure:"proxy_check_ttl"`
}

type MessagingConfig struct {
	InboxSize            int           `mapstructure:"inbox_size"             validate:"gt=0"`
	PingTimeout          time.Duration `mapstructure:"ping_timeout"           validate:"gt=0"`
	InjectionSettleDelay time.Duration `mapstructure:"injection_settle_delay"`
}

// BrowserConfig drives the headless browser: how many tabs exist at start
// and which image file a capture returns.
type BrowserConfig struct {
	Tabs        int    `mapstructure:"tabs"         validate:"gte=0"`
	CaptureFile string `mapstructure:"capture_file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"     validate:"required_if=Enabled true"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// NewLogger builds the process logger.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LoggingConfig) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func errMissing(key string) error {
	return fmt.Errorf("config validation failed: %s is required", key)
}
