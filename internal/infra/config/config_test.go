package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:50061", cfg.Server.Address)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, KMSNone, cfg.KMS.Provider)
	assert.Equal(t, 64, cfg.Messaging.InboxSize)
	assert.Equal(t, time.Second, cfg.Messaging.PingTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Messaging.InjectionSettleDelay)
	assert.Equal(t, 30*time.Second, cfg.Providers.ProxyCheckTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROSETTA_STORAGE_BACKEND", "memory")
	t.Setenv("ROSETTA_MESSAGING_PING_TIMEOUT", "250ms")

	cfg, err := Load(writeConfig(t, "server:\n  mode: production\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Messaging.PingTimeout)
	assert.Equal(t, "production", cfg.Server.Mode)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown backend":  "storage:\n  backend: redis\n",
		"postgres no url":  "storage:\n  backend: postgres\n",
		"s3 no bucket":     "storage:\n  backend: s3\n",
		"local kms no key": "kms:\n  provider: local\n",
		"aws kms no arn":   "kms:\n  provider: aws\n",
		"bad arn":          "aws:\n  kms_key_arn: not-an-arn\n",
		"bad log format":   "logging:\n  format: xml\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	LoggingConfig{Level: "info", Format: "json"}.NewLogger(&buf).Info("hello", "tab_id", 3)
	assert.Contains(t, buf.String(), `"tab_id":3`)

	buf.Reset()
	LoggingConfig{Level: "warn", Format: "text"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())
}
