// Package wiring builds the object graph shared by the server and the CLI.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spounge-ai/rosetta/internal/domain"
	infra_config "github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/infra/persistence"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

// Dependencies are the infrastructure pieces every entry point needs.
type Dependencies struct {
	Store        *storage.Opened
	Credentials  *persistence.CredentialRepository
	Selection    *persistence.KeySelectionRepository
	Preferences  *persistence.PreferencesRepository
	History      *persistence.TranslationRepository
	Translators  domain.TranslatorFactory
	KeyValidator domain.APIKeyValidator
	ProxyChecker domain.ProxyHealthChecker
	Metrics      *metrics.Metrics
	Recorder     metrics.Recorder
}

// Container opens dependencies once and releases them on Close.
type Container struct {
	cfg    *infra_config.Config
	logger *slog.Logger

	once sync.Once
	deps *Dependencies
	err  error
}

func NewContainer(cfg *infra_config.Config, logger *slog.Logger) *Container {
	return &Container{cfg: cfg, logger: logger}
}

func (c *Container) Config() *infra_config.Config {
	return c.cfg
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

func (c *Container) GetDependencies(ctx context.Context) (*Dependencies, error) {
	c.once.Do(func() {
		c.deps, c.err = c.provideDependencies(ctx)
	})
	return c.deps, c.err
}

func (c *Container) provideDependencies(ctx context.Context) (*Dependencies, error) {
	store, err := storage.Open(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	deps := &Dependencies{
		Store:       store,
		Credentials: persistence.NewCredentialRepository(store.Store, c.logger),
		Selection:   persistence.NewKeySelectionRepository(store.Store, c.logger),
		Preferences: persistence.NewPreferencesRepository(store.Store, c.logger),
		History:     persistence.NewTranslationRepository(store.Store, c.logger),
		Recorder:    metrics.Noop{},
	}

	if c.cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewMetrics()
		deps.Recorder = deps.Metrics
	}

	client := provideHTTPClient(c.cfg.Providers)
	deps.Translators = provideTranslatorFactory(c.cfg.Providers, client, deps.Recorder)
	if c.cfg.Providers.ValidateKeys {
		deps.KeyValidator = provideKeyValidator(c.cfg.Providers, client)
	}
	deps.ProxyChecker = provideProxyChecker(client)

	return deps, nil
}

func (c *Container) Close() error {
	if c.deps == nil || c.deps.Store == nil {
		return nil
	}
	return c.deps.Store.Close()
}
