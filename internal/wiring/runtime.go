package wiring

import (
	"context"
	"fmt"
	"time"

	"github.com/spounge-ai/rosetta/internal/app/background"
	"github.com/spounge-ai/rosetta/internal/app/browser"
	bridge "github.com/spounge-ai/rosetta/internal/app/grpc"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/messaging"
	"github.com/spounge-ai/rosetta/internal/pipelines"
	"github.com/spounge-ai/rosetta/internal/service"
	"github.com/spounge-ai/rosetta/pkg/patterns/lifecycle"
)

// Services are the popup-side use cases. They work on storage directly, so
// the CLI can use them without a running server.
type Services struct {
	Auth        service.AuthService
	Preferences *service.PreferencesService
	History     *service.HistoryService
	ProxyHealth *service.ProxyHealthService
}

// Services builds the use cases. broadcaster may be nil when no tabs exist.
func (c *Container) Services(ctx context.Context, broadcaster service.ThemeBroadcaster) (*Services, error) {
	deps, err := c.GetDependencies(ctx)
	if err != nil {
		return nil, err
	}
	return &Services{
		Auth:        service.NewAuthService(deps.Credentials, deps.Selection, deps.KeyValidator, c.logger),
		Preferences: service.NewPreferencesService(deps.Preferences, broadcaster, c.logger),
		History:     service.NewHistoryService(deps.History),
		ProxyHealth: service.NewProxyHealthService(deps.ProxyChecker, c.cfg.Providers.ProxyCheckTTL),
	}, nil
}

// Runtime is the running extension: the message bus, the headless browser
// with its content scripts, and the background context listening on the bus.
type Runtime struct {
	Bus      *messaging.Bus
	Browser  *browser.Headless
	Notifier *background.TabNotifier
	Overlay  *background.OverlayService
	Commands *background.CommandListener
	Pipeline *pipelines.TranslationPipeline
	Services *Services
}

func (c *Container) NewRuntime(ctx context.Context) (*Runtime, error) {
	deps, err := c.GetDependencies(ctx)
	if err != nil {
		return nil, err
	}
	cfg := c.cfg

	bus := messaging.NewBus(c.logger, messaging.WithInboxSize(cfg.Messaging.InboxSize))
	headless := browser.NewHeadless(bus, cfg.Browser, c.logger, browser.WithRecorder(deps.Recorder))

	client := messaging.NewClient(bus, messaging.Background())
	notifier := background.NewTabNotifier(client, c.logger)
	guard := background.NewContentScriptGuard(client, headless, cfg.Messaging.PingTimeout, cfg.Messaging.InjectionSettleDelay, c.logger)

	services, err := c.Services(ctx, notifier)
	if err != nil {
		bus.Close()
		return nil, err
	}
	overlay := background.NewOverlayService(services.Auth, headless, guard, notifier, client, c.logger)

	pipeline := pipelines.NewTranslationPipeline(pipelines.Deps{
		Credentials: deps.Credentials,
		Resolver:    service.NewCredentialResolver(deps.Selection, deps.Recorder, c.logger),
		Preferences: deps.Preferences,
		Translators: deps.Translators,
		History:     deps.History,
		Notifier:    notifier,
		Mounter:     notifier,
		Metrics:     deps.Recorder,
		Logger:      c.logger,
	})

	router := background.NewRouter(pipeline, overlay, guard, notifier, headless, deps.Recorder, c.logger)
	if err := router.Register(bus); err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to register background router: %w", err)
	}

	return &Runtime{
		Bus:      bus,
		Browser:  headless,
		Notifier: notifier,
		Overlay:  overlay,
		Commands: background.NewCommandListener(overlay, c.logger),
		Pipeline: pipeline,
		Services: services,
	}, nil
}

// Close waits for in-flight overlay work and shuts the bus down.
func (r *Runtime) Close() {
	r.Browser.Wait()
	r.Bus.Close()
	_ = r.Services.ProxyHealth.Close()
}

// NewServerGroup builds the bridge server, plus the metrics endpoint when
// enabled, as one lifecycle group.
func (c *Container) NewServerGroup(ctx context.Context, rt *Runtime, shutdownTimeout time.Duration) (*lifecycle.Group, error) {
	deps, err := c.GetDependencies(ctx)
	if err != nil {
		return nil, err
	}

	classifier := app_errors.NewErrorClassifier(c.logger)
	svc := bridge.NewBridgeService(bridge.BridgeDeps{
		Bus:             rt.Bus,
		Commands:        rt.Commands,
		Preferences:     rt.Services.Preferences,
		ErrorClassifier: classifier,
		Logger:          c.logger,
	})
	srv, err := bridge.New(c.cfg.Server, svc, deps.Recorder, classifier, c.logger)
	if err != nil {
		return nil, err
	}

	resources := []lifecycle.ManagedResource{srv}
	if deps.Metrics != nil {
		ms, err := metrics.NewServer(c.cfg.Metrics.Address, deps.Metrics, c.logger)
		if err != nil {
			_ = srv.Stop(ctx)
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		resources = append(resources, ms)
	}
	return lifecycle.NewGroup(c.logger, shutdownTimeout, resources...), nil
}
