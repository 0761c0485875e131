package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultRequestTimeout = 60 * time.Second

// ProviderConfig is everything a provider adapter needs for one request.
type ProviderConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Constructor builds a translation adapter for one provider.
type Constructor func(ctx context.Context, cfg ProviderConfig) (domain.TranslationService, error)

// Registry maps each provider to its adapter constructor.
type Registry map[domain.Provider]Constructor

// Factory picks the adapter by the credential's provider.
type Factory struct {
	registry Registry
	baseURLs map[domain.Provider]string
	client   *http.Client
	recorder metrics.Recorder
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithBaseURL overrides the endpoint of one provider. A Gemini proxy URL from
// the user's preferences still wins over it.
func WithBaseURL(p domain.Provider, url string) FactoryOption {
	return func(f *Factory) {
		if url != "" {
			f.baseURLs[p] = url
		}
	}
}

func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.client = c
		}
	}
}

func WithRecorder(r metrics.Recorder) FactoryOption {
	return func(f *Factory) {
		if r != nil {
			f.recorder = r
		}
	}
}

func NewFactory(registry Registry, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry: registry,
		baseURLs: make(map[domain.Provider]string),
		client:   NewHTTPClient(DefaultRequestTimeout),
		recorder: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New resolves the model and endpoint for cred and builds its adapter.
func (f *Factory) New(ctx context.Context, cred domain.Credential, prefs domain.UserPreferences) (domain.TranslationService, error) {
	p := cred.Provider()
	build, ok := f.registry[p]
	if !ok {
		return nil, fmt.Errorf("no translation adapter registered for provider %q", p)
	}

	baseURL := f.baseURLs[p]
	if p == domain.ProviderGemini && prefs.ProxyURL() != "" {
		baseURL = prefs.ProxyURL()
	}

	svc, err := build(ctx, ProviderConfig{
		APIKey:     cred.APIKey().Value(),
		Model:      domain.ModelFor(p, prefs.SelectedModel().ID()),
		BaseURL:    baseURL,
		HTTPClient: f.client,
	})
	if err != nil || svc == nil {
		return svc, err
	}
	return &metered{next: svc, provider: p, recorder: f.recorder}, nil
}

// metered records the latency and outcome of every provider call.
type metered struct {
	next     domain.TranslationService
	provider domain.Provider
	recorder metrics.Recorder
}

func (m *metered) TranslateImage(ctx context.Context, image domain.EncodedImage, target domain.Language) (domain.Translation, error) {
	start := time.Now()
	t, err := m.next.TranslateImage(ctx, image, target)

	status := metrics.StatusSuccess
	if err != nil {
		status = string(app_errors.CodeOf(err))
	}
	m.recorder.RecordProviderCall(m.provider.String(), status, time.Since(start))
	return t, err
}

// NewHTTPClient returns the outbound client shared by the adapters, traced
// through otelhttp.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
