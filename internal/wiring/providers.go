package wiring

import (
	"net/http"

	"github.com/spounge-ai/rosetta/internal/adapters/llm"
	"github.com/spounge-ai/rosetta/internal/adapters/llm/providers/google"
	"github.com/spounge-ai/rosetta/internal/adapters/llm/providers/groq"
	"github.com/spounge-ai/rosetta/internal/adapters/proxy"
	"github.com/spounge-ai/rosetta/internal/domain"
	infra_config "github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
)

func provideHTTPClient(cfg infra_config.ProvidersConfig) *http.Client {
	return llm.NewHTTPClient(cfg.RequestTimeout)
}

func provideTranslatorFactory(cfg infra_config.ProvidersConfig, client *http.Client, recorder metrics.Recorder) *llm.Factory {
	return llm.NewFactory(
		llm.Registry{
			domain.ProviderGemini: google.New,
			domain.ProviderGroq:   groq.New,
		},
		llm.WithBaseURL(domain.ProviderGemini, cfg.GeminiBaseURL),
		llm.WithBaseURL(domain.ProviderGroq, cfg.GroqBaseURL),
		llm.WithHTTPClient(client),
		llm.WithRecorder(recorder),
	)
}

func provideKeyValidator(cfg infra_config.ProvidersConfig, client *http.Client) *llm.KeyValidator {
	return llm.NewKeyValidator(map[domain.Provider]domain.APIKeyValidator{
		domain.ProviderGemini: google.NewKeyValidator(cfg.GeminiBaseURL, client),
		domain.ProviderGroq:   groq.NewKeyValidator(cfg.GroqBaseURL, client),
	})
}

func provideProxyChecker(client *http.Client) *proxy.HealthChecker {
	return proxy.NewHealthChecker(client, proxy.DefaultTimeout)
}
