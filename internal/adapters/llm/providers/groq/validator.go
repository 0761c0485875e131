package groq

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/spounge-ai/rosetta/internal/adapters/llm"
	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

// ValidationModel is the cheapest chat model; one output token is enough to
// prove the key works.
const ValidationModel = "llama-3.1-8b-instant"

type KeyValidator struct {
	baseURL string
	client  *http.Client
}

var _ domain.APIKeyValidator = (*KeyValidator)(nil)

func NewKeyValidator(baseURL string, client *http.Client) *KeyValidator {
	return &KeyValidator{baseURL: baseURL, client: client}
}

func (v *KeyValidator) Validate(ctx context.Context, key domain.APIKey) error {
	endpoint := baseURL(v.baseURL) + "chat/completions"
	client := newClient(llm.ProviderConfig{APIKey: key.Value(), BaseURL: v.baseURL, HTTPClient: v.client})

	_, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     ValidationModel,
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("echo")},
		MaxTokens: openai.Int(1),
	})
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return llm.TransportError(err, endpoint)
	}
	if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
		msg := apiErr.Message
		if msg == "" {
			msg = "Invalid Groq API key"
		}
		return app_errors.InvalidAPIKey(msg, key.Prefix())
	}
	return app_errors.ServerError(apiErr.StatusCode, endpoint)
}
