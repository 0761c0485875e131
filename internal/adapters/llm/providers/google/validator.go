package google

import (
	"context"
	"net/http"

	"github.com/spounge-ai/rosetta/internal/adapters/llm"
	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"google.golang.org/genai"
)

// KeyValidator lists models with the key. The call is free and fails fast
// for a revoked or mistyped key.
type KeyValidator struct {
	baseURL string
	client  *http.Client
}

var _ domain.APIKeyValidator = (*KeyValidator)(nil)

func NewKeyValidator(baseURL string, client *http.Client) *KeyValidator {
	return &KeyValidator{baseURL: baseURL, client: client}
}

func (v *KeyValidator) Validate(ctx context.Context, key domain.APIKey) error {
	endpoint := baseURL(v.baseURL) + APIVersion + "/models"

	client, err := newClient(ctx, llm.ProviderConfig{APIKey: key.Value(), BaseURL: v.baseURL, HTTPClient: v.client})
	if err != nil {
		return err
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	if err != nil {
		apiErr, ok := asAPIError(err)
		if !ok {
			return llm.TransportError(err, endpoint)
		}
		if apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden {
			msg := apiErr.Message
			if msg == "" {
				msg = "Invalid API key"
			}
			return app_errors.InvalidAPIKey(msg, key.Prefix())
		}
		return app_errors.ServerError(apiErr.Code, endpoint)
	}

	if len(page.Items) == 0 {
		return app_errors.InvalidAPIKey("Unexpected API response", key.Prefix())
	}
	return nil
}
