package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/spounge-ai/rosetta/internal/adapters/llm"
	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	APIVersion     = "v1beta"

	temperature = 0.2
)

// GeminiTranslator calls generateContent with the captured image inline and
// a JSON response MIME type.
type GeminiTranslator struct {
	client   *genai.Client
	model    string
	endpoint string
}

var _ domain.TranslationService = (*GeminiTranslator)(nil)

// New matches llm.Constructor.
func New(ctx context.Context, cfg llm.ProviderConfig) (domain.TranslationService, error) {
	return NewGeminiTranslator(ctx, cfg)
}

func NewGeminiTranslator(ctx context.Context, cfg llm.ProviderConfig) (*GeminiTranslator, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiTranslator{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL(cfg.BaseURL) + APIVersion + "/models/" + cfg.Model + ":generateContent",
	}, nil
}

func newClient(ctx context.Context, cfg llm.ProviderConfig) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL(cfg.BaseURL),
			APIVersion: APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Gemini client: %w", err)
	}
	return client, nil
}

// baseURL accepts both a bare origin and a URL that already ends in the
// versioned models path, which is how proxy URLs are usually written.
func baseURL(raw string) string {
	if raw == "" {
		return DefaultBaseURL
	}
	raw = strings.TrimRight(raw, "/")
	raw = strings.TrimSuffix(raw, "/models")
	raw = strings.TrimSuffix(raw, "/"+APIVersion)
	return raw + "/"
}

func (t *GeminiTranslator) TranslateImage(ctx context.Context, image domain.EncodedImage, target domain.Language) (domain.Translation, error) {
	data, err := base64.StdEncoding.DecodeString(image.Base64Data())
	if err != nil {
		return domain.Translation{}, app_errors.InvalidImage("image data is not valid base64")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromBytes(data, image.MIMEType())}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.BuildPrompt(target.Name()), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](temperature),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, config)
	if err != nil {
		return domain.Translation{}, mapError(err, t.endpoint)
	}
	return llm.ParseTranslation(resp.Text(), target)
}

func mapError(err error, endpoint string) error {
	if apiErr, ok := asAPIError(err); ok {
		return llm.StatusError(apiErr.Code)
	}
	return llm.TransportError(err, endpoint)
}

// asAPIError finds the genai API error behind err, which the SDK returns by
// value or by pointer depending on the call path.
func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
