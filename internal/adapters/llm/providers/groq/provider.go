package groq

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spounge-ai/rosetta/internal/adapters/llm"
	"github.com/spounge-ai/rosetta/internal/domain"
)

// Groq serves an OpenAI-compatible chat completions API.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1/"

	temperature = 0.2
)

type GroqTranslator struct {
	client   openai.Client
	model    string
	endpoint string
}

var _ domain.TranslationService = (*GroqTranslator)(nil)

// New matches llm.Constructor.
func New(_ context.Context, cfg llm.ProviderConfig) (domain.TranslationService, error) {
	return NewGroqTranslator(cfg), nil
}

func NewGroqTranslator(cfg llm.ProviderConfig) *GroqTranslator {
	return &GroqTranslator{
		client:   newClient(cfg),
		model:    cfg.Model,
		endpoint: baseURL(cfg.BaseURL) + "chat/completions",
	}
}

func newClient(cfg llm.ProviderConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL(cfg.BaseURL)),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.NewClient(opts...)
}

func baseURL(raw string) string {
	if raw == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(raw, "/") + "/"
}

// TranslateImage sends the prompt and the image as one user message and asks
// for a JSON object back.
func (t *GroqTranslator) TranslateImage(ctx context.Context, image domain.EncodedImage, target domain.Language) (domain.Translation, error) {
	params := openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(llm.BuildPrompt(target.Name())),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: image.DataURL()}),
			}),
		},
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Translation{}, mapError(err, t.endpoint)
	}
	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return llm.ParseTranslation(content, target)
}

func mapError(err error, endpoint string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError(apiErr.StatusCode)
	}
	return llm.TransportError(err, endpoint)
}
