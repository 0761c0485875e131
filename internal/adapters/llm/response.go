package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

var (
	ErrEmptyResponse = errors.New("provider returned no text")

	responseValidator = validator.New()
)

// The wire form keeps pointers so a missing key fails validation instead of
// decoding to a zero value.
type translationResponse struct {
	Success *bool            `json:"success" validate:"required"`
	Error   *string          `json:"error"`
	Data    *translationData `json:"data"`
}

type translationData struct {
	OriginalText   *segmentList `json:"originalText"   validate:"required"`
	TranslatedText *segmentList `json:"translatedText" validate:"required"`
	Description    *string      `json:"description"    validate:"required"`
}

type segmentList struct {
	Contents []segmentItem `json:"contents" validate:"required,dive"`
}

type segmentItem struct {
	Text              *string `json:"text"              validate:"required"`
	LanguageBcp47Code *string `json:"languageBcp47Code" validate:"required"`
	Language          *string `json:"language"          validate:"required"`
	Romanization      *string `json:"romanization"`
}

// consistent reports whether exactly one of data and error is present.
func (r translationResponse) consistent() bool {
	hasError := r.Error != nil && *r.Error != ""
	if *r.Success {
		return r.Data != nil && !hasError
	}
	return hasError && r.Data == nil
}

// ParseTranslation turns the JSON text a model produced into a Translation.
// Unparseable or inconsistent output is a malformed response; a well-formed
// refusal is an AI rejection carrying the model's reason.
func ParseTranslation(raw string, target domain.Language) (domain.Translation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Translation{}, app_errors.TranslationFailed(ErrEmptyResponse)
	}

	var resp translationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return domain.Translation{}, app_errors.MalformedResponse("response is not valid JSON", err)
	}
	if err := responseValidator.Struct(resp); err != nil {
		return domain.Translation{}, app_errors.MalformedResponse("response does not match the translation schema", err)
	}
	if !resp.consistent() {
		return domain.Translation{}, app_errors.MalformedResponse("response must carry either data or error", nil)
	}

	if !*resp.Success {
		return domain.Translation{}, app_errors.AIRejected(*resp.Error)
	}
	return toDomain(resp.Data, target)
}

func toDomain(data *translationData, target domain.Language) (domain.Translation, error) {
	original := make([]domain.TextSegment, 0, len(data.OriginalText.Contents))
	for _, item := range data.OriginalText.Contents {
		seg, err := domain.NewTextSegment(*item.Text, detectedLanguage(*item.LanguageBcp47Code), deref(item.Romanization))
		if err != nil {
			return domain.Translation{}, app_errors.MalformedResponse("invalid original segment", err)
		}
		original = append(original, seg)
	}

	// The model's tag for translated text is ignored; it is always the target.
	translated := make([]domain.TextSegment, 0, len(data.TranslatedText.Contents))
	for _, item := range data.TranslatedText.Contents {
		seg, err := domain.NewTextSegment(*item.Text, target, deref(item.Romanization))
		if err != nil {
			return domain.Translation{}, app_errors.MalformedResponse("invalid translated segment", err)
		}
		translated = append(translated, seg)
	}

	return domain.NewTranslation(uuid.NewString(), original, translated, *data.Description, time.Now()), nil
}

// detectedLanguage tries the full tag, then its primary subtag, then gives up
// with "unknown".
func detectedLanguage(tag string) domain.Language {
	if lang, err := domain.LanguageFromCode(tag); err == nil {
		return lang
	}
	short, _, _ := strings.Cut(tag, "-")
	if lang, err := domain.LanguageFromCode(short); err == nil {
		return lang
	}
	return domain.UnknownLanguage()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
