package messaging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	customvalidator "github.com/spounge-ai/rosetta/pkg/validator"
)

// The wire structs mirror the payloads with pointer fields, so that a missing
// key and an empty string stay distinguishable. Unknown keys are ignored.
// optional fields may be left out but not sent as null; nullable fields must
// be sent but may be null.

type wireEnvelope struct {
	Action  *string         `json:"action" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type wireMountOverlay struct {
	RawImage *string `json:"rawImage" validate:"required,dataimage"`
}

type wireTranslateImage struct {
	ImageBase64 *string `json:"imageBase64" validate:"required"`
}

type wireLanguageText struct {
	Text         *string `json:"text"         validate:"required"`
	LanguageCode *string `json:"languageCode" validate:"required"`
	Language     *string `json:"language"     validate:"required"`
}

type wireTextContents struct {
	Contents []wireLanguageText `json:"contents" validate:"required,dive"`
}

type wireShowResult struct {
	OriginalText   *wireTextContents `json:"originalText"   validate:"required"`
	TranslatedText *wireTextContents `json:"translatedText" validate:"required"`
}

type wireLanguageRef struct {
	Code *string `json:"code" validate:"required"`
	Name *string `json:"name" validate:"required"`
}

type wireSegment struct {
	Language     *wireLanguageRef `json:"language" validate:"required"`
	Text         *string          `json:"text"     validate:"required"`
	Romanization nullable[string] `json:"romanization"`
}

type wireTranslationView struct {
	ID          *string       `json:"id"          validate:"required"`
	Original    []wireSegment `json:"original"    validate:"required,dive"`
	Translated  []wireSegment `json:"translated"  validate:"required,dive"`
	Description *string       `json:"description" validate:"required"`
	CreatedAt   *flexTime     `json:"createdAt"   validate:"required"`
}

type wireThemeChanged struct {
	Theme *string `json:"theme" validate:"required,oneof=dark light"`
}

type wireShowToast struct {
	ID          optional[string]  `json:"id"`
	Type        *string           `json:"type"    validate:"required,oneof=loading success error info"`
	Message     *string           `json:"message" validate:"required"`
	Description optional[string]  `json:"description"`
	Duration    optional[float64] `json:"duration"`
}

type wireDismissToast struct {
	ID *string `json:"id" validate:"required"`
}

var errNull = errors.New("null is not allowed")

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

type optional[T any] struct {
	value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return errNull
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

type nullable[T any] struct {
	set   bool
	value *T
}

// UnmarshalJSON is called for null too, which is how set tells a null
// apart from a missing key.
func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if isNull(data) {
		n.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.value = &v
	return nil
}

// flexTime accepts an RFC 3339 string, a date-only string, or epoch
// milliseconds.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return fmt.Errorf("createdAt is null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				f.Time = t
				return nil
			}
		}
		return fmt.Errorf("invalid date %q", s)
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid date %s", data)
	}
	f.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := customvalidator.RegisterCustomValidators(v); err != nil {
		panic(err)
	}
	return v
}

// Validate parses raw bytes into a Message. It never panics and has no side
// effects; every failure is a VALIDATION_INVALID_INPUT AppError.
func Validate(raw []byte) (msg Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = Message{}
			err = invalid(fmt.Errorf("panic during validation: %v", r))
		}
	}()

	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, invalid(err)
	}
	if err := validate.Struct(&env); err != nil {
		return Message{}, invalid(err)
	}

	p, err := decodePayload(Action(*env.Action), env.Payload)
	if err != nil {
		return Message{}, invalid(err)
	}
	return Message{Payload: p}, nil
}

// ValidateValue runs an arbitrary value through the same checks a message
// crossing a context boundary gets.
func ValidateValue(v any) (Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Message{}, invalid(err)
	}
	return Validate(raw)
}

func invalid(cause error) error {
	return app_errors.InvalidInput("invalid message: "+cause.Error(), cause)
}

func decodePayload(action Action, raw json.RawMessage) (Payload, error) {
	switch action {
	case ActionStartOverlay:
		return StartOverlay{}, nil
	case ActionPing:
		return Ping{}, nil
	case ActionPong:
		return Pong{}, nil

	case ActionMountOverlay:
		var w wireMountOverlay
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return MountOverlay{RawImage: *w.RawImage}, nil

	case ActionTranslateImage:
		var w wireTranslateImage
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return TranslateImage{ImageBase64: *w.ImageBase64}, nil

	case ActionShowResult:
		var w wireShowResult
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return ShowResult{
			OriginalText:   w.OriginalText.toContents(),
			TranslatedText: w.TranslatedText.toContents(),
		}, nil

	case ActionMountTranslationModal:
		var w wireTranslationView
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if err := w.checkSegments(); err != nil {
			return nil, err
		}
		return MountTranslationModal{TranslationView: w.toView()}, nil

	case ActionMountHistoryModal:
		var w wireTranslationView
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if err := w.checkSegments(); err != nil {
			return nil, err
		}
		return MountHistoryModal{TranslationView: w.toView()}, nil

	case ActionThemeChanged:
		var w wireThemeChanged
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return ThemeChanged{Theme: *w.Theme}, nil

	case ActionShowToast:
		var w wireShowToast
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return ShowToast{
			ID:          deref(w.ID.value),
			Type:        ToastType(*w.Type),
			Message:     *w.Message,
			Description: deref(w.Description.value),
			Duration:    w.Duration.value,
		}, nil

	case ActionDismissToast:
		var w wireDismissToast
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return DismissToast{ID: *w.ID}, nil
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

func decodeInto(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("payload is required")
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("payload must be an object")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func (w *wireTextContents) toContents() TextContents {
	out := TextContents{Contents: make([]LanguageText, len(w.Contents))}
	for i, c := range w.Contents {
		out.Contents[i] = LanguageText{Text: *c.Text, LanguageCode: *c.LanguageCode, Language: *c.Language}
	}
	return out
}

func (w *wireTranslationView) checkSegments() error {
	for i, seg := range w.Original {
		if !seg.Romanization.set {
			return fmt.Errorf("original[%d] has no romanization key", i)
		}
	}
	for i, seg := range w.Translated {
		if !seg.Romanization.set {
			return fmt.Errorf("translated[%d] has no romanization key", i)
		}
	}
	return nil
}

func (w *wireTranslationView) toView() TranslationView {
	return TranslationView{
		ID:          *w.ID,
		Original:    toSegments(w.Original),
		Translated:  toSegments(w.Translated),
		Description: *w.Description,
		CreatedAt:   w.CreatedAt.Time,
	}
}

func toSegments(in []wireSegment) []SegmentView {
	out := make([]SegmentView, len(in))
	for i, s := range in {
		out[i] = SegmentView{
			Language:     LanguageRef{Code: *s.Language.Code, Name: *s.Language.Name},
			Text:         *s.Text,
			Romanization: s.Romanization.value,
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
