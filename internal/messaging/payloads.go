package messaging

import (
	"time"

	"github.com/spounge-ai/rosetta/internal/domain"
)

// Payload is implemented only by the payload types of this package, so a
// type switch over it is exhaustive.
type Payload interface {
	Action() Action
	isPayload()
}

type MountOverlay struct {
	RawImage string `json:"rawImage"`
}

type TranslateImage struct {
	ImageBase64 string `json:"imageBase64"`
}

// LanguageText is a run of recognized text in SHOW_RESULT.
type LanguageText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
	Language     string `json:"language"`
}

type TextContents struct {
	Contents []LanguageText `json:"contents"`
}

type ShowResult struct {
	OriginalText   TextContents `json:"originalText"`
	TranslatedText TextContents `json:"translatedText"`
}

type LanguageRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SegmentView struct {
	Language     LanguageRef `json:"language"`
	Text         string      `json:"text"`
	Romanization *string     `json:"romanization"`
}

// TranslationView is a translation serialized for a modal.
type TranslationView struct {
	ID          string        `json:"id"`
	Original    []SegmentView `json:"original"`
	Translated  []SegmentView `json:"translated"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type MountTranslationModal struct {
	TranslationView
}

type MountHistoryModal struct {
	TranslationView
}

type ThemeChanged struct {
	Theme string `json:"theme"`
}

type StartOverlay struct{}

type ToastType string

const (
	ToastLoading ToastType = "loading"
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastInfo    ToastType = "info"
)

type ShowToast struct {
	ID          string    `json:"id,omitempty"`
	Type        ToastType `json:"type"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	// Duration in milliseconds; nil leaves the choice to the presenter.
	Duration *float64 `json:"duration,omitempty"`
}

type DismissToast struct {
	ID string `json:"id"`
}

type Ping struct{}

type Pong struct{}

func (MountOverlay) Action() Action          { return ActionMountOverlay }
func (TranslateImage) Action() Action        { return ActionTranslateImage }
func (ShowResult) Action() Action            { return ActionShowResult }
func (MountTranslationModal) Action() Action { return ActionMountTranslationModal }
func (ThemeChanged) Action() Action          { return ActionThemeChanged }
func (StartOverlay) Action() Action          { return ActionStartOverlay }
func (MountHistoryModal) Action() Action     { return ActionMountHistoryModal }
func (ShowToast) Action() Action             { return ActionShowToast }
func (DismissToast) Action() Action          { return ActionDismissToast }
func (Ping) Action() Action                  { return ActionPing }
func (Pong) Action() Action                  { return ActionPong }

func (MountOverlay) isPayload()          {}
func (TranslateImage) isPayload()        {}
func (ShowResult) isPayload()            {}
func (MountTranslationModal) isPayload() {}
func (ThemeChanged) isPayload()          {}
func (StartOverlay) isPayload()          {}
func (MountHistoryModal) isPayload()     {}
func (ShowToast) isPayload()             {}
func (DismissToast) isPayload()          {}
func (Ping) isPayload()                  {}
func (Pong) isPayload()                  {}

// ViewOf serializes a translation for MOUNT_TRANSLATION_MODAL.
func ViewOf(t domain.Translation) TranslationView {
	return TranslationView{
		ID:          t.ID(),
		Original:    segmentViews(t.Original()),
		Translated:  segmentViews(t.Translated()),
		Description: t.Description(),
		CreatedAt:   t.CreatedAt(),
	}
}

func segmentViews(segments []domain.TextSegment) []SegmentView {
	out := make([]SegmentView, len(segments))
	for i, s := range segments {
		out[i] = SegmentView{
			Language: LanguageRef{Code: s.Language().Code(), Name: s.Language().Name()},
			Text:     s.Text(),
		}
		if r, ok := s.Romanization(); ok {
			out[i].Romanization = &r
		}
	}
	return out
}
