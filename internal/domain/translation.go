package domain

import (
	"strings"
	"time"
)

// TextSegment is one run of text in a single language.
type TextSegment struct {
	text         string
	language     Language
	romanization string
}

// NewTextSegment trims its inputs. Empty text is rejected; an empty
// romanization means there is none.
func NewTextSegment(text string, language Language, romanization string) (TextSegment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TextSegment{}, ErrEmptyTextSegment
	}
	return TextSegment{text: text, language: language, romanization: strings.TrimSpace(romanization)}, nil
}

func (s TextSegment) Text() string       { return s.text }
func (s TextSegment) Language() Language { return s.language }

// Romanization returns the latin transcription, if the provider sent one.
func (s TextSegment) Romanization() (string, bool) {
	return s.romanization, s.romanization != ""
}

// Translation is one completed OCR and translation, as kept in history.
type Translation struct {
	id          string
	original    []TextSegment
	translated  []TextSegment
	description string
	createdAt   time.Time
}

func NewTranslation(id string, original, translated []TextSegment, description string, createdAt time.Time) Translation {
	return Translation{
		id:          id,
		original:    append([]TextSegment(nil), original...),
		translated:  append([]TextSegment(nil), translated...),
		description: description,
		createdAt:   createdAt,
	}
}

func (t Translation) ID() string                { return t.id }
func (t Translation) Original() []TextSegment   { return append([]TextSegment(nil), t.original...) }
func (t Translation) Translated() []TextSegment { return append([]TextSegment(nil), t.translated...) }
func (t Translation) Description() string       { return t.description }
func (t Translation) CreatedAt() time.Time      { return t.createdAt }

// SegmentProps is the persisted shape of a TextSegment.
type SegmentProps struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"languageCode"`
	LanguageName string  `json:"languageName"`
	Romanization *string `json:"romanization"`
}

// TranslationProps is the persisted shape of a Translation.
type TranslationProps struct {
	ID          string         `json:"id"`
	Original    []SegmentProps `json:"original"`
	Translated  []SegmentProps `json:"translated"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"createdAt"`
}

func (t Translation) Props() TranslationProps {
	return TranslationProps{
		ID:          t.id,
		Original:    segmentProps(t.original),
		Translated:  segmentProps(t.translated),
		Description: t.description,
		CreatedAt:   t.createdAt.UTC().Format(time.RFC3339Nano),
	}
}

func segmentProps(segments []TextSegment) []SegmentProps {
	out := make([]SegmentProps, len(segments))
	for i, s := range segments {
		out[i] = SegmentProps{
			Text:         s.text,
			LanguageCode: s.language.Code(),
			LanguageName: s.language.Name(),
		}
		if r, ok := s.Romanization(); ok {
			out[i].Romanization = &r
		}
	}
	return out
}

// TranslationFromProps rebuilds a Translation from storage. Segments whose
// language is unknown or whose text is empty are dropped.
func TranslationFromProps(p TranslationProps) (Translation, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return Translation{}, err
	}
	return NewTranslation(p.ID, segmentsFromProps(p.Original), segmentsFromProps(p.Translated), p.Description, createdAt), nil
}

func segmentsFromProps(props []SegmentProps) []TextSegment {
	out := make([]TextSegment, 0, len(props))
	for _, sp := range props {
		lang, err := LanguageFromCode(sp.LanguageCode)
		if err != nil {
			continue
		}
		var romanization string
		if sp.Romanization != nil {
			romanization = *sp.Romanization
		}
		seg, err := NewTextSegment(sp.Text, lang, romanization)
		if err != nil {
			continue
		}
		out = append(out, seg)
	}
	return out
}
