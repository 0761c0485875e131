package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/domain"
)

func TestAPIKeyProviderFromPrefix(t *testing.T) {
	k, err := domain.NewAPIKey("  AIzaSyExample123  ")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGemini, k.Provider())
	assert.Equal(t, "AIzaSyExample123", k.Value())
	assert.NotContains(t, k.String(), "Example")

	k, err = domain.NewAPIKey("gsk_abcdef123456")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGroq, k.Provider())

	_, err = domain.NewAPIKey("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyAPIKey)

	_, err = domain.NewAPIKey("sk-openai")
	assert.ErrorIs(t, err, domain.ErrUnrecognizedAPIKey)
}

func TestKeySelectionMode(t *testing.T) {
	m, err := domain.ParseKeySelectionMode("auto-balance:groq")
	require.NoError(t, err)
	p, ok := m.Provider()
	assert.True(t, ok)
	assert.Equal(t, domain.ProviderGroq, p)
	assert.Equal(t, "Auto balance (round robin) GROQ", m.Label())
	assert.Equal(t, "Manual", domain.KeySelectionManual.Label())
	assert.Equal(t, domain.KeySelectionAutoBalanceGemini, domain.AutoBalanceFor(domain.ProviderGemini))

	_, err = domain.ParseKeySelectionMode("")
	assert.ErrorIs(t, err, domain.ErrEmptyKeySelectionMode)

	_, err = domain.ParseKeySelectionMode("random")
	assert.EqualError(t, err, "Invalid key selection mode: random. Must be one of: manual, auto-balance:gemini, auto-balance:groq")
}

func TestLanguage(t *testing.T) {
	l, err := domain.LanguageFromCode(" ja-JP ")
	require.NoError(t, err)
	assert.Equal(t, "ja-JP", l.Code())
	assert.Equal(t, "Japanese", l.Name())

	_, err = domain.LanguageFromCode("xx-XX")
	assert.EqualError(t, err, `Unknown language code: "xx-XX"`)

	assert.False(t, domain.UnknownLanguage().IsSelectable())
	for _, sel := range domain.SelectableLanguages() {
		assert.True(t, sel.IsSelectable())
	}
}

// TestRegistryLanguagesAreKnown keeps the registry and the language table consistent.
func TestRegistryLanguagesAreKnown(t *testing.T) {
	for _, info := range domain.Registry() {
		_, _, ok := domain.LookupModel(info.DefaultModel)
		assert.True(t, ok, info.DefaultModel)
		for _, code := range info.Languages {
			_, err := domain.LanguageFromCode(code)
			assert.NoError(t, err, code)
		}
	}
}

func TestModelFor(t *testing.T) {
	assert.Equal(t, "gemini-2.5-pro", domain.ModelFor(domain.ProviderGemini, "gemini-2.5-pro"))
	assert.Equal(t, "meta-llama/llama-4-maverick-17b-128e-instruct", domain.ModelFor(domain.ProviderGroq, "gemini-2.5-pro"))
}

func TestPreferencesDefaultsAndMerge(t *testing.T) {
	prefs := domain.DefaultPreferences("p1")
	assert.Equal(t, domain.ThemeSystem, prefs.Theme())
	assert.Equal(t, "en-US", prefs.TargetLanguage().Code())
	assert.Equal(t, "gemini-2.5-flash-lite", prefs.SelectedModel().ID())
	assert.Empty(t, prefs.ProxyURL())

	proxy := "https://proxy.example.com/v1beta/models"
	merged := prefs.Props().Merge(domain.PreferencesProps{Theme: "dark", ProxyURL: &proxy})
	back, err := domain.PreferencesFromProps(merged)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, back.Theme())
	assert.Equal(t, proxy, back.ProxyURL())

	empty := ""
	cleared, err := domain.PreferencesFromProps(merged.Merge(domain.PreferencesProps{ProxyURL: &empty}))
	require.NoError(t, err)
	assert.Empty(t, cleared.ProxyURL())
}

func TestPreferencesFromPropsErrors(t *testing.T) {
	_, err := domain.PreferencesFromProps(domain.PreferencesProps{})
	assert.ErrorIs(t, err, domain.ErrMissingPreferencesID)

	_, err = domain.PreferencesFromProps(domain.PreferencesProps{ID: "p", Theme: "blue"})
	assert.EqualError(t, err, "Invalid theme: blue. Must be dark, light, or system")

	_, err = domain.PreferencesFromProps(domain.PreferencesProps{ID: "p", SelectedModel: "gpt-4"})
	assert.EqualError(t, err, `Unknown model ID: "gpt-4"`)
}

func TestEncodedImage(t *testing.T) {
	img, err := domain.NewEncodedImage("data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType())
	assert.Equal(t, "AAAA", img.Base64Data())

	odd, err := domain.NewEncodedImage("data:image/;AAAA")
	require.NoError(t, err)
	assert.Equal(t, "image/png", odd.MIMEType())

	_, err = domain.NewEncodedImage("https://example.com/a.png")
	assert.ErrorIs(t, err, domain.ErrNotDataImage)
}

// TestTranslationPropsSkipsBadSegments verifies corrupted segments are dropped on load.
func TestTranslationPropsSkipsBadSegments(t *testing.T) {
	ja := domain.MustLanguage("ja-JP")
	seg, err := domain.NewTextSegment(" こんにちは ", ja, " konnichiwa ")
	require.NoError(t, err)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tr := domain.NewTranslation("t1", []domain.TextSegment{seg}, nil, "greeting", created)
	props := tr.Props()
	require.Len(t, props.Original, 1)
	require.NotNil(t, props.Original[0].Romanization)
	assert.Equal(t, "konnichiwa", *props.Original[0].Romanization)

	props.Original = append(props.Original,
		domain.SegmentProps{Text: "x", LanguageCode: "klingon"},
		domain.SegmentProps{Text: "  ", LanguageCode: "en-US"},
	)
	back, err := domain.TranslationFromProps(props)
	require.NoError(t, err)
	assert.Len(t, back.Original(), 1)
	assert.True(t, back.CreatedAt().Equal(created))
}

func TestTextSegmentRejectsEmpty(t *testing.T) {
	_, err := domain.NewTextSegment("  ", domain.UnknownLanguage(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyTextSegment)
}
