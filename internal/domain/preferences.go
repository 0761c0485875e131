package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"
)

func ParseTheme(raw string) (Theme, error) {
	switch t := Theme(raw); t {
	case ThemeDark, ThemeLight, ThemeSystem:
		return t, nil
	}
	return "", fmt.Errorf("Invalid theme: %s. Must be dark, light, or system", raw)
}

// AIModel is a model id present in the provider registry.
type AIModel struct {
	id       string
	name     string
	provider Provider
}

var ErrEmptyModelID = errors.New("Model ID must be a non-empty string")

func ParseAIModel(id string) (AIModel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return AIModel{}, ErrEmptyModelID
	}
	info, p, ok := LookupModel(id)
	if !ok {
		return AIModel{}, fmt.Errorf("Unknown model ID: %q", id)
	}
	return AIModel{id: info.ID, name: info.Name, provider: p}, nil
}

func (m AIModel) ID() string         { return m.id }
func (m AIModel) Name() string       { return m.name }
func (m AIModel) Provider() Provider { return m.provider }

const (
	DefaultTargetLanguage = "en-US"
	DefaultModel          = "gemini-2.5-flash-lite"
)

var ErrMissingPreferencesID = errors.New("UserPreferences ID is missing")

// UserPreferences holds the per-user settings consulted by the translation
// pipeline. Values are immutable; the With methods return updated copies.
type UserPreferences struct {
	id             string
	theme          Theme
	targetLanguage Language
	selectedModel  AIModel
	proxyURL       string
}

func DefaultPreferences(id string) UserPreferences {
	model, _ := ParseAIModel(DefaultModel)
	return UserPreferences{
		id:             id,
		theme:          ThemeSystem,
		targetLanguage: MustLanguage(DefaultTargetLanguage),
		selectedModel:  model,
	}
}

func (p UserPreferences) ID() string               { return p.id }
func (p UserPreferences) Theme() Theme             { return p.theme }
func (p UserPreferences) TargetLanguage() Language { return p.targetLanguage }
func (p UserPreferences) SelectedModel() AIModel   { return p.selectedModel }

// ProxyURL is empty when requests go straight to the provider.
func (p UserPreferences) ProxyURL() string { return p.proxyURL }

func (p UserPreferences) WithTheme(t Theme) UserPreferences {
	p.theme = t
	return p
}

func (p UserPreferences) WithTargetLanguage(l Language) UserPreferences {
	p.targetLanguage = l
	return p
}

func (p UserPreferences) WithSelectedModel(m AIModel) UserPreferences {
	p.selectedModel = m
	return p
}

func (p UserPreferences) WithProxyURL(url string) UserPreferences {
	p.proxyURL = strings.TrimSpace(url)
	return p
}

// PreferencesProps is the persisted shape. Every field but the id may be
// absent, in which case the default applies.
type PreferencesProps struct {
	ID             string  `json:"id,omitempty"`
	TargetLanguage string  `json:"targetLanguage,omitempty"`
	SelectedModel  string  `json:"selectedModel,omitempty"`
	Theme          string  `json:"theme,omitempty"`
	ProxyURL       *string `json:"proxyUrl,omitempty"`
}

func PreferencesFromProps(props PreferencesProps) (UserPreferences, error) {
	if props.ID == "" {
		return UserPreferences{}, ErrMissingPreferencesID
	}
	prefs := DefaultPreferences(props.ID)

	if props.Theme != "" {
		t, err := ParseTheme(props.Theme)
		if err != nil {
			return UserPreferences{}, err
		}
		prefs = prefs.WithTheme(t)
	}
	if props.TargetLanguage != "" {
		l, err := LanguageFromCode(props.TargetLanguage)
		if err != nil {
			return UserPreferences{}, err
		}
		prefs = prefs.WithTargetLanguage(l)
	}
	if props.SelectedModel != "" {
		m, err := ParseAIModel(props.SelectedModel)
		if err != nil {
			return UserPreferences{}, err
		}
		prefs = prefs.WithSelectedModel(m)
	}
	if props.ProxyURL != nil {
		prefs = prefs.WithProxyURL(*props.ProxyURL)
	}
	return prefs, nil
}

func (p UserPreferences) Props() PreferencesProps {
	props := PreferencesProps{
		ID:             p.id,
		TargetLanguage: p.targetLanguage.Code(),
		SelectedModel:  p.selectedModel.ID(),
		Theme:          string(p.theme),
	}
	if p.proxyURL != "" {
		u := p.proxyURL
		props.ProxyURL = &u
	}
	return props
}

// Merge overlays the non-empty fields of patch on top of props. A non-nil
// empty ProxyURL in the patch clears the proxy.
func (props PreferencesProps) Merge(patch PreferencesProps) PreferencesProps {
	if patch.ID != "" {
		props.ID = patch.ID
	}
	if patch.TargetLanguage != "" {
		props.TargetLanguage = patch.TargetLanguage
	}
	if patch.SelectedModel != "" {
		props.SelectedModel = patch.SelectedModel
	}
	if patch.Theme != "" {
		props.Theme = patch.Theme
	}
	if patch.ProxyURL != nil {
		if *patch.ProxyURL == "" {
			props.ProxyURL = nil
		} else {
			props.ProxyURL = patch.ProxyURL
		}
	}
	return props
}
