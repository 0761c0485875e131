package domain

import "slices"

// ModelInfo describes one model a provider serves.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProviderInfo is the static catalogue entry for a provider.
type ProviderInfo struct {
	ID           Provider    `json:"id"`
	Name         string      `json:"name"`
	DefaultModel string      `json:"defaultModel"`
	Models       []ModelInfo `json:"models"`
	Languages    []string    `json:"languages"`
}

var registry = []ProviderInfo{
	{
		ID:           ProviderGemini,
		Name:         "Google Gemini",
		DefaultModel: "gemini-2.5-flash-lite",
		Models: []ModelInfo{
			{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro (Preview)"},
			{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash (Preview)"},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash"},
			{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite"},
			{ID: "gemini-2.5-flash-lite-preview-09-2025", Name: "Gemini 2.5 Flash Lite (Preview 09-2025)"},
			{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
		},
		Languages: []string{
			"af-ZA", "am-ET", "ar-SA", "bn-IN", "bg-BG", "ca-ES", "zh-CN", "zh-TW",
			"hr-HR", "cs-CZ", "da-DK", "nl-NL", "en-US", "et-EE", "fil-PH", "fi-FI",
			"fr-FR", "de-DE", "el-GR", "gu-IN", "he-IL", "hi-IN", "hu-HU", "id-ID",
			"it-IT", "ja-JP", "kn-IN", "ko-KR", "lv-LV", "lt-LV", "ms-MY", "ml-IN",
			"mr-IN", "no-NO", "fa-IR", "pl-PL", "pt-PT", "pa-IN", "ro-RO", "ru-RU",
			"sk-SK", "sl-SI", "es-ES", "sw-KE", "sv-SE", "tl-PH", "ta-IN", "te-IN",
			"th-TH", "tr-TR", "uk-UA", "vi-VN",
		},
	},
	{
		ID:           ProviderGroq,
		Name:         "Groq",
		DefaultModel: "meta-llama/llama-4-maverick-17b-128e-instruct",
		Models: []ModelInfo{
			{ID: "meta-llama/llama-4-maverick-17b-128e-instruct", Name: "Llama 4 Maverick"},
			{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama 4 Scout"},
		},
		Languages: []string{
			"ar-SA", "de-DE", "en-US", "es-ES", "fr-FR", "hi-IN",
			"id-ID", "it-IT", "pt-PT", "th-TH", "tl-PH", "vi-VN",
		},
	},
}

// Registry returns the provider catalogue.
func Registry() []ProviderInfo {
	return slices.Clone(registry)
}

func ProviderInfoFor(p Provider) (ProviderInfo, bool) {
	for _, info := range registry {
		if info.ID == p {
			return info, true
		}
	}
	return ProviderInfo{}, false
}

// LookupModel finds a model and the provider serving it.
func LookupModel(id string) (ModelInfo, Provider, bool) {
	for _, info := range registry {
		for _, m := range info.Models {
			if m.ID == id {
				return m, info.ID, true
			}
		}
	}
	return ModelInfo{}, "", false
}

// ModelFor returns the model to call for a provider: the preferred model when
// that provider serves it, otherwise the provider's default.
func ModelFor(p Provider, preferred string) string {
	info, ok := ProviderInfoFor(p)
	if !ok {
		return preferred
	}
	if _, owner, found := LookupModel(preferred); found && owner == p {
		return preferred
	}
	return info.DefaultModel
}

func SupportsLanguage(p Provider, code string) bool {
	info, ok := ProviderInfoFor(p)
	return ok && slices.Contains(info.Languages, code)
}
