package domain

import (
	"fmt"
	"strings"
)

// Provider names an AI backend that can OCR and translate an image.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
)

// Providers returns every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderGroq}
}

func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case ProviderGemini, ProviderGroq:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider: %q", raw)
}

func (p Provider) String() string {
	return string(p)
}
