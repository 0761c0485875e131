package domain

import (
	"errors"
	"strings"
)

const (
	geminiKeyPrefix = "AIza"
	groqKeyPrefix   = "gsk_"
)

var (
	ErrEmptyAPIKey        = errors.New("API key cannot be empty")
	ErrUnrecognizedAPIKey = errors.New(`API key must start with "AIza" (Gemini) or "gsk_" (Groq)`)
)

// APIKey is a trimmed provider secret. The provider is inferred from the key
// prefix, so a key that matches no provider cannot exist.
type APIKey struct {
	value    string
	provider Provider
}

func NewAPIKey(raw string) (APIKey, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return APIKey{}, ErrEmptyAPIKey
	}

	switch {
	case strings.HasPrefix(v, geminiKeyPrefix):
		return APIKey{value: v, provider: ProviderGemini}, nil
	case strings.HasPrefix(v, groqKeyPrefix):
		return APIKey{value: v, provider: ProviderGroq}, nil
	}
	return APIKey{}, ErrUnrecognizedAPIKey
}

// Value returns the secret. Never log it.
func (k APIKey) Value() string {
	return k.value
}

func (k APIKey) Provider() Provider {
	return k.provider
}

// Prefix returns the first characters of the key, safe for logs.
func (k APIKey) Prefix() string {
	if len(k.value) <= 8 {
		return k.value[:min(4, len(k.value))]
	}
	return k.value[:8]
}

// String masks the secret so keys never leak through %v.
func (k APIKey) String() string {
	if len(k.value) <= 8 {
		return "****"
	}
	return k.value[:4] + "****" + k.value[len(k.value)-4:]
}

func (k APIKey) IsZero() bool {
	return k.value == ""
}
