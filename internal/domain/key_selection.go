package domain

import (
	"errors"
	"fmt"
	"strings"
)

// KeySelectionMode decides how the active credential is chosen for a request.
type KeySelectionMode string

const (
	KeySelectionManual            KeySelectionMode = "manual"
	KeySelectionAutoBalanceGemini KeySelectionMode = "auto-balance:gemini"
	KeySelectionAutoBalanceGroq   KeySelectionMode = "auto-balance:groq"
)

const autoBalancePrefix = "auto-balance:"

// MinAutoBalanceKeys is the number of keys a provider needs before rotation
// across them makes sense.
const MinAutoBalanceKeys = 2

var ErrEmptyKeySelectionMode = errors.New("Key selection mode must be a non-empty string")

func KeySelectionModes() []KeySelectionMode {
	return []KeySelectionMode{KeySelectionManual, KeySelectionAutoBalanceGemini, KeySelectionAutoBalanceGroq}
}

func ParseKeySelectionMode(raw string) (KeySelectionMode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyKeySelectionMode
	}
	for _, m := range KeySelectionModes() {
		if string(m) == raw {
			return m, nil
		}
	}

	valid := make([]string, 0, 3)
	for _, m := range KeySelectionModes() {
		valid = append(valid, string(m))
	}
	return "", fmt.Errorf("Invalid key selection mode: %s. Must be one of: %s", raw, strings.Join(valid, ", "))
}

// AutoBalanceFor returns the rotation mode for a provider.
func AutoBalanceFor(p Provider) KeySelectionMode {
	return KeySelectionMode(autoBalancePrefix + string(p))
}

func (m KeySelectionMode) IsAutoBalance() bool {
	return strings.HasPrefix(string(m), autoBalancePrefix)
}

// Provider returns the provider a rotation mode balances across.
func (m KeySelectionMode) Provider() (Provider, bool) {
	if !m.IsAutoBalance() {
		return "", false
	}
	return Provider(strings.TrimPrefix(string(m), autoBalancePrefix)), true
}

func (m KeySelectionMode) Label() string {
	if p, ok := m.Provider(); ok {
		return "Auto balance (round robin) " + strings.ToUpper(string(p))
	}
	return "Manual"
}

func (m KeySelectionMode) String() string {
	return string(m)
}
