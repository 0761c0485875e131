package domain

import (
	"errors"
	"fmt"
	"strings"
)

const CredentialTypeAPIKey = "API_KEY"

var ErrEmptyCredentialID = errors.New("Credential ID cannot be empty")

// Credential binds an API key to an id. The provider always matches the key.
type Credential struct {
	id     string
	apiKey APIKey
}

func NewCredential(id string, key APIKey) (Credential, error) {
	if strings.TrimSpace(id) == "" {
		return Credential{}, ErrEmptyCredentialID
	}
	if key.IsZero() {
		return Credential{}, ErrEmptyAPIKey
	}
	return Credential{id: id, apiKey: key}, nil
}

func (c Credential) ID() string         { return c.id }
func (c Credential) APIKey() APIKey     { return c.apiKey }
func (c Credential) Provider() Provider { return c.apiKey.Provider() }

// CredentialProps is the persisted shape of a Credential.
type CredentialProps struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Provider Provider `json:"provider"`
	APIKey   string   `json:"apiKey"`
}

func (c Credential) Props() CredentialProps {
	return CredentialProps{
		ID:       c.id,
		Type:     CredentialTypeAPIKey,
		Provider: c.Provider(),
		APIKey:   c.apiKey.Value(),
	}
}

// CredentialFromProps rebuilds a Credential. The stored provider is ignored
// in favour of the one implied by the key.
func CredentialFromProps(p CredentialProps) (Credential, error) {
	key, err := NewAPIKey(p.APIKey)
	if err != nil {
		return Credential{}, fmt.Errorf("credential %q: %w", p.ID, err)
	}
	return NewCredential(p.ID, key)
}
