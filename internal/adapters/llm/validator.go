package llm

import (
	"context"
	"fmt"

	"github.com/spounge-ai/rosetta/internal/domain"
)

// KeyValidator routes a key to the validator of the provider its prefix
// names.
type KeyValidator struct {
	byProvider map[domain.Provider]domain.APIKeyValidator
}

func NewKeyValidator(byProvider map[domain.Provider]domain.APIKeyValidator) *KeyValidator {
	return &KeyValidator{byProvider: byProvider}
}

func (v *KeyValidator) Validate(ctx context.Context, key domain.APIKey) error {
	inner, ok := v.byProvider[key.Provider()]
	if !ok {
		return fmt.Errorf("no key validator registered for provider %q", key.Provider())
	}
	return inner.Validate(ctx, key)
}
