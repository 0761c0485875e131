package domain

import "context"

// CredentialRepository persists the single CredentialSet.
type CredentialRepository interface {
	Get(ctx context.Context) (CredentialSet, bool, error)
	Save(ctx context.Context, set CredentialSet) error
	Clear(ctx context.Context) error
}

// KeySelectionRepository persists the selection mode and the per-provider
// rotation state.
type KeySelectionRepository interface {
	GetMode(ctx context.Context) (KeySelectionMode, error)
	SetMode(ctx context.Context, mode KeySelectionMode) error
	GetLastUsedKeyID(ctx context.Context, p Provider) (string, error)
	SetLastUsedKeyID(ctx context.Context, p Provider, id string) error
}

type PreferencesRepository interface {
	Get(ctx context.Context) (UserPreferences, bool, error)
	// Set merges patch into the stored preferences.
	Set(ctx context.Context, patch PreferencesProps) error
	Clear(ctx context.Context) error
}

// TranslationRepository is the translation history, newest first.
type TranslationRepository interface {
	Save(ctx context.Context, t Translation) error
	Get(ctx context.Context, id string) (Translation, bool, error)
	GetAll(ctx context.Context) ([]Translation, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// TranslationService OCRs an image and translates it into the target language.
type TranslationService interface {
	TranslateImage(ctx context.Context, image EncodedImage, target Language) (Translation, error)
}

// TranslatorFactory builds the TranslationService for a credential's provider.
type TranslatorFactory interface {
	New(ctx context.Context, cred Credential, prefs UserPreferences) (TranslationService, error)
}

// APIKeyValidator checks a key against its provider before it is stored.
type APIKeyValidator interface {
	Validate(ctx context.Context, key APIKey) error
}

type ProxyHealthChecker interface {
	Check(ctx context.Context, url string) (bool, error)
}
