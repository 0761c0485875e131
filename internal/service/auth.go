// Package service holds the use cases the routers, the bridge and the CLI
// call into.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
)

var tracer = otel.Tracer("github.com/spounge-ai/rosetta/internal/service")

type AuthService interface {
	AddAPIKey(ctx context.Context, rawKey string) (domain.CredentialSet, error)
	RemoveAPIKey(ctx context.Context, credentialID string) (domain.CredentialSet, error)
	SetActiveKey(ctx context.Context, credentialID string) (domain.CredentialSet, error)
	CheckAuth(ctx context.Context) (bool, error)
	GetCredentials(ctx context.Context) (domain.CredentialSet, bool, error)
	GetKeySelectionMode(ctx context.Context) (domain.KeySelectionMode, error)
	SetKeySelectionMode(ctx context.Context, mode domain.KeySelectionMode) error
}

type authServiceImpl struct {
	credentials domain.CredentialRepository
	selection   domain.KeySelectionRepository
	validator   domain.APIKeyValidator
	logger      *slog.Logger
}

// NewAuthService wires the credential use cases. validator may be nil, in
// which case keys are stored without asking the provider first.
func NewAuthService(credentials domain.CredentialRepository, selection domain.KeySelectionRepository, validator domain.APIKeyValidator, logger *slog.Logger) AuthService {
	return &authServiceImpl{
		credentials: credentials,
		selection:   selection,
		validator:   validator,
		logger:      logger,
	}
}

// AddAPIKey checks the key with its provider, stores it under a fresh id and
// makes it the active key.
func (s *authServiceImpl) AddAPIKey(ctx context.Context, rawKey string) (domain.CredentialSet, error) {
	ctx, span := tracer.Start(ctx, "AddAPIKey")
	defer span.End()

	key, err := domain.NewAPIKey(rawKey)
	if err != nil {
		return domain.CredentialSet{}, app_errors.InvalidAPIKey(err.Error(), "")
	}
	span.SetAttributes(attribute.String("provider", string(key.Provider())))

	if s.validator != nil {
		if err := s.validator.Validate(ctx, key); err != nil {
			return domain.CredentialSet{}, err
		}
	}

	cred, err := domain.NewCredential(uuid.NewString(), key)
	if err != nil {
		return domain.CredentialSet{}, app_errors.InvalidAPIKey(err.Error(), key.Prefix())
	}

	set, err := s.loadOrEmpty(ctx)
	if err != nil {
		return domain.CredentialSet{}, err
	}
	updated := set.Add(cred)
	if err := s.credentials.Save(ctx, updated); err != nil {
		return domain.CredentialSet{}, err
	}

	s.logger.InfoContext(ctx, "api key added", "credential_id", cred.ID(), "provider", key.Provider(), "key", key.String())
	return updated, nil
}

func (s *authServiceImpl) RemoveAPIKey(ctx context.Context, credentialID string) (domain.CredentialSet, error) {
	set, err := s.loadOrEmpty(ctx)
	if err != nil {
		return domain.CredentialSet{}, err
	}
	updated := set.Remove(credentialID)
	if err := s.credentials.Save(ctx, updated); err != nil {
		return domain.CredentialSet{}, err
	}
	s.logger.InfoContext(ctx, "api key removed", "credential_id", credentialID, "active_id", updated.ActiveID())
	return updated, nil
}

func (s *authServiceImpl) SetActiveKey(ctx context.Context, credentialID string) (domain.CredentialSet, error) {
	set, found, err := s.credentials.Get(ctx)
	if err != nil {
		return domain.CredentialSet{}, err
	}
	if !found {
		return domain.CredentialSet{}, app_errors.InvalidAPIKey("No credentials found", "")
	}

	updated, err := set.SetActive(credentialID)
	if err != nil {
		return domain.CredentialSet{}, app_errors.InvalidAPIKey(err.Error(), "")
	}
	if err := s.credentials.Save(ctx, updated); err != nil {
		return domain.CredentialSet{}, err
	}
	return updated, nil
}

// CheckAuth reports whether a credential set is stored at all.
func (s *authServiceImpl) CheckAuth(ctx context.Context) (bool, error) {
	_, found, err := s.credentials.Get(ctx)
	return found, err
}

func (s *authServiceImpl) GetCredentials(ctx context.Context) (domain.CredentialSet, bool, error) {
	return s.credentials.Get(ctx)
}

func (s *authServiceImpl) GetKeySelectionMode(ctx context.Context) (domain.KeySelectionMode, error) {
	return s.selection.GetMode(ctx)
}

// SetKeySelectionMode always accepts manual. Auto-balance needs at least
// two stored keys for its provider.
func (s *authServiceImpl) SetKeySelectionMode(ctx context.Context, mode domain.KeySelectionMode) error {
	provider, ok := mode.Provider()
	if !ok {
		return s.selection.SetMode(ctx, mode)
	}

	set, found, err := s.credentials.Get(ctx)
	if err != nil {
		return err
	}
	if !found {
		return app_errors.InvalidAPIKey("No credentials found. Add at least 2 keys to enable auto-balance.", "")
	}

	if n := len(set.ByProvider(provider)); n < domain.MinAutoBalanceKeys {
		return app_errors.InvalidAPIKey(
			fmt.Sprintf("Need at least %d %s keys to enable auto-balance. Found %d.", domain.MinAutoBalanceKeys, provider, n), "")
	}
	return s.selection.SetMode(ctx, mode)
}

func (s *authServiceImpl) loadOrEmpty(ctx context.Context) (domain.CredentialSet, error) {
	set, found, err := s.credentials.Get(ctx)
	if err != nil {
		return domain.CredentialSet{}, err
	}
	if !found {
		return domain.NewCredentialSet(uuid.NewString()), nil
	}
	return set, nil
}
