package persistence

import (
	"context"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

const migratedSetID = "migrated"

type credentialRecord struct {
	ID       *string `json:"id"       validate:"required"`
	Type     *string `json:"type"     validate:"required,eq=API_KEY"`
	Provider *string `json:"provider" validate:"required,oneof=gemini groq"`
	APIKey   *string `json:"apiKey"   validate:"required"`
}

type credentialSetRecord struct {
	ID                 *string            `json:"id"    validate:"required"`
	ActiveCredentialID *string            `json:"activeCredentialId"`
	Items              []credentialRecord `json:"items" validate:"required,dive"`
}

// legacyCredentialRecord is the single credential stored before key sets.
type legacyCredentialRecord struct {
	ID     *string `json:"id"     validate:"required"`
	Type   *string `json:"type"   validate:"required,eq=API_KEY"`
	APIKey *string `json:"apiKey" validate:"required"`
}

func (r credentialSetRecord) props() domain.CredentialSetProps {
	props := domain.CredentialSetProps{
		ID:                 *r.ID,
		ActiveCredentialID: r.ActiveCredentialID,
		Items:              make([]domain.CredentialProps, len(r.Items)),
	}
	for i, item := range r.Items {
		props.Items[i] = domain.CredentialProps{
			ID:       *item.ID,
			Type:     *item.Type,
			Provider: domain.Provider(*item.Provider),
			APIKey:   *item.APIKey,
		}
	}
	return props
}

// CredentialRepository stores the CredentialSet under "credentials".
type CredentialRepository struct {
	kv kv
}

func NewCredentialRepository(store storage.Store, logger *slog.Logger) *CredentialRepository {
	return &CredentialRepository{kv: kv{store: store, logger: logger}}
}

// Get returns the stored set. An invalid record is removed and reported as
// absent. A legacy single credential is migrated into a set with id
// "migrated" on first read.
func (r *CredentialRepository) Get(ctx context.Context) (domain.CredentialSet, bool, error) {
	var rec credentialSetRecord
	found, decodeErr, err := r.kv.read(ctx, KeyCredentials, &rec)
	if err != nil {
		return domain.CredentialSet{}, false, err
	}
	if found {
		if decodeErr == nil {
			decodeErr = recordValidator.Struct(rec)
		}
		if decodeErr != nil {
			r.kv.discard(ctx, KeyCredentials, decodeErr)
			return domain.CredentialSet{}, false, nil
		}
		set, err := domain.CredentialSetFromProps(rec.props())
		if err != nil {
			r.kv.discard(ctx, KeyCredentials, err)
			return domain.CredentialSet{}, false, nil
		}
		return set, true, nil
	}

	return r.migrateLegacy(ctx)
}

func (r *CredentialRepository) migrateLegacy(ctx context.Context) (domain.CredentialSet, bool, error) {
	var legacy legacyCredentialRecord
	found, decodeErr, err := r.kv.read(ctx, KeyLegacyCredential, &legacy)
	if err != nil || !found {
		return domain.CredentialSet{}, false, err
	}
	if decodeErr == nil {
		decodeErr = recordValidator.Struct(legacy)
	}

	if decodeErr == nil {
		id := *legacy.ID
		set, err := domain.CredentialSetFromProps(domain.CredentialSetProps{
			ID:                 migratedSetID,
			ActiveCredentialID: &id,
			Items: []domain.CredentialProps{{
				ID:       id,
				Type:     domain.CredentialTypeAPIKey,
				Provider: domain.ProviderGemini,
				APIKey:   *legacy.APIKey,
			}},
		})
		if err == nil {
			if err := r.Save(ctx, set); err != nil {
				return domain.CredentialSet{}, false, err
			}
			if err := r.kv.remove(ctx, KeyLegacyCredential); err != nil {
				r.kv.logger.WarnContext(ctx, "failed to remove legacy credential after migration", "error", err)
			}
			r.kv.logger.InfoContext(ctx, "migrated legacy credential", "credential_id", id)
			return set, true, nil
		}
		decodeErr = err
	}

	r.kv.discard(ctx, KeyLegacyCredential, decodeErr)
	return domain.CredentialSet{}, false, nil
}

func (r *CredentialRepository) Save(ctx context.Context, set domain.CredentialSet) error {
	return r.kv.write(ctx, KeyCredentials, set.Props())
}

func (r *CredentialRepository) Clear(ctx context.Context) error {
	return r.kv.remove(ctx, KeyCredentials)
}
