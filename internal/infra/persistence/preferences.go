package persistence

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

type preferencesRecord struct {
	ID             *string `json:"id"`
	TargetLanguage *string `json:"targetLanguage"`
	SelectedModel  *string `json:"selectedModel"`
	Theme          *string `json:"theme"          validate:"omitempty,oneof=dark light system"`
	ProxyURL       *string `json:"proxyUrl"`
}

func (r preferencesRecord) props() domain.PreferencesProps {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return domain.PreferencesProps{
		ID:             deref(r.ID),
		TargetLanguage: deref(r.TargetLanguage),
		SelectedModel:  deref(r.SelectedModel),
		Theme:          deref(r.Theme),
		ProxyURL:       r.ProxyURL,
	}
}

// PreferencesRepository stores UserPreferences under "userPreferences".
type PreferencesRepository struct {
	kv kv
}

func NewPreferencesRepository(store storage.Store, logger *slog.Logger) *PreferencesRepository {
	return &PreferencesRepository{kv: kv{store: store, logger: logger}}
}

// Get returns the stored preferences. A record that does not validate is
// removed and reported as absent; a record without an id gets a fresh one.
func (r *PreferencesRepository) Get(ctx context.Context) (domain.UserPreferences, bool, error) {
	var rec preferencesRecord
	found, decodeErr, err := r.kv.read(ctx, KeyUserPreferences, &rec)
	if err != nil || !found {
		return domain.UserPreferences{}, false, err
	}
	if decodeErr == nil {
		decodeErr = recordValidator.Struct(rec)
	}
	if decodeErr != nil {
		r.kv.discard(ctx, KeyUserPreferences, decodeErr)
		return domain.UserPreferences{}, false, nil
	}

	props := rec.props()
	if props.ID == "" {
		props.ID = uuid.NewString()
	}
	prefs, err := domain.PreferencesFromProps(props)
	if err != nil {
		r.kv.discard(ctx, KeyUserPreferences, err)
		return domain.UserPreferences{}, false, nil
	}
	return prefs, true, nil
}

// Set merges patch over the stored record, or over a fresh record with a
// new id when nothing valid is stored.
func (r *PreferencesRepository) Set(ctx context.Context, patch domain.PreferencesProps) error {
	existing, found, err := r.Get(ctx)
	if err != nil {
		return err
	}
	base := domain.PreferencesProps{ID: uuid.NewString()}
	if found {
		base = existing.Props()
	}
	return r.kv.write(ctx, KeyUserPreferences, base.Merge(patch))
}

func (r *PreferencesRepository) Clear(ctx context.Context) error {
	return r.kv.remove(ctx, KeyUserPreferences)
}
