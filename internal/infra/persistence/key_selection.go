package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

// KeySelectionRepository stores the selection mode and, per provider, the id
// of the credential the resolver used last.
type KeySelectionRepository struct {
	kv kv
}

func NewKeySelectionRepository(store storage.Store, logger *slog.Logger) *KeySelectionRepository {
	return &KeySelectionRepository{kv: kv{store: store, logger: logger}}
}

func lastUsedKey(p domain.Provider) string {
	return KeyLastUsedKeyPrefix + string(p)
}

// GetMode defaults to manual. An unrecognised stored mode is removed and
// read as manual.
func (r *KeySelectionRepository) GetMode(ctx context.Context) (domain.KeySelectionMode, error) {
	var raw string
	found, decodeErr, err := r.kv.read(ctx, KeyKeySelectionMode, &raw)
	if err != nil {
		return "", err
	}
	if !found || (decodeErr == nil && raw == "") {
		return domain.KeySelectionManual, nil
	}
	if decodeErr != nil {
		r.kv.discard(ctx, KeyKeySelectionMode, decodeErr)
		return domain.KeySelectionManual, nil
	}

	mode, err := domain.ParseKeySelectionMode(raw)
	if err != nil {
		r.kv.discard(ctx, KeyKeySelectionMode, err)
		return domain.KeySelectionManual, nil
	}
	return mode, nil
}

func (r *KeySelectionRepository) SetMode(ctx context.Context, mode domain.KeySelectionMode) error {
	return r.kv.write(ctx, KeyKeySelectionMode, string(mode))
}

// GetLastUsedKeyID returns "" when no rotation has happened yet.
func (r *KeySelectionRepository) GetLastUsedKeyID(ctx context.Context, p domain.Provider) (string, error) {
	var id string
	found, decodeErr, err := r.kv.read(ctx, lastUsedKey(p), &id)
	if err != nil || !found {
		return "", err
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode %s: %w", lastUsedKey(p), decodeErr)
	}
	return id, nil
}

func (r *KeySelectionRepository) SetLastUsedKeyID(ctx context.Context, p domain.Provider, id string) error {
	return r.kv.write(ctx, lastUsedKey(p), id)
}
