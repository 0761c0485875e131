// Package persistence maps the domain repositories onto the shared
// key-value store.
package persistence

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

// Storage keys shared by every context.
const (
	KeyCredentials       = "credentials"
	KeyLegacyCredential  = "credential"
	KeyKeySelectionMode  = "keySelectionMode"
	KeyLastUsedKeyPrefix = "lastUsedKeyId:"
	KeyUserPreferences   = "userPreferences"
	KeyTranslations      = "translations"
)

var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// kv wraps a Store with JSON encoding and the storage error codes.
type kv struct {
	store  storage.Store
	logger *slog.Logger
}

// read decodes key into dst. A missing key reports false. A value that is
// not valid JSON reports true with decodeErr set, so callers can repair it.
func (k kv) read(ctx context.Context, key string, dst any) (found bool, decodeErr error, err error) {
	raw, found, err := k.store.Get(ctx, key)
	if err != nil {
		return false, nil, app_errors.ReadFailed(key, err)
	}
	if !found || len(raw) == 0 || string(raw) == "null" {
		return false, nil, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, err, nil
	}
	return true, nil, nil
}

func (k kv) write(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return app_errors.WriteFailed(key, err)
	}
	if err := k.store.Set(ctx, key, raw); err != nil {
		return app_errors.WriteFailed(key, err)
	}
	return nil
}

func (k kv) remove(ctx context.Context, key string) error {
	if err := k.store.Delete(ctx, key); err != nil {
		return app_errors.WriteFailed(key, err)
	}
	return nil
}

// discard removes a value that failed to decode or validate. The removal is
// a repair, so its failure is only logged.
func (k kv) discard(ctx context.Context, key string, reason error) {
	k.logger.WarnContext(ctx, "discarding invalid stored value", "key", key, "reason", reason)
	if err := k.store.Delete(ctx, key); err != nil {
		k.logger.ErrorContext(ctx, "failed to discard invalid stored value", "key", key, "error", err)
	}
}
