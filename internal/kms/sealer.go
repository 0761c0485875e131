// Package kms seals secrets, such as stored API keys, before they reach a
// storage backend.
package kms

import (
	"context"
	"errors"
)

var ErrSealedDataTooShort = errors.New("sealed data too short")

// Sealer encrypts and decrypts small values. aad binds a ciphertext to the
// storage key it was written under, so sealed values cannot be swapped.
type Sealer interface {
	Seal(ctx context.Context, plaintext []byte, aad string) ([]byte, error)
	Open(ctx context.Context, ciphertext []byte, aad string) ([]byte, error)
	Name() string
}

// NoopSealer stores values as they are.
type NoopSealer struct{}

func (NoopSealer) Seal(_ context.Context, plaintext []byte, _ string) ([]byte, error) {
	return plaintext, nil
}

func (NoopSealer) Open(_ context.Context, ciphertext []byte, _ string) ([]byte, error) {
	return ciphertext, nil
}

func (NoopSealer) Name() string { return "none" }
