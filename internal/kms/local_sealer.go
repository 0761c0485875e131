package kms

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/spounge-ai/rosetta/pkg/cache"
	"github.com/spounge-ai/rosetta/pkg/execution"
)

const (
	localSealTimeout   = 1 * time.Second
	derivedKeyCacheTTL = 1 * time.Hour
	minMasterKeyLength = 32
	storageKeyLength   = 32
)

// LocalSealer encrypts with AES-GCM under a key derived per storage key from
// a local master key.
type LocalSealer struct {
	masterKey       []byte
	derivedKeyCache *cache.TTL[[]byte]
}

// NewLocalSealer takes a base64 master key of at least 32 bytes.
func NewLocalSealer(masterKey string) (*LocalSealer, error) {
	key, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) < minMasterKeyLength {
		return nil, fmt.Errorf("master key must be at least %d bytes, got %d", minMasterKeyLength, len(key))
	}
	return &LocalSealer{
		masterKey: key,
		derivedKeyCache: cache.New(derivedKeyCacheTTL, cache.WithOnEvict(zeroBytes)),
	}, nil
}

func (s *LocalSealer) Name() string { return "local" }

func (s *LocalSealer) Seal(ctx context.Context, plaintext []byte, aad string) ([]byte, error) {
	return execution.WithTimeout(ctx, localSealTimeout, func(ctx context.Context) ([]byte, error) {
		gcm, err := s.aead(ctx, aad)
		if err != nil {
			return nil, err
		}

		nonce := make([]byte, gcm.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %w", err)
		}
		return gcm.Seal(nonce, nonce, plaintext, []byte(aad)), nil
	})
}

func (s *LocalSealer) Open(ctx context.Context, ciphertext []byte, aad string) ([]byte, error) {
	return execution.WithTimeout(ctx, localSealTimeout, func(ctx context.Context) ([]byte, error) {
		gcm, err := s.aead(ctx, aad)
		if err != nil {
			return nil, err
		}

		nonceSize := gcm.NonceSize()
		if len(ciphertext) < nonceSize {
			return nil, ErrSealedDataTooShort
		}
		nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]
		plaintext, err := gcm.Open(nil, nonce, body, []byte(aad))
		if err != nil {
			return nil, fmt.Errorf("failed to open sealed value: %w", err)
		}
		return plaintext, nil
	})
}

// Close wipes the derived keys.
func (s *LocalSealer) Close() error {
	s.derivedKeyCache.Clear()
	return nil
}

func (s *LocalSealer) aead(ctx context.Context, aad string) (cipher.AEAD, error) {
	key, err := s.derivedKey(ctx, aad)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// derivedKey returns a copy, so eviction can zero the cached key while a
// caller is still using it.
func (s *LocalSealer) derivedKey(ctx context.Context, aad string) ([]byte, error) {
	key, err := s.derivedKeyCache.GetOrLoad(ctx, aad, func(context.Context) ([]byte, error) {
		return storageKey(s.masterKey, aad)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return bytes.Clone(key), nil
}

// storageKey derives the AES-256 key for values stored under name. Each
// storage key name gets its own key.
func storageKey(masterKey []byte, name string) ([]byte, error) {
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("master key cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("storage key name cannot be empty")
	}
	r := hkdf.New(sha256.New, masterKey, []byte("rosetta-salt:"+name), []byte("rosetta-storage:"+name))
	key := make([]byte, storageKeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func zeroBytes(_ string, b []byte) {
	clear(b)
}
