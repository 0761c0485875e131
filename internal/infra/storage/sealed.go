package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spounge-ai/rosetta/internal/kms"
)

var sealedPrefix = []byte("sealed:v1:")

// Sealed encrypts values on the way in and decrypts them on the way out.
// The storage key is the associated data, so a value copied to another key
// fails to open. Plaintext values written before sealing was enabled are
// returned as they are and sealed on their next write.
type Sealed struct {
	next   Store
	sealer kms.Sealer
}

func NewSealed(next Store, sealer kms.Sealer) *Sealed {
	return &Sealed{next: next, sealer: sealer}
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, found, err := s.next.Get(ctx, key)
	if err != nil || !found {
		return raw, found, err
	}

	var envelope string
	if json.Unmarshal(raw, &envelope) != nil || !bytes.HasPrefix([]byte(envelope), sealedPrefix) {
		return raw, true, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope[len(sealedPrefix):])
	if err != nil {
		return nil, false, fmt.Errorf("decode sealed %q: %w", key, err)
	}
	plaintext, err := s.sealer.Open(ctx, ciphertext, key)
	if err != nil {
		return nil, false, fmt.Errorf("open sealed %q with %s: %w", key, s.sealer.Name(), err)
	}
	return plaintext, true, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	ciphertext, err := s.sealer.Seal(ctx, value, key)
	if err != nil {
		return fmt.Errorf("seal %q with %s: %w", key, s.sealer.Name(), err)
	}
	envelope, err := json.Marshal(string(sealedPrefix) + base64.StdEncoding.EncodeToString(ciphertext))
	if err != nil {
		return err
	}
	return s.next.Set(ctx, key, envelope)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}
