package kms

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/spounge-ai/rosetta/pkg/cache"
)

const encryptionContextKey = "rosetta:storage-key"

// KMSAPI is the part of the AWS KMS client the sealer uses.
type KMSAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// AWSSealer encrypts directly with an AWS KMS key. Decrypted values are
// cached briefly since the same credential set is read on every request,
// and wiped when they expire or the sealer closes.
type AWSSealer struct {
	client    KMSAPI
	keyARN    string
	plaintext *cache.TTL[[]byte]
}

func NewAWSSealer(cfg aws.Config, keyARN string, cacheTTL time.Duration) *AWSSealer {
	return NewAWSSealerWithClient(kms.NewFromConfig(cfg), keyARN, cacheTTL)
}

func NewAWSSealerWithClient(client KMSAPI, keyARN string, cacheTTL time.Duration) *AWSSealer {
	return &AWSSealer{
		client: client,
		keyARN: keyARN,
		plaintext: cache.New(cacheTTL, cache.WithOnEvict(zeroBytes)),
	}
}

func (s *AWSSealer) Name() string { return "aws" }

func (s *AWSSealer) Seal(ctx context.Context, plaintext []byte, aad string) ([]byte, error) {
	out, err := s.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:             aws.String(s.keyARN),
		Plaintext:         plaintext,
		EncryptionContext: map[string]string{encryptionContextKey: aad},
	})
	if err != nil {
		return nil, fmt.Errorf("kms encrypt failed: %w", err)
	}
	return out.CiphertextBlob, nil
}

func (s *AWSSealer) Open(ctx context.Context, ciphertext []byte, aad string) ([]byte, error) {
	cacheKey := aad + ":" + base64.StdEncoding.EncodeToString(ciphertext)
	pt, err := s.plaintext.GetOrLoad(ctx, cacheKey, func(ctx context.Context) ([]byte, error) {
		out, err := s.client.Decrypt(ctx, &kms.DecryptInput{
			CiphertextBlob:    ciphertext,
			KeyId:             aws.String(s.keyARN),
			EncryptionContext: map[string]string{encryptionContextKey: aad},
		})
		if err != nil {
			return nil, fmt.Errorf("kms decrypt failed: %w", err)
		}
		return bytes.Clone(out.Plaintext), nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(pt), nil
}

func (s *AWSSealer) Close() error {
	s.plaintext.Clear()
	return nil
}
