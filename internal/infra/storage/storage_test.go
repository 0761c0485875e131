package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/kms"
	"github.com/spounge-ai/rosetta/pkg/patterns/circuitbreaker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "credentials")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "credentials", []byte(`{"id":"a"}`)))
	require.NoError(t, s.Set(ctx, "credentials", []byte(`{"id":"b"}`)))

	v, found, err := s.Get(ctx, "credentials")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"b"}`, string(v))

	require.NoError(t, s.Delete(ctx, "credentials"))
	require.NoError(t, s.Delete(ctx, "credentials"))
	_, found, err = s.Get(ctx, "credentials")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte(`"x"`)
	require.NoError(t, m.Set(context.Background(), "k", value))
	value[1] = 'y'

	got, _, _ := m.Get(context.Background(), "k")
	assert.Equal(t, `"x"`, string(got))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosetta.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Set(context.Background(), "translations", []byte(`[]`)))
	require.NoError(t, s.Close())

	// Reopening runs migrations again without error and keeps data.
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, found, err := s.Get(context.Background(), "translations")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(v))
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSealedStore(t *testing.T) {
	master := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("m", 32)))
	sealer, err := kms.NewLocalSealer(master)
	require.NoError(t, err)
	defer sealer.Close()

	backing := NewMemory()
	s := NewSealed(backing, sealer)
	exerciseStore(t, s)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "credentials", []byte(`{"apiKey":"AIzaSecret"}`)))
	raw := backing.Snapshot()["credentials"]
	assert.NotContains(t, string(raw), "AIzaSecret")
	assert.Contains(t, string(raw), "sealed:v1:")

	// Moving a sealed value to another key must not open.
	require.NoError(t, backing.Set(ctx, "userPreferences", raw))
	_, _, err = s.Get(ctx, "userPreferences")
	assert.Error(t, err)
}

func TestSealedStoreReadsPlaintext(t *testing.T) {
	backing := NewMemory()
	require.NoError(t, backing.Set(context.Background(), "keySelectionMode", []byte(`"manual"`)))

	s := NewSealed(backing, kms.NoopSealer{})
	v, found, err := s.Get(context.Background(), "keySelectionMode")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"manual"`, string(v))
}

type failingStore struct {
	calls int
}

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	f.calls++
	return nil, false, errors.New("connection refused")
}

func (f *failingStore) Set(context.Context, string, []byte) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingStore) Delete(context.Context, string) error {
	f.calls++
	return errors.New("connection refused")
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	backend := &failingStore{}
	b := NewBreaker(backend, 2, time.Hour, discardLogger())
	ctx := context.Background()

	for range 2 {
		_, _, err := b.Get(ctx, "k")
		require.Error(t, err)
	}
	_, _, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, 2, backend.calls)

	// Writes have their own circuit.
	assert.NotErrorIs(t, b.Set(ctx, "k", nil), circuitbreaker.ErrOpen)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := NewS3WithClient(fake, "bucket", "rosetta/", discardLogger())
	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "lastUsedKeyId:gemini", []byte(`"k1"`)))
	assert.Contains(t, fake.objects, "rosetta/lastUsedKeyId:gemini.json")
}

func TestOpenMemoryWithLocalSealer(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.StorageMemory},
		KMS: config.KMSConfig{
			Provider:  config.KMSLocal,
			MasterKey: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("m", 32))),
		},
	}
	opened, err := Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer opened.Close()

	_, sealed := opened.Store.(*Sealed)
	assert.True(t, sealed)
	exerciseStore(t, opened.Store)
}

func TestRetryableConnectError(t *testing.T) {
	assert.True(t, retryableConnectError(errors.New("connection refused")))
	assert.True(t, retryableConnectError(&pgconn.PgError{Code: "57P03"}))
	assert.False(t, retryableConnectError(&pgconn.PgError{Code: "28P01"}))
	assert.False(t, retryableConnectError(fmt.Errorf("connect: %w", &pgconn.PgError{Code: "3D000"})))
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@host/db", pgx5URL("postgres://u:p@host/db"))
	assert.Equal(t, "pgx5://u:p@host/db", pgx5URL("postgresql://u:p@host/db"))
	assert.Equal(t, "pgx5://x", pgx5URL("pgx5://x"))
}
