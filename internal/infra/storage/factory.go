package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spounge-ai/rosetta/internal/infra/aws"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/kms"
	"github.com/spounge-ai/rosetta/pkg/patterns/circuitbreaker"
)

// Opened is a ready store plus whatever must be released on shutdown.
type Opened struct {
	Store   Store
	Backend string
	closers []io.Closer
}

func (o *Opened) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the configured backend, wraps remote backends in a circuit
// breaker and seals values when a KMS provider is configured.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Opened, error) {
	opened := &Opened{Backend: cfg.Storage.Backend}

	var (
		store  Store
		remote bool
	)
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		store = NewMemory()
	case config.StorageSQLite:
		s, err := OpenSQLite(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, err
		}
		opened.closers = append(opened.closers, s)
		store = s
	case config.StoragePostgres:
		p, err := OpenPostgres(ctx, cfg.Storage.Postgres, cfg.Server.Mode == "production", logger)
		if err != nil {
			return nil, err
		}
		opened.closers = append(opened.closers, p)
		store, remote = p, true
	case config.StorageS3:
		awsCfg, err := aws.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		store = NewS3WithClient(aws.NewS3Client(awsCfg, cfg.AWS), cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix, logger)
		remote = true
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}

	if remote && cfg.Storage.CircuitBreaker.Enabled {
		store = NewBreaker(store, cfg.Storage.CircuitBreaker.MaxFailures, cfg.Storage.CircuitBreaker.ResetTimeout, logger)
	}

	sealer, err := newSealer(ctx, cfg)
	if err != nil {
		_ = opened.Close()
		return nil, err
	}
	if _, noop := sealer.(kms.NoopSealer); !noop {
		if c, ok := sealer.(io.Closer); ok {
			opened.closers = append(opened.closers, c)
		}
		store = NewSealed(store, sealer)
	}

	logger.InfoContext(ctx, "storage ready", "backend", cfg.Storage.Backend, "sealer", sealer.Name())
	opened.Store = store
	return opened, nil
}

func newSealer(ctx context.Context, cfg *config.Config) (kms.Sealer, error) {
	switch cfg.KMS.Provider {
	case config.KMSLocal:
		return kms.NewLocalSealer(cfg.KMS.MasterKey)
	case config.KMSAWS:
		awsCfg, err := aws.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return kms.NewAWSSealerWithClient(aws.NewKMSClient(awsCfg, cfg.AWS), cfg.AWS.KMSKeyARN, cfg.AWS.CacheTTL), nil
	default:
		return kms.NoopSealer{}, nil
	}
}

// IsUnavailable reports whether err came from an open circuit.
func IsUnavailable(err error) bool {
	return errors.Is(err, circuitbreaker.ErrOpen)
}
