package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
)

// Resolution outcomes, as recorded in metrics.
const (
	ResolvedManual   = "manual"
	ResolvedFallback = "fallback"
	ResolvedRotated  = "rotated"
)

// CredentialResolver picks the credential for one request according to the
// stored key selection mode.
//
// Concurrent resolutions may read the same lastUsedKeyId and pick the same
// key; the later write wins. Rotation is a load spreading heuristic, not a
// fairness guarantee.
type CredentialResolver struct {
	selection domain.KeySelectionRepository
	metrics   metrics.Recorder
	logger    *slog.Logger
}

func NewCredentialResolver(selection domain.KeySelectionRepository, recorder metrics.Recorder, logger *slog.Logger) *CredentialResolver {
	return &CredentialResolver{selection: selection, metrics: recorder, logger: logger}
}

func (r *CredentialResolver) Resolve(ctx context.Context, set domain.CredentialSet) (domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "ResolveActiveCredential")
	defer span.End()

	mode, err := r.selection.GetMode(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read key selection mode, using manual", "error", err)
		mode = domain.KeySelectionManual
	}
	span.SetAttributes(attribute.String("key_selection.mode", string(mode)))

	provider, auto := mode.Provider()
	if !auto {
		return r.manual(ctx, set, ResolvedManual)
	}

	if n := len(set.ByProvider(provider)); n < domain.MinAutoBalanceKeys {
		r.logger.DebugContext(ctx, "not enough keys to auto-balance, using active key", "provider", provider, "keys", n)
		return r.manual(ctx, set, ResolvedFallback)
	}

	lastUsedID, err := r.selection.GetLastUsedKeyID(ctx, provider)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read rotation state, starting from the first key", "provider", provider, "error", err)
		lastUsedID = ""
	}

	next, ok := set.NextRoundRobin(provider, lastUsedID)
	if !ok {
		return r.manual(ctx, set, ResolvedFallback)
	}

	if err := r.selection.SetLastUsedKeyID(ctx, provider, next.ID()); err != nil {
		r.logger.WarnContext(ctx, "failed to persist rotation state", "provider", provider, "error", err)
	}

	span.SetAttributes(attribute.String("credential.id", next.ID()))
	r.metrics.RecordRotation(string(provider), ResolvedRotated)
	return next, nil
}

func (r *CredentialResolver) manual(ctx context.Context, set domain.CredentialSet, outcome string) (domain.Credential, error) {
	active, ok := set.Active()
	if !ok {
		r.metrics.RecordRotation("none", metrics.StatusError)
		return domain.Credential{}, app_errors.NotAuthenticated()
	}
	r.metrics.RecordRotation(string(active.Provider()), outcome)
	return active, nil
}
