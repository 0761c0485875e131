package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultShutdownTimeout = 10 * time.Second

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// ManagedResource defines a component with a managed lifecycle.
type ManagedResource interface {
	// Name identifies the resource in logs.
	Name() string

	// Start runs the component and blocks until it stops. Returning nil
	// means a clean stop.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component. It should be idempotent.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) HealthStatus
}

// Group runs resources together. The first one to fail, or the parent
// context ending, stops all of them in reverse order.
type Group struct {
	resources       []ManagedResource
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func NewGroup(logger *slog.Logger, shutdownTimeout time.Duration, resources ...ManagedResource) *Group {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Group{resources: resources, shutdownTimeout: shutdownTimeout, logger: logger}
}

// Run blocks until every resource has stopped. A cancelled parent context is
// a normal shutdown and returns nil.
func (g *Group) Run(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)

	for _, r := range g.resources {
		eg.Go(func() error {
			g.logger.InfoContext(gctx, "starting resource", "resource", r.Name())
			if err := r.Start(gctx); err != nil {
				g.logger.ErrorContext(gctx, "resource failed", "resource", r.Name(), "error", err)
				return err
			}
			return nil
		})
	}

	eg.Go(func() error {
		<-gctx.Done()
		return g.stopAll()
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (g *Group) stopAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(g.resources) - 1; i >= 0; i-- {
		r := g.resources[i]
		if err := r.Stop(ctx); err != nil {
			g.logger.ErrorContext(ctx, "error stopping resource", "resource", r.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health reports every resource by name.
func (g *Group) Health(ctx context.Context) map[string]HealthStatus {
	out := make(map[string]HealthStatus, len(g.resources))
	for _, r := range g.resources {
		out[r.Name()] = r.Health(ctx)
	}
	return out
}
